package facemodel

// Indices maps face parts to positions in a detector's landmark array.
type Indices struct {
	OuterHeadPoints    [2]int
	NoseBridge         int
	NoseTip            int
	InternalEyeCorners [2]int
	OuterEyeCorners    [2]int

	LeftIris    []int
	LeftPupil   int
	LeftEyelid  []int
	RightIris   []int
	RightPupil  int
	RightEyelid []int
}

// MediaPipe returns the index table for the 478-point MediaPipe face mesh
// (with iris refinement).
func MediaPipe() Indices {
	return Indices{
		OuterHeadPoints:    [2]int{162, 389},
		NoseBridge:         6,
		NoseTip:            4,
		InternalEyeCorners: [2]int{155, 362},
		OuterEyeCorners:    [2]int{33, 263},

		LeftIris:    []int{469, 470, 471, 472},
		LeftPupil:   468,
		LeftEyelid:  []int{160, 159, 158, 163, 144, 145, 153},
		RightIris:   []int{474, 475, 476, 477},
		RightPupil:  473,
		RightEyelid: []int{387, 386, 385, 390, 373, 374, 380},
	}
}

// Base returns the alignment landmark indices, ordered like Model.BasePoints.
func (ix Indices) Base() []int {
	return []int{
		ix.InternalEyeCorners[0], ix.InternalEyeCorners[1],
		ix.OuterEyeCorners[0], ix.OuterEyeCorners[1],
		ix.OuterHeadPoints[0], ix.OuterHeadPoints[1],
		ix.NoseBridge,
		ix.NoseTip,
	}
}

// LeftEye returns the left iris followed by the adjacent eyelid landmarks:
// the candidates believed to lie near the left eyeball surface.
func (ix Indices) LeftEye() []int {
	return concat(ix.LeftIris, ix.LeftEyelid)
}

// RightEye is LeftEye for the right eye.
func (ix Indices) RightEye() []int {
	return concat(ix.RightIris, ix.RightEyelid)
}

// MaxIndex returns the largest index referenced by the table.
func (ix Indices) MaxIndex() int {
	all := append(ix.Base(), ix.LeftEye()...)
	all = append(all, ix.RightEye()...)
	all = append(all, ix.LeftPupil, ix.RightPupil)

	highest := -1
	for _, i := range all {
		if i > highest {
			highest = i
		}
	}
	return highest
}

func concat(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
