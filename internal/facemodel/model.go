package facemodel

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gaze/internal/geom"
)

// Model is the canonical face model in model space (metres, head-centred).
type Model struct {
	InternalEyeCorners [2]geom.Point3 // left, right
	OuterEyeCorners    [2]geom.Point3 // left, right
	OuterHeadPoints    [2]geom.Point3 // left, right
	NoseBridge         geom.Point3
	NoseTip            geom.Point3

	LeftEyeCenter  geom.Point3
	RightEyeCenter geom.Point3
	EyeRadius      float64
}

// eyeCenterDrop lowers the default eyeball centre below the line between the
// eye corners; eyeCenterDepth places it behind the corner plane.
const (
	eyeCenterDrop  = 0.009
	eyeCenterDepth = 0.02
)

// Canonical returns a fresh copy of the universal face model.
func Canonical() Model {
	m := Model{
		InternalEyeCorners: [2]geom.Point3{
			{X: -0.035, Y: -0.05, Z: 0},
			{X: 0.035, Y: -0.05, Z: 0},
		},
		OuterEyeCorners: [2]geom.Point3{
			{X: -0.09, Y: -0.057, Z: 0.01},
			{X: 0.09, Y: -0.057, Z: 0.01},
		},
		OuterHeadPoints: [2]geom.Point3{
			{X: -0.145, Y: -0.1, Z: 0.1},
			{X: 0.145, Y: -0.1, Z: 0.1},
		},
		NoseBridge: geom.Point3{X: 0, Y: -0.0319, Z: -0.0432},
		NoseTip:    geom.Point3{X: 0, Y: 0.088, Z: -0.071},
		EyeRadius:  0.02,
	}
	m.LeftEyeCenter = defaultEyeCenter(m.InternalEyeCorners[0], m.OuterEyeCorners[0])
	m.RightEyeCenter = defaultEyeCenter(m.InternalEyeCorners[1], m.OuterEyeCorners[1])
	return m
}

func defaultEyeCenter(internal, outer geom.Point3) geom.Point3 {
	c := r3.Scale(0.5, r3.Add(internal, outer))
	c.Y -= eyeCenterDrop
	c.Z = eyeCenterDepth
	return c
}

// BasePoints returns the alignment correspondences in the same order as
// Indices.Base: internal eye corners, outer eye corners, outer head points,
// nose bridge, nose tip.
func (m Model) BasePoints() geom.PointSet {
	return geom.PointSet{
		m.InternalEyeCorners[0], m.InternalEyeCorners[1],
		m.OuterEyeCorners[0], m.OuterEyeCorners[1],
		m.OuterHeadPoints[0], m.OuterHeadPoints[1],
		m.NoseBridge,
		m.NoseTip,
	}
}

// Horizontal returns the head-width reference segment.
func (m Model) Horizontal() geom.Segment {
	return geom.Segment{A: m.OuterHeadPoints[0], B: m.OuterHeadPoints[1]}
}

// Vertical returns the nose-length reference segment.
func (m Model) Vertical() geom.Segment {
	return geom.Segment{A: m.NoseBridge, B: m.NoseTip}
}
