package align

import "errors"

var (
	// ErrAlignmentFailed is wrapped by every mapping error of an unusable Aligner.
	ErrAlignmentFailed = errors.New("alignment failed")

	// ErrDegenerateReference reports a zero-length or non-finite reference segment.
	ErrDegenerateReference = errors.New("degenerate reference segment")

	// ErrCorrespondenceMismatch reports live and model sets of different length.
	ErrCorrespondenceMismatch = errors.New("live and model correspondence sets differ in length")

	// ErrInsufficientCorrespondences reports fewer than MinCorrespondences usable pairs.
	ErrInsufficientCorrespondences = errors.New("insufficient correspondences")

	// ErrDegenerateCorrespondences reports that no non-degenerate affine fit exists.
	ErrDegenerateCorrespondences = errors.New("degenerate correspondences")

	// ErrInternalInconsistency reports a non-invertible transform on a successful alignment.
	ErrInternalInconsistency = errors.New("affine transform is not invertible")
)
