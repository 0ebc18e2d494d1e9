// Package align maps points between a per-frame live landmark space and the
// canonical face-model space.
//
// An Aligner is built once per frame. Construction computes a uniform scale
// factor from a horizontal and a vertical reference segment, scales the model
// correspondences by it, and robustly fits a 3x4 affine transform from live
// points onto the scaled model points (RANSAC over 4-point samples followed by
// a QR least-squares refit on the consensus set).
//
// An Aligner never changes after construction. A failed alignment produces an
// unusable instance whose mapping methods return ErrAlignmentFailed, so a
// caller can skip the frame without special casing.
package align
