// Package gaze turns per-frame face landmarks into eye gaze vectors.
//
// A Processor aligns every frame to the canonical face model, feeds each
// eye's surface landmarks to its sphere estimator and, once an eye's center
// is detected, reports the gaze as the vector from the eyeball center to the
// pupil in landmark space.
package gaze
