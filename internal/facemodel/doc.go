// Package facemodel owns the static canonical face model and the landmark
// index tables used to pull correspondences out of a detector's landmark
// array.
//
// Both are plain values returned by constructor functions so callers inject
// them into the aligner and the per-frame processor instead of reading
// package-level state.
package facemodel
