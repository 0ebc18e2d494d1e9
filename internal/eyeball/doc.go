// Package eyeball estimates an eyeball sphere from a stream of model-space
// points believed to lie on the eye surface.
//
// An Estimator keeps a bounded history of candidate points. Once the history
// holds enough points it fits a sphere on every update until the confidence
// reaches the lock level, after which fitting stops. A lock older than the
// refresh threshold is released so the search can resume. Confidence never
// decreases until Reset.
//
// Estimators are not safe for concurrent use; left and right eyes use two
// independent instances.
package eyeball
