// Package replay reads and writes landmark recordings as newline-delimited
// JSON and synthesizes recordings of a virtual head for demos and tests.
package replay
