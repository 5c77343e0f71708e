// Package hooks provides named extension points. Each point holds an ordered
// list of pure filter functions applied to a value before it is used; with no
// filters registered a point is an identity transform.
package hooks
