// Package epoch implements cancel-by-ignoring for asynchronous work: a
// result is applied only if the epoch it was launched under is still current.
package epoch

import "sync/atomic"

// Tag identifies the epoch an operation was launched under.
type Tag uint64

// Counter is a monotonic generation counter. The zero value is ready to use.
type Counter struct {
	n atomic.Uint64
}

// Begin returns the tag of the current epoch.
func (c *Counter) Begin() Tag {
	return Tag(c.n.Load())
}

// Advance supersedes every tag handed out so far.
func (c *Counter) Advance() Tag {
	return Tag(c.n.Add(1))
}

// Current reports whether t has not been superseded.
func (c *Counter) Current(t Tag) bool {
	return Tag(c.n.Load()) == t
}
