package ratbag

import "sync/atomic"

// refCounted is embedded by every entity in the graph. Children hold a
// strong reference to their parent: a parent's count includes one increment
// per live child, so a parent is never destroyed while any child
// survives, and a child never destroys its parent directly — it only
// releases its own edge on the parent when the child itself reaches zero.
type refCounted struct {
	count int32
}

func (r *refCounted) ref() {
	atomic.AddInt32(&r.count, 1)
}

// unref decrements the count and reports whether it reached zero.
func (r *refCounted) unref() bool {
	return atomic.AddInt32(&r.count, -1) == 0
}

// RefCount returns the current reference count, for tests and diagnostics.
func (r *refCounted) RefCount() int32 {
	return atomic.LoadInt32(&r.count)
}
