package restructure

import (
	"strings"

	"github.com/arloliu/restructure/stream"
)

// Scope resolves dotted field paths against the value being decoded or
// encoded. The segment "parent" climbs to the enclosing scope; any other
// segment indexes the current Record and then nested Records.
type Scope interface {
	Lookup(path string) (any, bool)
}

// DecodeContext is the per-composite state threaded through a decode call.
// It is created fresh for every struct and length-prefixed array and is
// discarded once that composite is decoded.
type DecodeContext struct {
	// Parent is the enclosing context, nil at the root. It is read-only.
	Parent *DecodeContext
	// Value is the partially built result of the current struct.
	Value Record
	// StartOffset is the absolute position where the composite began.
	StartOffset int
	// CurrentOffset is the running offset relative to StartOffset, updated
	// after each field.
	CurrentOffset int
	// Length is the declared byte length of the composite, 0 when unknown.
	Length int
}

// Lookup implements Scope. It is safe to call on a nil context.
func (c *DecodeContext) Lookup(path string) (any, bool) {
	if c == nil {
		return nil, false
	}

	segments := strings.Split(path, ".")
	cur := c
	for i, seg := range segments {
		if seg == "parent" {
			cur = cur.Parent
			if cur == nil {
				return nil, false
			}

			continue
		}

		return lookupRecord(cur.Value, segments[i:])
	}

	return nil, false
}

// Root returns the outermost context in the chain.
func (c *DecodeContext) Root() *DecodeContext {
	if c == nil {
		return nil
	}

	cur := c
	for cur.Parent != nil {
		cur = cur.Parent
	}

	return cur
}

func (c *DecodeContext) startOffset() int {
	if c == nil {
		return 0
	}

	return c.StartOffset
}

// PendingPointer is a pointer target queued for deferred encoding.
type PendingPointer struct {
	Type   Type
	Value  any
	Parent *EncodeContext
}

// EncodeContext is the per-composite state threaded through size and encode
// calls. Structs and length-prefixed arrays own one; their pointer targets
// are queued here and flushed right after the composite's fixed region.
type EncodeContext struct {
	// Parent is the enclosing context, nil at the root.
	Parent *EncodeContext
	// Value is the record being encoded by the current struct.
	Value Record
	// StartOffset is the stream position where the composite began.
	StartOffset int
	// PointerOffset is the absolute position where the next pointer target
	// of this scope will be written.
	PointerOffset int
	// PointerSize accumulates the target sizes reserved by pointers that
	// anchor at this scope.
	PointerSize int
	// Pointers is the queue of targets awaiting encoding, in reference order.
	Pointers []PendingPointer
}

// Lookup implements Scope. It is safe to call on a nil context.
func (c *EncodeContext) Lookup(path string) (any, bool) {
	if c == nil {
		return nil, false
	}

	segments := strings.Split(path, ".")
	cur := c
	for i, seg := range segments {
		if seg == "parent" {
			cur = cur.Parent
			if cur == nil {
				return nil, false
			}

			continue
		}

		return lookupRecord(cur.Value, segments[i:])
	}

	return nil, false
}

// Root returns the outermost context in the chain.
func (c *EncodeContext) Root() *EncodeContext {
	if c == nil {
		return nil
	}

	cur := c
	for cur.Parent != nil {
		cur = cur.Parent
	}

	return cur
}

// enqueue schedules a pointer target for encoding after the fixed region.
func (c *EncodeContext) enqueue(t Type, value any, parent *EncodeContext) {
	c.Pointers = append(c.Pointers, PendingPointer{Type: t, Value: value, Parent: parent})
}

// flush encodes queued pointer targets until the queue is exhausted. Targets
// may enqueue further targets into the same scope while it drains.
func (c *EncodeContext) flush(s *stream.EncodeStream) error {
	for i := 0; i < len(c.Pointers); i++ {
		ptr := c.Pointers[i]
		if err := ptr.Type.Encode(s, ptr.Value, ptr.Parent); err != nil {
			return err
		}
	}

	return nil
}

func lookupRecord(rec Record, segments []string) (any, bool) {
	var cur any = rec
	for _, seg := range segments {
		m, ok := asRecord(cur)
		if !ok || m == nil {
			return nil, false
		}

		v, found := m[seg]
		if !found {
			return nil, false
		}

		if lazy, isLazy := v.(*Lazy); isLazy {
			resolved, err := lazy.Value()
			if err != nil {
				return nil, false
			}
			v = resolved
		}
		cur = v
	}

	return cur, true
}
