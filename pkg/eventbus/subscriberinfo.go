package eventbus

import "reflect"

// SubscriberInfo is a precomputed set of handler descriptors for one
// subscriber type, produced by a build-time generator instead of
// reflection. This mirrors the original design's "code-generated
// subscriber index" collaborator: named out of scope, wired here purely
// through the interface it satisfies.
type SubscriberInfo interface {
	// SubscriberMethods returns this type's own handler descriptors
	// (not including ancestors).
	SubscriberMethods() []*HandlerDescriptor

	// SuperSubscriberInfo returns the SubscriberInfo for the next type up
	// the chain (see Hierarchy's notion of "superclass"), or nil if none.
	SuperSubscriberInfo() SubscriberInfo
}

// SubscriberInfoIndex supplies precomputed SubscriberInfo for a type,
// letting the Scanner skip reflection entirely on runtimes where it is
// expensive. When one or more indexes are configured on a Bus, the Scanner
// consults them before falling back to reflection at each level of the
// walk; behavior otherwise matches the reflection path exactly, including
// dedup rules.
type SubscriberInfoIndex interface {
	GetSubscriberInfo(t reflect.Type) SubscriberInfo
}

// staticSubscriberInfo is a ready-made SubscriberInfo backed by a fixed
// slice, useful for hand-written or generated index tables.
type staticSubscriberInfo struct {
	methods []*HandlerDescriptor
	super   SubscriberInfo
}

// NewStaticSubscriberInfo builds a SubscriberInfo from a fixed descriptor
// list and an optional parent, for use in a hand-assembled
// SubscriberInfoIndex.
func NewStaticSubscriberInfo(methods []*HandlerDescriptor, super SubscriberInfo) SubscriberInfo {
	return &staticSubscriberInfo{methods: methods, super: super}
}

func (s *staticSubscriberInfo) SubscriberMethods() []*HandlerDescriptor { return s.methods }
func (s *staticSubscriberInfo) SuperSubscriberInfo() SubscriberInfo     { return s.super }

// MapSubscriberInfoIndex is the simplest SubscriberInfoIndex: a static
// map from subscriber type to its precomputed SubscriberInfo, as a build
// step would produce.
type MapSubscriberInfoIndex map[reflect.Type]SubscriberInfo

// GetSubscriberInfo implements SubscriberInfoIndex.
func (m MapSubscriberInfoIndex) GetSubscriberInfo(t reflect.Type) SubscriberInfo {
	return m[t]
}
