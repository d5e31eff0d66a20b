package eventbus

import (
	"reflect"

	"github.com/yangjinze/EventBus/pkg/eventbus/cache"
)

// EventTypeList is the ordered, deduplicated sequence of types an event
// dispatches to: the event's own type, the interface types it embeds as
// anonymous fields, its "superclass" step, then that step's embedded
// interfaces, and so on. See Hierarchy.Expand.
type EventTypeList []reflect.Type

// Hierarchy expands an event's concrete type into its EventTypeList and
// caches the result process-wide. The cache is append-only: once a type is
// warmed its entry never changes, so callers may hold references to a
// previously returned EventTypeList indefinitely.
type Hierarchy struct {
	cache *cache.Registry[reflect.Type, EventTypeList]
}

// processHierarchyCache is shared by every Hierarchy, so each event type is
// expanded at most once per process.
var processHierarchyCache = cache.New[reflect.Type, EventTypeList]()

// NewHierarchy returns a Hierarchy backed by the process-wide type
// hierarchy cache.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{cache: processHierarchyCache}
}

// Expand returns the EventTypeList for t, computing and caching it on
// first use. Complexity is O(depth × interfaces) on a cache miss and O(1)
// amortized thereafter.
func (h *Hierarchy) Expand(t reflect.Type) EventTypeList {
	return h.cache.GetOrCreate(t, func() EventTypeList {
		return expandType(t)
	})
}

// expandType performs the uncached walk described on EventTypeList:
// the type itself, then its embedded interfaces, then its
// "superclass" step (the type of an anonymous embedded struct field, Go's
// nearest analogue to a base class), then that step's interfaces, and so
// on until no further superclass step exists.
func expandType(t reflect.Type) EventTypeList {
	var out EventTypeList
	seen := make(map[reflect.Type]struct{})

	add := func(candidate reflect.Type) bool {
		if candidate == nil {
			return false
		}
		if _, dup := seen[candidate]; dup {
			return false
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
		return true
	}

	current := t
	for current != nil {
		add(current)
		appendInterfaces(current, add)
		current = superclassOf(current)
	}

	return out
}

// appendInterfaces walks t's implemented interfaces. Since Go types don't
// declare "implements" lists the way classes do, we approximate this with
// the interface types of t's own anonymous embedded fields (embedding an
// interface is the idiomatic Go way to declare "this struct also satisfies
// interface I via a member"). Interfaces embedded within those interfaces
// are not listed separately: reflect presents an interface type's method
// set flattened, without its embedded interfaces.
func appendInterfaces(t reflect.Type, add func(reflect.Type) bool) {
	structType := t
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.Anonymous {
			continue
		}
		ft := field.Type
		if ft.Kind() == reflect.Interface {
			add(ft)
		}
	}
}

// superclassOf returns the type standing in for t's superclass: the type
// of an anonymous embedded struct field, if t is (or points to) a struct
// with exactly one such field to consider as the "next" step, or nil if
// t has no analogue to a base class. When more than one anonymous struct
// field exists, the first declared wins — mirroring single-inheritance
// languages, since Go structs may embed multiple types but the original
// spec's model assumes one superclass per class.
func superclassOf(t reflect.Type) reflect.Type {
	structType := t
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			return field.Type
		}
	}
	return nil
}

// isAssignableFrom reports whether an event of concrete type from can be
// delivered to a handler declared to accept to — i.e., from == to, or to
// is an interface that from implements.
func isAssignableFrom(to, from reflect.Type) bool {
	if to == from {
		return true
	}
	if to.Kind() == reflect.Interface {
		return from.Implements(to)
	}
	return false
}
