package eventbus

import (
	"reflect"
	"strings"

	"github.com/yangjinze/EventBus/pkg/eventbus/cache"
)

// ScannerConfig controls how the Scanner decides which methods are
// handlers and how far up a subscriber's embedding chain it walks.
type ScannerConfig struct {
	// NamingPrefix is the fallback handler-detection convention used for
	// subscribers that do not implement HandlerOptionsProvider: an
	// exported, one-parameter method whose name has this prefix is a
	// handler with DefaultHandlerOptions. Default "On".
	NamingPrefix string

	// StrictMethodVerification rejects malformed annotated methods
	// (right name, wrong shape) with ErrIllegalHandler instead of
	// silently skipping them.
	StrictMethodVerification bool

	// IgnoreGeneratedIndex forces the reflection path even when Indexes
	// is non-empty.
	IgnoreGeneratedIndex bool

	// Indexes are consulted in order, before reflection, at each level of
	// the embedding walk.
	Indexes []SubscriberInfoIndex

	// IsSystemPackage reports whether a package path is a system/runtime
	// root the embedding walk should not recurse past. The original
	// design calls this heuristic and possibly in need of being
	// configurable (see DESIGN.md); the default treats any package path
	// whose first segment contains no dot as standard-library-owned.
	IsSystemPackage func(pkgPath string) bool
}

// DefaultIsSystemPackage is the default stdlib-vs-third-party heuristic:
// Go standard library import paths never contain a dot in their first
// path segment (e.g. "sync", "context", "io"), while third-party paths
// always do (e.g. "github.com/...").
func DefaultIsSystemPackage(pkgPath string) bool {
	if pkgPath == "" {
		return true
	}
	first := pkgPath
	if idx := strings.IndexByte(pkgPath, '/'); idx >= 0 {
		first = pkgPath[:idx]
	}
	return !strings.Contains(first, ".")
}

// Scanner discovers a subscriber's handler methods and caches the result
// by concrete type for the lifetime of the Scanner (each Bus builds its own).
type Scanner struct {
	config ScannerConfig
	cache  *cache.Registry[reflect.Type, []*HandlerDescriptor]
}

// NewScanner creates a Scanner with the given configuration, filling in
// defaults for zero-valued fields.
func NewScanner(config ScannerConfig) *Scanner {
	if config.NamingPrefix == "" {
		config.NamingPrefix = "On"
	}
	if config.IsSystemPackage == nil {
		config.IsSystemPackage = DefaultIsSystemPackage
	}
	return &Scanner{config: config, cache: cache.New[reflect.Type, []*HandlerDescriptor]()}
}

// Scan returns the cached (or freshly computed) handler descriptors for
// subscriber's concrete type. Returns ErrNoHandlers if neither subscriber
// nor any level of its embedding chain has an eligible handler, and
// ErrIllegalHandler (wrapped in *RegistrationError) if strict verification
// is enabled and a malformed annotated method is found.
func (s *Scanner) Scan(subscriber any) ([]*HandlerDescriptor, error) {
	v := reflect.ValueOf(subscriber)
	t := v.Type()

	if cached, ok := s.cache.Get(t); ok {
		if len(cached) == 0 {
			return nil, &RegistrationError{SubscriberType: t, Err: ErrNoHandlers}
		}
		return cached, nil
	}

	descriptors, err := s.scanFresh(v, t)
	if err != nil {
		return nil, err
	}

	// Cache even the success path; a later illegal-method error on a
	// *different* instance of the same type would be deterministic too,
	// so there is nothing to invalidate.
	s.cache.Register(t, descriptors)

	if len(descriptors) == 0 {
		return nil, &RegistrationError{SubscriberType: t, Err: ErrNoHandlers}
	}
	return descriptors, nil
}

func (s *Scanner) scanFresh(v reflect.Value, t reflect.Type) ([]*HandlerDescriptor, error) {
	provider, hasProvider := v.Interface().(HandlerOptionsProvider)

	levels := s.embeddingLevels(t)

	var (
		out  []*HandlerDescriptor
		seen = make(map[string]struct{})
	)

	for _, level := range levels {
		if !s.config.IgnoreGeneratedIndex {
			if info := s.lookupIndex(level); info != nil {
				for _, d := range info.SubscriberMethods() {
					key := d.methodName + "\x00" + d.eventType.String()
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
					out = append(out, d)
				}
				continue
			}
		}

		found, err := s.scanLevel(level, provider, hasProvider, seen, &out)
		if err != nil {
			return nil, err
		}
		_ = found
	}

	return out, nil
}

// scanLevel examines level's own method set (via pointer-to-level when level
// is not already a pointer type, so both value- and pointer-receiver methods
// are visible) for handler candidates.
func (s *Scanner) scanLevel(level reflect.Type, provider HandlerOptionsProvider, hasProvider bool, seen map[string]struct{}, out *[]*HandlerDescriptor) (bool, error) {
	ptrLevel := level
	if level.Kind() != reflect.Ptr {
		ptrLevel = reflect.PtrTo(level)
	}
	any := false

	for i := 0; i < ptrLevel.NumMethod(); i++ {
		m := ptrLevel.Method(i)
		if m.PkgPath != "" { // unexported
			continue
		}

		paramCount := m.Type.NumIn() - 1 // drop receiver
		isAnnotated := false
		opts := DefaultHandlerOptions

		if hasProvider {
			if o, ok := provider.HandlerOptions(m.Name); ok {
				isAnnotated = true
				opts = o
			}
		} else if strings.HasPrefix(m.Name, s.config.NamingPrefix) {
			isAnnotated = true
		}

		if !isAnnotated {
			continue
		}

		if paramCount != 1 {
			if s.config.StrictMethodVerification {
				return any, &RegistrationError{SubscriberType: level, Method: m.Name, Err: ErrIllegalHandler}
			}
			continue
		}

		eventType := m.Type.In(1)
		key := m.Name + "\x00" + eventType.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		*out = append(*out, newHandlerDescriptor(level, m.Name, eventType, opts))
		any = true
	}

	return any, nil
}

func (s *Scanner) lookupIndex(level reflect.Type) SubscriberInfo {
	for _, idx := range s.config.Indexes {
		if info := idx.GetSubscriberInfo(level); info != nil {
			return info
		}
	}
	return nil
}

// embeddingLevels returns t, then each anonymous embedded struct field's
// type reachable from t (outer to inner, depth-first), skipping any level
// whose package is a system root. This is the Go analogue of "class K,
// parent(K), ... stopping before system-namespace classes".
func (s *Scanner) embeddingLevels(t reflect.Type) []reflect.Type {
	levels := []reflect.Type{t}

	structType := t
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return levels
	}

	s.appendEmbeddedLevels(structType, &levels)
	return levels
}

func (s *Scanner) appendEmbeddedLevels(structType reflect.Type, levels *[]reflect.Type) {
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.Anonymous {
			continue
		}
		ft := field.Type
		elem := ft
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			continue
		}
		if s.config.IsSystemPackage(elem.PkgPath()) {
			continue
		}
		*levels = append(*levels, ft)
		s.appendEmbeddedLevels(elem, levels)
	}
}
