// Package index provides persisted SubscriberInfoIndex backing stores, for
// applications that want to skip reflection-based handler scanning on
// process startup by loading a previously saved handler table instead.
// This is not event persistence: it stores only the result of scanning a subscriber type once, not any
// posted event.
package index

import (
	"errors"
	"reflect"

	"github.com/yangjinze/EventBus/pkg/eventbus"
)

// Record is the serializable form of one eventbus.HandlerDescriptor,
// keyed by the subscriber type it belongs to.
type Record struct {
	SubscriberType string
	MethodName     string
	EventType      string
	ThreadMode     int
	Priority       int
	Sticky         bool
}

// Store persists Records grouped by subscriber type string
// (reflect.Type.String() of the scanned type). Implementations must be
// safe for concurrent use.
type Store interface {
	// Save replaces the full record set for subscriberType.
	Save(subscriberType string, records []Record) error

	// Load returns the record set for subscriberType, and whether one was
	// found at all. SQLiteStore stores records as rows, so a set saved
	// empty reads back as not found.
	Load(subscriberType string) ([]Record, bool, error)

	// Delete removes the record set for subscriberType, if present.
	Delete(subscriberType string) error

	// Close releases any underlying resources (connections, files).
	Close() error
}

// Sentinel errors for Store operations.
var (
	ErrStoreClosed = errors.New("index: store closed")
)

// TypeResolver maps a reflect.Type.String() value back to its reflect.Type,
// for rehydrating persisted Records into live HandlerDescriptors. Callers
// typically build one by registering every subscriber and event type they
// expect to load ahead of time, since Go cannot look a type up by name
// without such a table.
type TypeResolver func(typeString string) (reflect.Type, bool)

// PersistedIndex adapts a Store into an eventbus.SubscriberInfoIndex,
// resolving each Record's type strings through resolve.
type PersistedIndex struct {
	store   Store
	resolve TypeResolver
}

// NewPersistedIndex builds a PersistedIndex reading from store, resolving
// type strings through resolve.
func NewPersistedIndex(store Store, resolve TypeResolver) *PersistedIndex {
	return &PersistedIndex{store: store, resolve: resolve}
}

// GetSubscriberInfo implements eventbus.SubscriberInfoIndex. It returns nil
// (falling back to reflection) if subscriberType was never saved, or if
// any of its records reference a type resolve does not recognize.
func (p *PersistedIndex) GetSubscriberInfo(subscriberType reflect.Type) eventbus.SubscriberInfo {
	records, ok, err := p.store.Load(subscriberType.String())
	if err != nil || !ok || len(records) == 0 {
		return nil
	}

	declaringType, ok := p.resolve(subscriberType.String())
	if !ok {
		declaringType = subscriberType
	}

	descriptors := make([]*eventbus.HandlerDescriptor, 0, len(records))
	for _, rec := range records {
		eventType, ok := p.resolve(rec.EventType)
		if !ok {
			return nil
		}
		descriptors = append(descriptors, eventbus.NewHandlerDescriptor(
			declaringType,
			rec.MethodName,
			eventType,
			eventbus.HandlerOptions{
				ThreadMode: eventbus.ThreadMode(rec.ThreadMode),
				Priority:   rec.Priority,
				Sticky:     rec.Sticky,
			},
		))
	}

	return eventbus.NewStaticSubscriberInfo(descriptors, nil)
}

// Save persists the result of a reflection scan for subscriberType so a
// later PersistedIndex lookup can skip reflection for it.
func Save(store Store, subscriberType reflect.Type, descriptors []*eventbus.HandlerDescriptor) error {
	records := make([]Record, 0, len(descriptors))
	for _, d := range descriptors {
		records = append(records, Record{
			SubscriberType: subscriberType.String(),
			MethodName:     d.MethodName(),
			EventType:      d.EventType().String(),
			ThreadMode:     int(d.ThreadMode()),
			Priority:       d.Priority(),
			Sticky:         d.Sticky(),
		})
	}
	return store.Save(subscriberType.String(), records)
}
