package feature

import (
	"errors"
	"sort"
	"time"
)

// Common errors for store operations.
var (
	ErrNilFeature = errors.New("nil feature")
	ErrEmptyID    = errors.New("feature has empty id")
)

// EventKind identifies the kind of store change.
type EventKind int

// Store event kinds.
const (
	// EventUpsert is a committed insert or replace of one feature.
	EventUpsert EventKind = iota

	// EventRemove is the removal of one feature.
	EventRemove

	// EventClear is the removal of all features.
	EventClear

	// EventPreview is an uncommitted live edit of one feature. Derived
	// structures that only track committed geometry may ignore it.
	EventPreview
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventUpsert:
		return "upsert"
	case EventRemove:
		return "remove"
	case EventClear:
		return "clear"
	case EventPreview:
		return "preview"
	default:
		return "unknown"
	}
}

// Event describes one store change. Feature is nil for remove and clear
// events.
type Event struct {
	Kind      EventKind
	FeatureID string
	Feature   *Feature
}

// Handler receives store change events. Handlers run synchronously inside
// the mutating call, in subscription order.
type Handler func(Event)

// Subscription identifies a registered handler.
type Subscription int

// Store is the authoritative in-memory feature collection. It is not safe
// for concurrent use; the edit engine is single-threaded by contract.
type Store struct {
	features map[string]*Feature
	subs     map[Subscription]Handler
	nextSub  Subscription
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		features: make(map[string]*Feature),
		subs:     make(map[Subscription]Handler),
	}
}

// Subscribe registers a change handler and returns its subscription.
func (s *Store) Subscribe(h Handler) Subscription {
	s.nextSub++
	s.subs[s.nextSub] = h
	return s.nextSub
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (s *Store) Unsubscribe(sub Subscription) {
	delete(s.subs, sub)
}

// Upsert inserts or replaces a feature as a committed change. The store
// keeps its own clone and bumps the feature's UpdatedAt.
func (s *Store) Upsert(f *Feature) error {
	if f == nil {
		return ErrNilFeature
	}
	if f.ID == "" {
		return ErrEmptyID
	}

	c := f.Clone()
	c.Meta.UpdatedAt = time.Now()
	s.features[c.ID] = c
	s.publish(Event{Kind: EventUpsert, FeatureID: c.ID, Feature: c})
	return nil
}

// UpsertSilent replaces a feature as an uncommitted live preview. The
// stored clone keeps its previous UpdatedAt and subscribers receive an
// EventPreview instead of an EventUpsert.
func (s *Store) UpsertSilent(f *Feature) error {
	if f == nil {
		return ErrNilFeature
	}
	if f.ID == "" {
		return ErrEmptyID
	}

	c := f.Clone()
	s.features[c.ID] = c
	s.publish(Event{Kind: EventPreview, FeatureID: c.ID, Feature: c})
	return nil
}

// Remove deletes a feature by id. It reports whether the id was present.
func (s *Store) Remove(id string) bool {
	if _, ok := s.features[id]; !ok {
		return false
	}
	delete(s.features, id)
	s.publish(Event{Kind: EventRemove, FeatureID: id})
	return true
}

// Clear removes all features.
func (s *Store) Clear() {
	if len(s.features) == 0 {
		return
	}
	s.features = make(map[string]*Feature)
	s.publish(Event{Kind: EventClear})
}

// Get returns the stored feature for id. Callers must clone before
// mutating; the returned pointer is the store's authoritative copy.
func (s *Store) Get(id string) (*Feature, bool) {
	f, ok := s.features[id]
	return f, ok
}

// Has reports whether id is present.
func (s *Store) Has(id string) bool {
	_, ok := s.features[id]
	return ok
}

// Len returns the number of stored features.
func (s *Store) Len() int {
	return len(s.features)
}

// All returns the stored features ordered by id for deterministic
// iteration.
func (s *Store) All() []*Feature {
	out := make([]*Feature, 0, len(s.features))
	for _, f := range s.features {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// publish delivers an event to all subscribers in subscription order.
func (s *Store) publish(e Event) {
	if len(s.subs) == 0 {
		return
	}
	order := make([]Subscription, 0, len(s.subs))
	for sub := range s.subs {
		order = append(order, sub)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	for _, sub := range order {
		s.subs[sub](e)
	}
}
