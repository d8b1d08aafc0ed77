// Package memory is an in-process implementation of docstore.Store used by
// tests and the offline "memory" backend mode. It mimics the hosted
// backend's observable behavior: full snapshots on every mutation, an
// initial snapshot on subscribe, server-assigned timestamps.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/mesa/internal/docstore"
)

var errClosed = fmt.Errorf("store closed")

// Store implements docstore.Store with mutex-guarded maps.
type Store struct {
	mu       sync.Mutex
	colls    map[string]map[string]map[string]any
	subs     map[int]*subscriber
	docSubs  map[int]*docSubscriber
	nextID   int
	now      func() time.Time
	closed   bool
}

type subscriber struct {
	collection string
	query      docstore.Query
	ch         chan docstore.Snapshot
}

type docSubscriber struct {
	collection string
	id         string
	ch         chan *docstore.Document
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		colls:   make(map[string]map[string]map[string]any),
		subs:    make(map[int]*subscriber),
		docSubs: make(map[int]*docSubscriber),
		now:     time.Now,
	}
}

// SetClock overrides the clock used for server timestamps, for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) GetOne(_ context.Context, collection, id string) (*docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.colls[collection][id]
	if !ok {
		return nil, nil
	}
	return &docstore.Document{ID: id, Data: cloneData(data)}, nil
}

func (s *Store) CreateOne(_ context.Context, collection string, data map[string]any) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", errClosed
	}
	id := uuid.New().String()
	s.put(collection, id, data)
	s.mu.Unlock()
	s.notify(collection, id)
	return id, nil
}

func (s *Store) UpdateOne(_ context.Context, collection, id string, patch map[string]any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	existing, ok := s.colls[collection][id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update %s/%s: document not found", collection, id)
	}
	merged := cloneData(existing)
	for k, v := range patch {
		merged[k] = s.resolve(v)
	}
	s.colls[collection][id] = merged
	s.mu.Unlock()
	s.notify(collection, id)
	return nil
}

func (s *Store) MergeOne(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	existing := s.colls[collection][id]
	merged := cloneData(existing)
	for k, v := range data {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = s.resolve(v)
	}
	if s.colls[collection] == nil {
		s.colls[collection] = make(map[string]map[string]any)
	}
	s.colls[collection][id] = merged
	s.mu.Unlock()
	s.notify(collection, id)
	return nil
}

func (s *Store) DeleteOne(_ context.Context, collection, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	delete(s.colls[collection], id)
	s.mu.Unlock()
	s.notify(collection, id)
	return nil
}

func (s *Store) QueryMany(_ context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evaluate(collection, q), nil
}

func (s *Store) Subscribe(_ context.Context, collection string, q docstore.Query) (<-chan docstore.Snapshot, func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, errClosed
	}
	id := s.nextID
	s.nextID++
	sub := &subscriber{collection: collection, query: q, ch: make(chan docstore.Snapshot, 16)}
	s.subs[id] = sub
	// Initial snapshot, like the hosted backend.
	sub.ch <- docstore.Snapshot(s.evaluate(collection, q))
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if cur, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(cur.ch)
		}
		s.mu.Unlock()
	}
	return sub.ch, cancel, nil
}

func (s *Store) SubscribeDoc(_ context.Context, collection, id string) (<-chan *docstore.Document, func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, errClosed
	}
	subID := s.nextID
	s.nextID++
	sub := &docSubscriber{collection: collection, id: id, ch: make(chan *docstore.Document, 16)}
	s.docSubs[subID] = sub
	if data, ok := s.colls[collection][id]; ok {
		sub.ch <- &docstore.Document{ID: id, Data: cloneData(data)}
	} else {
		sub.ch <- nil
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if cur, ok := s.docSubs[subID]; ok {
			delete(s.docSubs, subID)
			close(cur.ch)
		}
		s.mu.Unlock()
	}
	return sub.ch, cancel, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub.ch)
	}
	for id, sub := range s.docSubs {
		delete(s.docSubs, id)
		close(sub.ch)
	}
	return nil
}

// put stores a resolved copy of data. Caller holds the lock.
func (s *Store) put(collection, id string, data map[string]any) {
	if s.colls[collection] == nil {
		s.colls[collection] = make(map[string]map[string]any)
	}
	resolved := make(map[string]any, len(data))
	for k, v := range data {
		resolved[k] = s.resolve(v)
	}
	s.colls[collection][id] = resolved
}

// resolve replaces the server timestamp sentinel. Caller holds the lock.
func (s *Store) resolve(v any) any {
	if v == docstore.ServerTimestamp {
		return s.now()
	}
	return v
}

// evaluate runs a query against current state. Caller holds the lock.
func (s *Store) evaluate(collection string, q docstore.Query) []docstore.Document {
	var docs []docstore.Document
	for id, data := range s.colls[collection] {
		if matches(data, q.Wheres) {
			docs = append(docs, docstore.Document{ID: id, Data: cloneData(data)})
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			less := lessValue(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
			if q.Desc {
				return !less
			}
			return less
		})
	} else {
		// Deterministic order for callers that do not sort.
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

// notify re-delivers snapshots to every affected subscriber.
func (s *Store) notify(collection, docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.collection != collection {
			continue
		}
		snap := docstore.Snapshot(s.evaluate(collection, sub.query))
		select {
		case sub.ch <- snap:
		default:
		}
	}
	for _, sub := range s.docSubs {
		if sub.collection != collection || sub.id != docID {
			continue
		}
		var doc *docstore.Document
		if data, ok := s.colls[collection][docID]; ok {
			doc = &docstore.Document{ID: docID, Data: cloneData(data)}
		}
		select {
		case sub.ch <- doc:
		default:
		}
	}
}

func matches(data map[string]any, wheres []docstore.Where) bool {
	for _, w := range wheres {
		if w.Op != "==" {
			return false
		}
		if data[w.Field] != w.Value {
			return false
		}
	}
	return true
}

func lessValue(a, b any) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	}
	return false
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
