// Package firestore adapts the Cloud Firestore client to the docstore.Store
// interface used by the rest of the daemon.
package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/matheus3301/mesa/internal/docstore"
)

// Store wraps a Firestore client.
type Store struct {
	client *fs.Client
}

// Open connects to the given project. credentialsFile may be empty, in which
// case application default credentials apply.
func Open(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := fs.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) GetOne(ctx context.Context, collection, id string) (*docstore.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return &docstore.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *Store) CreateOne(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, translate(data))
	if err != nil {
		return "", fmt.Errorf("create in %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *Store) UpdateOne(ctx context.Context, collection, id string, patch map[string]any) error {
	updates := make([]fs.Update, 0, len(patch))
	for k, v := range translate(patch) {
		updates = append(updates, fs.Update{Path: k, Value: v})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) MergeOne(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, translate(data), fs.MergeAll); err != nil {
		return fmt.Errorf("merge %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) DeleteOne(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) QueryMany(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	iter := s.build(collection, q).Documents(ctx)
	defer iter.Stop()
	var docs []docstore.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		docs = append(docs, docstore.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func (s *Store) Subscribe(ctx context.Context, collection string, q docstore.Query) (<-chan docstore.Snapshot, func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan docstore.Snapshot, 16)
	iter := s.build(collection, q).Snapshots(subCtx)

	go func() {
		defer close(out)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				return
			}
			var docs docstore.Snapshot
			for {
				doc, err := snap.Documents.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					return
				}
				docs = append(docs, docstore.Document{ID: doc.Ref.ID, Data: doc.Data()})
			}
			select {
			case out <- docs:
			case <-subCtx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

func (s *Store) SubscribeDoc(ctx context.Context, collection, id string) (<-chan *docstore.Document, func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan *docstore.Document, 16)
	iter := s.client.Collection(collection).Doc(id).Snapshots(subCtx)

	go func() {
		defer close(out)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				return
			}
			var doc *docstore.Document
			if snap.Exists() {
				doc = &docstore.Document{ID: snap.Ref.ID, Data: snap.Data()}
			}
			select {
			case out <- doc:
			case <-subCtx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) build(collection string, q docstore.Query) fs.Query {
	query := s.client.Collection(collection).Query
	for _, w := range q.Wheres {
		query = query.Where(w.Field, w.Op, w.Value)
	}
	if q.OrderBy != "" {
		dir := fs.Asc
		if q.Desc {
			dir = fs.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

// translate swaps the portable server timestamp sentinel for the client's.
func translate(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if v == docstore.ServerTimestamp {
			out[k] = fs.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}
