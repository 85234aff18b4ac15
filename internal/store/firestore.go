package store

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore talks to Cloud Firestore. Equality filters combined with
// another filter or an order need a composite index there; missing ones
// surface as ErrIndexRequired.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) All(ctx context.Context, collection string) ([]Doc, error) {
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, wrap("all", collection, firestoreErr(err))
	}
	return snapsToDocs(snaps), nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Doc, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return Doc{}, wrap("get", collection, firestoreErr(err))
	}
	return Doc{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, q Query) ([]Doc, error) {
	query := s.client.Collection(collection).Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, wrap("query", collection, firestoreErr(err))
	}
	return snapsToDocs(snaps), nil
}

func (s *FirestoreStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", wrap("add", collection, firestoreErr(err))
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, set map[string]any) error {
	updates := make([]firestore.Update, 0, len(set))
	for k, v := range set {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return wrap("update", collection, firestoreErr(err))
	}
	return nil
}

func (s *FirestoreStore) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	updates := []firestore.Update{{FieldPath: firestore.FieldPath{field}, Value: firestore.Increment(delta)}}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return wrap("increment", collection, firestoreErr(err))
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return wrap("delete", collection, firestoreErr(err))
}

func (s *FirestoreStore) Subscribe(ctx context.Context, collection string, fn func([]Doc)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	it := s.client.Collection(collection).Snapshots(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			snap, err := it.Next()
			if err != nil {
				// Canceled context, stopped iterator or a broken stream all end delivery.
				return
			}
			snaps, err := snap.Documents.GetAll()
			if err != nil {
				continue
			}
			fn(snapsToDocs(snaps))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			it.Stop()
			wg.Wait()
		})
	}, nil
}

func snapsToDocs(snaps []*firestore.DocumentSnapshot) []Doc {
	docs := make([]Doc, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Doc{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs
}

func firestoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, iterator.Done) {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.FailedPrecondition:
		return errors.Join(ErrIndexRequired, err)
	}
	return err
}
