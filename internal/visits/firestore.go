package visits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/Team-synvo/jb-ai/internal/platform/firestore"
)

const countersCollection = "counters"

type counterDocument struct {
	CurrentValue int64     `firestore:"currentValue"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// FirestoreRepository keeps each counter in its own document and increments it transactionally.
type FirestoreRepository struct {
	provider *pfirestore.Provider
	txOpts   []pfirestore.TxOption
	now      func() time.Time
}

// NewFirestoreRepository builds the repository. txOpts apply to every increment transaction.
func NewFirestoreRepository(provider *pfirestore.Provider, txOpts ...pfirestore.TxOption) (*FirestoreRepository, error) {
	if provider == nil {
		return nil, errors.New("visits: firestore repository requires a provider")
	}
	return &FirestoreRepository{provider: provider, txOpts: txOpts, now: time.Now}, nil
}

func (r *FirestoreRepository) doc(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(countersCollection).Doc(id), nil
}

func (r *FirestoreRepository) Increment(ctx context.Context, counterID string) (int64, error) {
	const op = "visits.firestore.increment"
	id, err := validCounterID(op, counterID)
	if err != nil {
		return 0, err
	}

	var next int64
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.doc(ctx, id)
		if err != nil {
			return err
		}

		snap, err := tx.Get(ref)
		switch status.Code(err) {
		case codes.NotFound:
			next = 1
			return tx.Create(ref, counterDocument{CurrentValue: next, UpdatedAt: r.now().UTC()})
		case codes.OK:
		default:
			return err
		}

		var doc counterDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode counter %s: %w", id, err)
		}
		next = doc.CurrentValue + 1
		return tx.Set(ref, counterDocument{CurrentValue: next, UpdatedAt: r.now().UTC()})
	}, r.txOpts...)
	if err != nil {
		return 0, storageError(op, pfirestore.WrapError(op, err))
	}
	return next, nil
}

func (r *FirestoreRepository) Total(ctx context.Context, counterID string) (int64, error) {
	const op = "visits.firestore.total"
	id, err := validCounterID(op, counterID)
	if err != nil {
		return 0, err
	}

	ref, err := r.doc(ctx, id)
	if err != nil {
		return 0, storageError(op, err)
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, storageError(op, pfirestore.WrapError(op, err))
	}

	var doc counterDocument
	if err := snap.DataTo(&doc); err != nil {
		return 0, storageError(op, fmt.Errorf("decode counter %s: %w", id, err))
	}
	return doc.CurrentValue, nil
}
