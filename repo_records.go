package wiki

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Store is the persistence contract for an entity keyed by a store assigned
// integer id. Reads and writes that find nothing return (nil, nil); errors
// are reserved for store failures.
type Store[T any] interface {
	Create(ctx context.Context, record *T) (*T, error)
	List(ctx context.Context) ([]*T, error)
	GetByID(ctx context.Context, id int64) (*T, error)
	UpdateByID(ctx context.Context, id int64, record *T, columns []string) (*T, error)
	DeleteByID(ctx context.Context, id int64) (*T, error)
}

// Records is the bun backed Store. Every model it serves must have an "id"
// primary key column.
type Records[T any] struct {
	db *bun.DB
}

var _ Store[Factor] = (*Records[Factor])(nil)

// NewRecords returns a Store over db for model T
func NewRecords[T any](db *bun.DB) *Records[T] {
	return &Records[T]{db: db}
}

func (r *Records[T]) Create(ctx context.Context, record *T) (*T, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *Records[T]) CreateTx(ctx context.Context, tx bun.IDB, record *T) (*T, error) {
	if _, err := tx.NewInsert().Model(record).Returning("*").Exec(ctx); err != nil {
		return nil, classifyStoreError(err)
	}
	return record, nil
}

func (r *Records[T]) List(ctx context.Context) ([]*T, error) {
	records := make([]*T, 0)
	err := r.db.NewSelect().
		Model(&records).
		Order("id ASC").
		Scan(ctx)
	if err != nil && !IsRecordNotFound(err) {
		return nil, classifyStoreError(err)
	}
	return records, nil
}

func (r *Records[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *Records[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*T, error) {
	record := new(T)
	err := tx.NewSelect().
		Model(record).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, classifyStoreError(err)
	}
	return record, nil
}

// UpdateByID writes the given columns of record to the row with id and
// returns the fresh row.
func (r *Records[T]) UpdateByID(ctx context.Context, id int64, record *T, columns []string) (*T, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("update %d: no columns given", id)
	}

	var updated *T
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(record).
			Column(columns...).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return classifyStoreError(err)
		}

		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return nil
		}

		updated, err = r.GetByIDTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteByID removes the row with id and returns it as it was
func (r *Records[T]) DeleteByID(ctx context.Context, id int64) (*T, error) {
	var deleted *T
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := r.GetByIDTx(ctx, tx, id)
		if err != nil || record == nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*T)(nil)).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return classifyStoreError(err)
		}

		deleted = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
