package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound reports that a referenced document does not exist.
var ErrNotFound = errors.New("document not found")

// Error wraps a storage/transport failure. Callers surface it as-is and do
// not retry; cached state stays at the last known-good snapshot.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("repository: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return &Error{Op: op, Err: err}
}

// Repository is typed CRUD over one document type. The lifecycle service
// depends on these instead of raw storage calls; bind one to a transaction
// with WithTx when several writes must land together.
type Repository[T any] struct {
	db *gorm.DB
}

func New[T any](db *gorm.DB) *Repository[T] { return &Repository[T]{db: db} }

// WithTx returns a repository bound to the given transaction handle.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] { return &Repository[T]{db: tx} }

// Get loads a document by id, preloading its line items when the model has any.
func (r *Repository[T]) Get(ctx context.Context, id uint) (*T, error) {
	var doc T
	err := r.db.WithContext(ctx).Preload("Items").First(&doc, id).Error
	if err != nil {
		return nil, wrap("get", err)
	}
	return &doc, nil
}

// List returns all documents, newest first.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	var docs []T
	if err := r.db.WithContext(ctx).Preload("Items").Order("id desc").Find(&docs).Error; err != nil {
		return nil, wrap("list", err)
	}
	return docs, nil
}

// Create persists a new document (and its lines) and fills in generated ids.
func (r *Repository[T]) Create(ctx context.Context, doc *T) error {
	return wrap("create", r.db.WithContext(ctx).Create(doc).Error)
}

// Save writes the document and its associations back in full.
func (r *Repository[T]) Save(ctx context.Context, doc *T) error {
	return wrap("save", r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(doc).Error)
}

// Delete removes a document by id. Deleting a missing id is not an error at
// this layer; lifecycle rules decide what may be deleted.
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	var doc T
	return wrap("delete", r.db.WithContext(ctx).Delete(&doc, id).Error)
}
