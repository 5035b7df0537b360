package wiki

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ResourceService runs create, list, get, delete and update for one entity
// type and translates store outcomes into the domain error taxonomy.
type ResourceService[T any, C CreateInput[T], P Patch[T]] struct {
	name   string
	store  Store[T]
	logger Logger
}

// NewResourceService returns a service for the entity called name (e.g.
// "factor") backed by store.
func NewResourceService[T any, C CreateInput[T], P Patch[T]](name string, store Store[T]) *ResourceService[T, C, P] {
	return &ResourceService[T, C, P]{
		name:   strings.ToLower(name),
		store:  store,
		logger: defLogger{},
	}
}

func (s *ResourceService[T, C, P]) WithLogger(l Logger) *ResourceService[T, C, P] {
	s.logger = resolveLogger(l)
	return s
}

// Name is the lowercase entity name
func (s *ResourceService[T, C, P]) Name() string {
	return s.name
}

func (s *ResourceService[T, C, P]) title() string {
	if s.name == "" {
		return s.name
	}
	return strings.ToUpper(s.name[:1]) + s.name[1:]
}

// Create persists input and returns the stored entity with its new id
func (s *ResourceService[T, C, P]) Create(ctx context.Context, input C) (*T, error) {
	if err := input.Validate(); err != nil {
		return nil, validationFailure(err)
	}

	record, err := s.store.Create(ctx, input.Record())
	if err != nil {
		if errors.Is(err, ErrStoreMissingValue) {
			return nil, NewValidationError("Missing required value", err)
		}
		s.logger.Error("resource create failed", "resource", s.name, "error", err)
		return nil, NewDatabaseError(fmt.Sprintf("Unknown issue during %s creation", s.name), err)
	}
	return record, nil
}

// List returns every entity in id order
func (s *ResourceService[T, C, P]) List(ctx context.Context) ([]*T, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("resource list failed", "resource", s.name, "error", err)
		return nil, NewDatabaseError(fmt.Sprintf("Issue retrieving all %ss", s.name), err)
	}
	return records, nil
}

// GetByID returns the entity with id or a NotFound error
func (s *ResourceService[T, C, P]) GetByID(ctx context.Context, id int64) (*T, error) {
	if id <= 0 {
		return nil, NewNotFoundError(fmt.Sprintf("%s with ID: %d not found", s.title(), id))
	}

	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("resource get failed", "resource", s.name, "id", id, "error", err)
		return nil, NewDatabaseError(fmt.Sprintf("Issue retrieving %s by ID", s.name), err)
	}

	if record == nil {
		return nil, NewNotFoundError(fmt.Sprintf("%s with ID: %d not found", s.title(), id))
	}
	return record, nil
}

// DeleteByID removes the entity and returns it as it was
func (s *ResourceService[T, C, P]) DeleteByID(ctx context.Context, id int64) (*T, error) {
	if id <= 0 {
		return nil, NewValidationError(fmt.Sprintf("No ID provided for %s deletion", s.name), nil)
	}

	record, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStoreMissingValue) {
			return nil, NewValidationError("Missing required value", err)
		}
		s.logger.Error("resource delete failed", "resource", s.name, "id", id, "error", err)
		return nil, NewDatabaseError(fmt.Sprintf("Issue during %s deletion", s.name), err)
	}

	if record == nil {
		return nil, NewDeletionError(fmt.Sprintf("%s Not Found - Deletion Failed", s.title()))
	}
	return record, nil
}

// UpdateByID applies patch to the entity with id. An empty patch or id is
// rejected before the store is touched.
func (s *ResourceService[T, C, P]) UpdateByID(ctx context.Context, id int64, patch P) (*T, error) {
	if patch.IsEmpty() {
		return nil, NewValidationError(fmt.Sprintf("No data provided for %s update", s.name), nil)
	}

	if id <= 0 {
		return nil, NewValidationError(fmt.Sprintf("No ID provided for %s update", s.name), nil)
	}

	if err := patch.Validate(); err != nil {
		return nil, validationFailure(err)
	}

	record := new(T)
	columns := patch.Apply(record)

	updated, err := s.store.UpdateByID(ctx, id, record, columns)
	if err != nil {
		if errors.Is(err, ErrStoreMissingValue) {
			return nil, NewValidationError("Missing required value", err)
		}
		s.logger.Error("resource update failed", "resource", s.name, "id", id, "error", err)
		return nil, NewDatabaseError(fmt.Sprintf("Issue during %s update", s.name), err)
	}

	if updated == nil {
		return nil, NewUpdateError(fmt.Sprintf("%s update failed or %s not found", s.title(), s.name))
	}
	return updated, nil
}

func validationFailure(err error) *Error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs.Error(), err)
	}
	return NewValidationError("Missing required value", err)
}
