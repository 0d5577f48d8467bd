// package models defines the persistent entities of the ingest CLI
package models

import "time"

// Model is an entity stored by a [Repository].
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Repository is the data access contract shared by sqlite-backed stores.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error                    // soft delete
	List(criteria map[string]any) ([]T, error) // newest first
}

var _ Model = (*Run)(nil)
