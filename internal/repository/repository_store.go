package repository

import (
	"context"

	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/http/dtos"
)

// MutateFunc changes a loaded aggregate. Returning an error discards the change.
type MutateFunc func(repo *domain.Repository) error

// RepositoryStore defines an interface for database operations
type RepositoryStore interface {
	Create(ctx context.Context, repo domain.Repository) (*domain.Repository, error)
	ByID(ctx context.Context, id string) (*domain.Repository, error)
	ByName(ctx context.Context, name string) (*domain.Repository, error)
	ForUser(ctx context.Context, userID string) ([]domain.Repository, error)
	All(ctx context.Context, query dtos.APIPagingDto) ([]domain.Repository, dtos.PagingInfo, error)
	HistoryPage(ctx context.Context, repoID string, kind domain.ArtifactKind, query dtos.APIPagingDto) ([]domain.HistoryEntry, dtos.PagingInfo, error)

	// Update runs fn on the current state of repository id and saves the
	// result atomically. Concurrent updates of one repository are applied
	// one at a time.
	Update(ctx context.Context, id string, fn MutateFunc) (*domain.Repository, error)
}
