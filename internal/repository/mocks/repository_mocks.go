package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/http/dtos"
	"github.com/just-nibble/srs-tracker/internal/repository"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
)

// RepositoryStore mock
type RepositoryStore struct {
	mock.Mock
	mu sync.Mutex
}

func (m *RepositoryStore) Create(ctx context.Context, repo domain.Repository) (*domain.Repository, error) {
	args := m.Called(ctx, repo)
	return repoArg(args, 0), args.Error(1)
}

func (m *RepositoryStore) ByID(ctx context.Context, id string) (*domain.Repository, error) {
	args := m.Called(ctx, id)
	return repoArg(args, 0), args.Error(1)
}

func (m *RepositoryStore) ByName(ctx context.Context, name string) (*domain.Repository, error) {
	args := m.Called(ctx, name)
	return repoArg(args, 0), args.Error(1)
}

func (m *RepositoryStore) ForUser(ctx context.Context, userID string) ([]domain.Repository, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Repository), args.Error(1)
}

func (m *RepositoryStore) All(ctx context.Context, query dtos.APIPagingDto) ([]domain.Repository, dtos.PagingInfo, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]domain.Repository), args.Get(1).(dtos.PagingInfo), args.Error(2)
}

func (m *RepositoryStore) HistoryPage(ctx context.Context, repoID string, kind domain.ArtifactKind, query dtos.APIPagingDto) ([]domain.HistoryEntry, dtos.PagingInfo, error) {
	args := m.Called(ctx, repoID, kind, query)
	return args.Get(0).([]domain.HistoryEntry), args.Get(1).(dtos.PagingInfo), args.Error(2)
}

// Update applies fn to the repository given to Return, so tests can watch
// the aggregate change. Calls are serialised like the real store.
func (m *RepositoryStore) Update(ctx context.Context, id string, fn repository.MutateFunc) (*domain.Repository, error) {
	args := m.Called(ctx, id, fn)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	repo := repoArg(args, 0)
	if repo == nil {
		return nil, errcodes.ErrRepoNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := fn(repo); err != nil {
		return nil, err
	}
	return repo, nil
}

// Snapshot reads repo while no Update is running.
func (m *RepositoryStore) Snapshot(repo *domain.Repository) domain.Repository {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *repo
}

func repoArg(args mock.Arguments, i int) *domain.Repository {
	repo, _ := args.Get(i).(*domain.Repository)
	return repo
}
