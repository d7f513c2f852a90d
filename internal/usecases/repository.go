package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/http/dtos"
	"github.com/just-nibble/srs-tracker/internal/repository"
	"github.com/just-nibble/srs-tracker/internal/runlog"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
	"github.com/just-nibble/srs-tracker/pkg/log"
)

const defaultRunsLimit = 50

// RunLister reads the analysis journal.
type RunLister interface {
	List(repo string, limit int) ([]runlog.Run, error)
}

type RepositoryUsecase interface {
	Create(ctx context.Context, user domain.User, input dtos.RepositoryInput) (*domain.Repository, error)
	MyRepositories(ctx context.Context, user domain.User) ([]domain.Repository, error)
	All(ctx context.Context, query dtos.APIPagingDto) (*dtos.MultiRepositoriesResponse, error)
	Details(ctx context.Context, user domain.User, repoID string) (*dtos.RepositoryDetails, error)
	Owner(ctx context.Context, repoID string) (*dtos.RepositoryOwner, error)
	History(ctx context.Context, user domain.User, repoID, kind string, query dtos.APIPagingDto) (*dtos.MultiHistoryResponse, error)
	Runs(ctx context.Context, user domain.User, repoID string, limit int) ([]runlog.Run, error)
}

type repositoryUsecase struct {
	repositoryStore repository.RepositoryStore
	artifacts       ArtifactStore
	runs            RunLister
	log             *log.Log
	now             func() time.Time
}

func NewRepositoryUsecase(repositoryStore repository.RepositoryStore, artifacts ArtifactStore, runs RunLister, log *log.Log) RepositoryUsecase {
	return &repositoryUsecase{
		repositoryStore: repositoryStore,
		artifacts:       artifacts,
		runs:            runs,
		log:             log,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (uc *repositoryUsecase) Create(ctx context.Context, user domain.User, input dtos.RepositoryInput) (*domain.Repository, error) {
	repo, err := domain.NewRepository(strings.TrimSpace(input.Name), user.ID, user.Email, uc.now())
	if err != nil {
		return nil, err
	}

	saved, err := uc.repositoryStore.Create(ctx, *repo)
	if err != nil {
		return nil, err
	}

	uc.log.Repo(saved.Name).WithField("owner", user.ID).Info("repository created")
	return saved, nil
}

func (uc *repositoryUsecase) MyRepositories(ctx context.Context, user domain.User) ([]domain.Repository, error) {
	return uc.repositoryStore.ForUser(ctx, user.ID)
}

func (uc *repositoryUsecase) All(ctx context.Context, query dtos.APIPagingDto) (*dtos.MultiRepositoriesResponse, error) {
	repos, pageInfo, err := uc.repositoryStore.All(ctx, query)
	if err != nil {
		return nil, err
	}
	return &dtos.MultiRepositoriesResponse{
		Repositories: dtos.ToRepositories(repos),
		PageInfo:     pageInfo,
	}, nil
}

func (uc *repositoryUsecase) Details(ctx context.Context, user domain.User, repoID string) (*dtos.RepositoryDetails, error) {
	repo, err := memberRepository(ctx, uc.repositoryStore, user, repoID)
	if err != nil {
		return nil, err
	}

	return &dtos.RepositoryDetails{
		Repository:          dtos.ToRepository(repo),
		TotalActivity:       repo.TotalActivity(),
		ExtractedPath:       uc.artifacts.RequirementsForComparison(repo.Name),
		LatestExtracted:     uc.artifacts.OutputPath(repo.Name, domain.KindSRS),
		LatestExtractedEdit: uc.artifacts.UpdatedRequirementsPath(repo.Name),
	}, nil
}

// Owner is public so non-members can find whom to ask for access.
func (uc *repositoryUsecase) Owner(ctx context.Context, repoID string) (*dtos.RepositoryOwner, error) {
	repo, err := uc.repositoryStore.ByID(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return &dtos.RepositoryOwner{ID: repo.OwnerID, Email: repo.OwnerEmail}, nil
}

func (uc *repositoryUsecase) History(ctx context.Context, user domain.User, repoID, kind string, query dtos.APIPagingDto) (*dtos.MultiHistoryResponse, error) {
	repo, err := memberRepository(ctx, uc.repositoryStore, user, repoID)
	if err != nil {
		return nil, err
	}

	var artifactKind domain.ArtifactKind
	if kind != "" {
		if artifactKind, err = domain.ParseArtifactKind(kind); err != nil {
			return nil, err
		}
	}

	entries, pageInfo, err := uc.repositoryStore.HistoryPage(ctx, repo.ID, artifactKind, query)
	if err != nil {
		return nil, err
	}
	return &dtos.MultiHistoryResponse{History: dtos.ToHistory(entries), PageInfo: pageInfo}, nil
}

func (uc *repositoryUsecase) Runs(ctx context.Context, user domain.User, repoID string, limit int) ([]runlog.Run, error) {
	repo, err := memberRepository(ctx, uc.repositoryStore, user, repoID)
	if err != nil {
		return nil, err
	}
	if uc.runs == nil {
		return []runlog.Run{}, nil
	}
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	return uc.runs.List(repo.Name, limit)
}

// memberRepository loads repoID and checks user may see it.
func memberRepository(ctx context.Context, store repository.RepositoryStore, user domain.User, repoID string) (*domain.Repository, error) {
	repo, err := store.ByID(ctx, repoID)
	if err != nil {
		return nil, err
	}
	if !repo.IsMember(user.ID) {
		return nil, errcodes.ErrNotMember
	}
	return repo, nil
}
