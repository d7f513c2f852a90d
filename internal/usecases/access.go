package usecases

import (
	"context"
	"time"

	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/http/dtos"
	"github.com/just-nibble/srs-tracker/internal/repository"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
	"github.com/just-nibble/srs-tracker/pkg/log"
)

type AccessUsecase interface {
	RequestAccess(ctx context.Context, user domain.User, repoID string, input dtos.AccessRequestInput) (*domain.AccessRequest, error)
	HandleRequest(ctx context.Context, user domain.User, repoID string, input dtos.HandleRequestInput) (*domain.AccessRequest, error)
	Requests(ctx context.Context, user domain.User, repoID string) ([]domain.AccessRequest, error)
}

type accessUsecase struct {
	repositoryStore repository.RepositoryStore
	log             *log.Log
	now             func() time.Time
}

func NewAccessUsecase(repositoryStore repository.RepositoryStore, log *log.Log) AccessUsecase {
	return &accessUsecase{
		repositoryStore: repositoryStore,
		log:             log,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// RequestAccess files a membership request for the caller. A body naming a
// different user is refused; requests are only made for oneself.
func (uc *accessUsecase) RequestAccess(ctx context.Context, user domain.User, repoID string, input dtos.AccessRequestInput) (*domain.AccessRequest, error) {
	if input.UserID != "" && input.UserID != user.ID {
		return nil, errcodes.ErrForbidden
	}
	email := input.UserEmail
	if email == "" {
		email = user.Email
	}

	var created domain.AccessRequest
	repo, err := uc.repositoryStore.Update(ctx, repoID, func(repo *domain.Repository) error {
		req, err := repo.RequestAccess(user.ID, email, uc.now())
		created = req
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Repo(repo.Name).WithField("user", user.ID).Info("access requested")
	return &created, nil
}

func (uc *accessUsecase) HandleRequest(ctx context.Context, user domain.User, repoID string, input dtos.HandleRequestInput) (*domain.AccessRequest, error) {
	if input.RequestID == "" {
		return nil, errcodes.ErrRequestNotFound
	}

	var decided domain.AccessRequest
	repo, err := uc.repositoryStore.Update(ctx, repoID, func(repo *domain.Repository) error {
		req, err := repo.Decide(input.RequestID, domain.Decision(input.Decision), user.ID, uc.now())
		decided = req
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Repo(repo.Name).WithField("request", decided.ID).WithField("status", decided.Status).Info("access request processed")
	return &decided, nil
}

// Requests lists every request of a repository. Owner only.
func (uc *accessUsecase) Requests(ctx context.Context, user domain.User, repoID string) ([]domain.AccessRequest, error) {
	repo, err := uc.repositoryStore.ByID(ctx, repoID)
	if err != nil {
		return nil, err
	}
	if !repo.IsOwner(user.ID) {
		return nil, errcodes.ErrNotOwner
	}
	return repo.Requests, nil
}
