package handlers

import (
	"net/http"
	"strconv"

	"github.com/just-nibble/srs-tracker/internal/http/dtos"
	"github.com/just-nibble/srs-tracker/internal/usecases"
	"github.com/just-nibble/srs-tracker/pkg/response"
)

type RepositoryHandler struct {
	repositoryUsecase usecases.RepositoryUsecase
}

func NewRepositoryHandler(repositoryUsecase usecases.RepositoryUsecase) *RepositoryHandler {
	return &RepositoryHandler{
		repositoryUsecase: repositoryUsecase,
	}
}

func (rh RepositoryHandler) CreateRepository(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dtos.RepositoryInput
	if !decode(w, r, &req) {
		return
	}

	repo, err := rh.repositoryUsecase.Create(r.Context(), user, req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusCreated, dtos.ToRepository(repo))
}

func (rh RepositoryHandler) MyRepositories(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	repos, err := rh.repositoryUsecase.MyRepositories(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, dtos.ToRepositories(repos))
}

func (rh RepositoryHandler) FetchAllRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := rh.repositoryUsecase.All(r.Context(), getPagingInfo(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, repos)
}

func (rh RepositoryHandler) Details(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	details, err := rh.repositoryUsecase.Details(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, details)
}

func (rh RepositoryHandler) Owner(w http.ResponseWriter, r *http.Request) {
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	owner, err := rh.repositoryUsecase.Owner(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, owner)
}

func (rh RepositoryHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	history, err := rh.repositoryUsecase.History(r.Context(), user, id, r.URL.Query().Get("kind"), getPagingInfo(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, history)
}

func (rh RepositoryHandler) Runs(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := rh.repositoryUsecase.Runs(r.Context(), user, id, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, dtos.ToRunsResponse(runs))
}
