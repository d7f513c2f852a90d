package handlers

import (
	"net/http"

	"github.com/just-nibble/srs-tracker/internal/http/dtos"
	"github.com/just-nibble/srs-tracker/internal/usecases"
	"github.com/just-nibble/srs-tracker/pkg/response"
)

type AccessHandler struct {
	accessUsecase usecases.AccessUsecase
}

func NewAccessHandler(accessUsecase usecases.AccessUsecase) *AccessHandler {
	return &AccessHandler{accessUsecase: accessUsecase}
}

func (h *AccessHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	var req dtos.AccessRequestInput
	if !decode(w, r, &req) {
		return
	}

	created, err := h.accessUsecase.RequestAccess(r.Context(), user, id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusCreated, dtos.ToAccessRequest(*created))
}

func (h *AccessHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	var req dtos.HandleRequestInput
	if !decode(w, r, &req) {
		return
	}

	decided, err := h.accessUsecase.HandleRequest(r.Context(), user, id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, dtos.ToAccessRequest(*decided))
}

func (h *AccessHandler) Requests(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	reqs, err := h.accessUsecase.Requests(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, dtos.ToAccessRequests(reqs))
}
