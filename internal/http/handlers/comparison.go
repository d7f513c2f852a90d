package handlers

import (
	"net/http"
	"strconv"

	"github.com/just-nibble/srs-tracker/internal/http/dtos"
	"github.com/just-nibble/srs-tracker/internal/usecases"
	"github.com/just-nibble/srs-tracker/pkg/response"
)

type ComparisonHandler struct {
	comparisonUsecase usecases.ComparisonUsecase
}

func NewComparisonHandler(comparisonUsecase usecases.ComparisonUsecase) *ComparisonHandler {
	return &ComparisonHandler{comparisonUsecase: comparisonUsecase}
}

func (h *ComparisonHandler) Compare(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	res, err := h.comparisonUsecase.Compare(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, dtos.ComparisonResponse{
		Record:       dtos.ToComparison(res.Record),
		Results:      res.Raw,
		Unmatched:    res.Unmatched,
		Undocumented: res.Undocumented,
	})
}

func (h *ComparisonHandler) Comparisons(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	records, err := h.comparisonUsecase.Comparisons(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, dtos.ToComparisons(records))
}

func (h *ComparisonHandler) Extracted(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	useUpdated, _ := strconv.ParseBool(r.URL.Query().Get("useUpdated"))
	extracted, err := h.comparisonUsecase.Extracted(r.Context(), user, id, useUpdated)
	if err != nil {
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, extracted)
}
