package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/just-nibble/srs-tracker/internal/analysis"
	"github.com/just-nibble/srs-tracker/internal/domain"
	"github.com/just-nibble/srs-tracker/internal/http/dtos"
	"github.com/just-nibble/srs-tracker/internal/http/middleware"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
	"github.com/just-nibble/srs-tracker/pkg/response"
)

func getPagingInfo(r *http.Request) dtos.APIPagingDto {
	var paging dtos.APIPagingDto

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	paging.Limit = limit
	paging.Page = page
	paging.Sort = r.URL.Query().Get("sort")
	paging.Direction = r.URL.Query().Get("direction")

	return paging
}

// currentUser writes 401 and returns false when the request carries no user.
func currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		response.Error(w, errcodes.ErrMissingToken, nil)
		return domain.User{}, false
	}
	return user, true
}

func repoID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Repository id is required")
		return "", false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeError attaches analysis diagnostics when err carries them.
func writeError(w http.ResponseWriter, err error) {
	var failure *analysis.Failure
	if errors.As(err, &failure) {
		response.Error(w, err, failure.Details())
		return
	}
	response.Error(w, err, nil)
}
