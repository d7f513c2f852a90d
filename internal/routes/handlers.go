package routes

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/just-nibble/srs-tracker/internal/http/handlers"
	"github.com/just-nibble/srs-tracker/internal/http/middleware"
	"github.com/just-nibble/srs-tracker/pkg/log"
	"github.com/just-nibble/srs-tracker/pkg/response"
)

type Handlers struct {
	Repository *handlers.RepositoryHandler
	Access     *handlers.AccessHandler
	Upload     *handlers.UploadHandler
	Comparison *handlers.ComparisonHandler
}

func NewRouter(h Handlers, jwtSecret []byte, logger *log.Log) http.Handler {
	router := http.NewServeMux()
	auth := middleware.Auth(jwtSecret)
	protected := func(fn http.HandlerFunc) http.Handler { return auth(fn) }

	router.Handle("POST /repos/create", protected(h.Repository.CreateRepository))
	router.Handle("GET /repos/my-repos", protected(h.Repository.MyRepositories))
	router.HandleFunc("GET /repos/all", h.Repository.FetchAllRepositories)
	router.Handle("GET /repos/{id}/details", protected(h.Repository.Details))
	router.HandleFunc("GET /repos/{id}/owner", h.Repository.Owner)
	router.Handle("GET /repos/{id}/history", protected(h.Repository.History))
	router.Handle("GET /repos/{id}/runs", protected(h.Repository.Runs))

	router.Handle("POST /repos/{id}/upload", protected(h.Upload.Upload))

	router.Handle("POST /repos/{id}/compare", protected(h.Comparison.Compare))
	router.Handle("GET /repos/{id}/comparisons", protected(h.Comparison.Comparisons))
	router.Handle("GET /repos/{id}/extracted", protected(h.Comparison.Extracted))

	router.Handle("POST /repos/{id}/request-access", protected(h.Access.RequestAccess))
	router.Handle("POST /repos/{id}/handle-request", protected(h.Access.HandleRequest))
	router.Handle("GET /repos/{id}/requests", protected(h.Access.Requests))

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		response.SuccessResponse(w, http.StatusOK, "ok")
	})
	// Serve Swagger documentation
	router.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	return middleware.Chain(router, middleware.Recovery(logger), middleware.Logging(logger))
}
