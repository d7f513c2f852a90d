package errcodes

import (
	"errors"
	"fmt"
	"net/http"
)

// Categories. Every error surfaced to a caller wraps exactly one of these.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrMissingArtifact = errors.New("missing artifact")
	ErrAnalysis        = errors.New("analysis failed")
	ErrIO              = errors.New("io error")
)

var (
	ErrContextCancelled = errors.New("context cancelled")

	ErrNoRecordFound        = fmt.Errorf("%w: no record found", ErrNotFound)
	ErrRepoNotFound         = fmt.Errorf("%w: repository not found", ErrNotFound)
	ErrRequestNotFound      = fmt.Errorf("%w: access request not found", ErrNotFound)
	ErrHistoryEntryNotFound = fmt.Errorf("%w: history entry not found", ErrNotFound)
	ErrExtractedNotFound    = fmt.Errorf("%w: extracted requirements file not found", ErrNotFound)

	ErrRepoAlreadyExists = fmt.Errorf("%w: repository name already exists", ErrConflict)
	ErrAlreadyMember     = fmt.Errorf("%w: user is already a member", ErrConflict)
	ErrDuplicatePending  = fmt.Errorf("%w: request already pending", ErrConflict)
	ErrAlreadyProcessed  = fmt.Errorf("%w: request already processed", ErrConflict)

	ErrInvalidRepositoryName = fmt.Errorf("%w: invalid repository name", ErrValidation)
	ErrInvalidFileType       = fmt.Errorf("%w: invalid file type for source code upload", ErrValidation)
	ErrInvalidArtifactKind   = fmt.Errorf("%w: fileType must be srs or sourceCode", ErrValidation)
	ErrFileTooLarge          = fmt.Errorf("%w: uploaded file exceeds size limit", ErrValidation)
	ErrNoFileProvided        = fmt.Errorf("%w: no file or GitHub URL provided", ErrValidation)
	ErrFileAndGitHubURL      = fmt.Errorf("%w: provide either a file or a GitHub URL, not both", ErrValidation)
	ErrInvalidGitHubURL      = fmt.Errorf("%w: please provide a valid GitHub repository URL", ErrValidation)
	ErrGitHubOnlySourceCode  = fmt.Errorf("%w: GitHub URL can only be used for source code upload", ErrValidation)
	ErrInvalidDecision       = fmt.Errorf("%w: invalid decision value", ErrValidation)
	ErrInvalidHistoryAction  = fmt.Errorf("%w: invalid history action", ErrValidation)
	ErrInvalidUserID         = fmt.Errorf("%w: invalid user id", ErrValidation)

	ErrNotOwner  = fmt.Errorf("%w: only the repository owner can perform this action", ErrForbidden)
	ErrNotMember = fmt.Errorf("%w: access denied", ErrForbidden)

	ErrMissingRequirements = fmt.Errorf("%w: requirements extraction output not found, upload an SRS first", ErrMissingArtifact)
	ErrMissingCodeAnalysis = fmt.Errorf("%w: source code analysis output not found, upload source code first", ErrMissingArtifact)

	ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	ErrMissingToken = fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
)

// HTTPStatus maps an error onto the status code returned to clients.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrMissingArtifact):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a stable machine readable code for the error's category.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrMissingArtifact):
		return "MISSING_ARTIFACT"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrAnalysis):
		return "ANALYSIS_FAILED"
	case errors.Is(err, ErrIO):
		return "IO_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
