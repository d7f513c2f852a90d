package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/just-nibble/srs-tracker/internal/analysis"
	"github.com/just-nibble/srs-tracker/internal/http/dtos"
	"github.com/just-nibble/srs-tracker/internal/usecases"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
	"github.com/just-nibble/srs-tracker/pkg/response"
)

// multipartOverhead is allowed on top of the file size limit for the rest
// of the form.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	uploadUsecase usecases.UploadUsecase
	maxBytes      int64
}

func NewUploadHandler(uploadUsecase usecases.UploadUsecase, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploadUsecase: uploadUsecase, maxBytes: maxBytes}
}

// Upload accepts a multipart form with "file" and "fileType", or a JSON
// body {fileType, githubUrl}. It answers once the analysis has finished.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := repoID(w, r)
	if !ok {
		return
	}

	input, cleanup, err := h.readInput(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanup()

	res, err := h.uploadUsecase.Upload(r.Context(), user, id, input)
	if err != nil {
		var failure *analysis.Failure
		if errors.As(err, &failure) && res != nil {
			details := failure.Details()
			details["entry"] = dtos.ToHistoryEntry(res.Entry)
			response.Error(w, err, details)
			return
		}
		writeError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, dtos.UploadResponse{
		Message:    "File uploaded and processed successfully",
		Entry:      dtos.ToHistoryEntry(res.Entry),
		OutputPath: res.Outcome.OutputPath,
		Stdout:     res.Outcome.Stdout,
	})
}

func (h *UploadHandler) readInput(w http.ResponseWriter, r *http.Request) (usecases.UploadInput, func(), error) {
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body dtos.GitHubUploadInput
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return usecases.UploadInput{}, noop, fmt.Errorf("%w: invalid request body", errcodes.ErrValidation)
		}
		return usecases.UploadInput{Kind: body.FileType, GitHubURL: body.GitHubURL}, noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return usecases.UploadInput{}, noop, errcodes.ErrFileTooLarge
		}
		return usecases.UploadInput{}, noop, errcodes.ErrNoFileProvided
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	input := usecases.UploadInput{
		Kind:      r.FormValue("fileType"),
		GitHubURL: r.FormValue("githubUrl"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return input, cleanup, nil
	case err != nil:
		cleanup()
		return usecases.UploadInput{}, noop, errcodes.ErrNoFileProvided
	}

	input.File = file
	input.FileName = header.Filename
	input.Size = header.Size
	return input, func() {
		_ = file.Close()
		cleanup()
	}, nil
}
