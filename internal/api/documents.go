package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/onepage/internal/apperr"
)

// multipartSlack leaves room for form framing on top of the file limit.
const multipartSlack = 1 << 20

// UploadDocument handles POST /api/documents (multipart/form-data, field
// "file", optional field "replace" naming the session to discard).
//
// The document is checked against the upload allow-list and size limit
// before it is sent to the analyzer. The analyzer's payload is stored in the
// library and a canvas is opened on it.
//
//	@Summary		Analyse a strategy document and open a canvas on it
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Strategy document"
//	@Param			replace	formData	string	false	"Canvas to discard"
//	@Success		201		{object}	board.View
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		writeError(w, "upload document", fmt.Errorf("analyzer disabled: %w", apperr.ErrUpstream))
		return
	}
	limit := h.analyzer.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartSlack)

	if err := r.ParseMultipartForm(limit); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()
	replace := r.FormValue("replace")

	if err := h.analyzer.ValidateUpload(header.Filename, header.Size); err != nil {
		writeError(w, "upload document", err)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	a, err := h.analyzer.Analyze(r.Context(), header.Filename, data)
	if err != nil {
		slog.Warn("document analysis failed", slog.String("file", header.Filename), slog.String("error", err.Error()))
		h.board.Discard(replace)
		writeError(w, "analyze document", err)
		return
	}
	v, err := h.board.Import(r.Context(), a, header.Filename, replace)
	if err != nil {
		writeError(w, "import analysis", err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}
