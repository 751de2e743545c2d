package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/onepage/internal/analyzer"
	"github.com/starford/onepage/internal/board"
	"github.com/starford/onepage/internal/index"
)

// Handler holds API route handlers.
type Handler struct {
	board    *board.Service
	catalog  index.Catalogue
	analyzer *analyzer.Client
}

// NewHandler creates a new Handler. catalog and an may be nil; the routes
// that need them then answer 404 and 502 respectively.
func NewHandler(svc *board.Service, catalog index.Catalogue, an *analyzer.Client) *Handler {
	return &Handler{board: svc, catalog: catalog, analyzer: an}
}

// ListAnalyses handles GET /api/analyses.
//
//	@Summary		List analyses in the library
//	@Tags			library
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	AnalysisListResponse
//	@Security		BearerAuth
//	@Router			/analyses [get]
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no analysis library configured"))
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.catalog.List(limit, offset)
	if err != nil {
		slog.Error("list analyses failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, AnalysisListResponse{Analyses: items, Total: total})
}

// SearchAnalyses handles GET /api/analyses/search.
//
//	@Summary		Full-text search across the library
//	@Tags			library
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyses/search [get]
func (h *Handler) SearchAnalyses(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no analysis library configured"))
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.catalog.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// DeleteAnalysis handles DELETE /api/analyses?path=.
//
//	@Summary		Remove a payload from the library
//	@Tags			library
//	@Param			path	query	string	true	"Library path"
//	@Success		204
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyses [delete]
func (h *Handler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	if err := h.board.DeleteAnalysis(path); err != nil {
		writeError(w, "delete analysis", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameAnalysis handles POST /api/analyses/rename.
//
//	@Summary		Move a payload within the library
//	@Tags			library
//	@Accept			json
//	@Param			body	body	RenameRequest	true	"Old and new path"
//	@Success		204
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyses/rename [post]
func (h *Handler) RenameAnalysis(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.From == "" || req.To == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("from and to are required"))
		return
	}
	if err := h.board.RenameAnalysis(req.From, req.To); err != nil {
		writeError(w, "rename analysis", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenCanvas handles POST /api/canvases.
//
//	@Summary		Open a canvas from a library file or an inline payload
//	@Tags			canvases
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenCanvasRequest	true	"Analysis to lay out"
//	@Success		201		{object}	board.View
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases [post]
func (h *Handler) OpenCanvas(w http.ResponseWriter, r *http.Request) {
	var req OpenCanvasRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		v   *board.View
		err error
	)
	switch {
	case req.Payload != nil:
		v, err = h.board.OpenPayload(r.Context(), req.Payload, req.Filename)
	case req.Analysis != "":
		v, err = h.board.Open(r.Context(), req.Analysis)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("analysis or payload is required"))
		return
	}
	if err != nil {
		writeError(w, "open canvas", err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// ListCanvases handles GET /api/canvases.
func (h *Handler) ListCanvases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CanvasListResponse{Canvases: h.board.List()})
}

// GetCanvas handles GET /api/canvases/{id}.
//
//	@Summary		Get the full state of an open canvas
//	@Tags			canvases
//	@Produce		json
//	@Param			id	path		string	true	"Canvas id"
//	@Success		200	{object}	board.View
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{id} [get]
func (h *Handler) GetCanvas(w http.ResponseWriter, r *http.Request) {
	v, err := h.board.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get canvas", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CloseCanvas handles DELETE /api/canvases/{id}.
func (h *Handler) CloseCanvas(w http.ResponseWriter, r *http.Request) {
	if err := h.board.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, "close canvas", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
