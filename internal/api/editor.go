package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/onepage/internal/canvas"
)

// Field handles GET /api/canvases/{id}/editor/field?box=&part=&item=.
//
//	@Summary		Read a field as the editing client sees it
//	@Description	A focused field keeps what was typed; other fields follow the canvas.
//	@Tags			editor
//	@Produce		json
//	@Param			id		path		string	true	"Canvas id"
//	@Param			box		query		string	true	"Box id"
//	@Param			part	query		string	true	"Field part"	Enums(title, body, item)
//	@Param			item	query		int		false	"Item index"
//	@Success		200		{object}	board.FieldView
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{id}/editor/field [get]
func (h *Handler) Field(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := canvas.FieldRef{BoxID: q.Get("box"), Part: canvas.Part(q.Get("part"))}
	if s := q.Get("item"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("item must be a non-negative integer"))
			return
		}
		ref.Item = n
	}
	fv, err := h.board.Field(chi.URLParam(r, "id"), ref)
	if err != nil {
		writeError(w, "read field", err)
		return
	}
	writeJSON(w, http.StatusOK, fv)
}

// FocusField handles POST /api/canvases/{id}/editor/focus.
func (h *Handler) FocusField(w http.ResponseWriter, r *http.Request) {
	var ref canvas.FieldRef
	if !decodeJSON(w, r, &ref) {
		return
	}
	fv, err := h.board.FocusField(chi.URLParam(r, "id"), ref)
	if err != nil {
		writeError(w, "focus field", err)
		return
	}
	writeJSON(w, http.StatusOK, fv)
}

// InputField handles PUT /api/canvases/{id}/editor/input.
func (h *Handler) InputField(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	converted, err := h.board.InputField(chi.URLParam(r, "id"), req.Value)
	if err != nil {
		writeError(w, "input", err)
		return
	}
	writeJSON(w, http.StatusOK, ConvertedResponse{Converted: converted})
}

// BlurField handles POST /api/canvases/{id}/editor/blur.
func (h *Handler) BlurField(w http.ResponseWriter, r *http.Request) {
	if err := h.board.BlurField(chi.URLParam(r, "id")); err != nil {
		writeError(w, "blur field", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EnterField handles POST /api/canvases/{id}/editor/enter.
func (h *Handler) EnterField(w http.ResponseWriter, r *http.Request) {
	var req EnterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caret, err := h.board.EnterField(chi.URLParam(r, "id"), req.From, req.To)
	if err != nil {
		writeError(w, "enter", err)
		return
	}
	writeJSON(w, http.StatusOK, caret)
}

// BackspaceField handles POST /api/canvases/{id}/editor/backspace.
func (h *Handler) BackspaceField(w http.ResponseWriter, r *http.Request) {
	caret, removed, err := h.board.BackspaceField(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "backspace", err)
		return
	}
	writeJSON(w, http.StatusOK, BackspaceResponse{Caret: caret, Removed: removed})
}

// SelectAllField handles GET /api/canvases/{id}/editor/select-all.
func (h *Handler) SelectAllField(w http.ResponseWriter, r *http.Request) {
	sel, err := h.board.SelectAllField(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "select all", err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}
