package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/onepage/internal/board"
	"github.com/starford/onepage/internal/canvas"
	"github.com/starford/onepage/internal/export"
	"github.com/starford/onepage/internal/history"
)

// itemIndex parses the {n} URL parameter. It writes a 400 and returns false
// when it is not a non-negative integer.
func itemIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("item index must be a non-negative integer"))
		return 0, false
	}
	return n, true
}

// AddBox handles POST /api/canvases/{id}/boxes.
func (h *Handler) AddBox(w http.ResponseWriter, r *http.Request) {
	b, err := h.board.AddBox(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "add box", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBox handles PATCH /api/canvases/{id}/boxes/{box}.
//
//	@Summary		Change the title, content, items or theme of a box
//	@Tags			boxes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Canvas id"
//	@Param			box		path		string			true	"Box id"
//	@Param			body	body		canvas.Patch	true	"Fields to change"
//	@Success		200		{object}	canvas.Box
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{id}/boxes/{box} [patch]
func (h *Handler) UpdateBox(w http.ResponseWriter, r *http.Request) {
	var p canvas.Patch
	if !decodeJSON(w, r, &p) {
		return
	}
	b, err := h.board.UpdateBox(chi.URLParam(r, "id"), chi.URLParam(r, "box"), p)
	if err != nil {
		writeError(w, "update box", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) setVisible(visible bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := h.board.SetVisible(chi.URLParam(r, "id"), chi.URLParam(r, "box"), visible)
		if err != nil {
			writeError(w, "set visibility", err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// SetText handles PUT /api/canvases/{id}/boxes/{box}/text.
func (h *Handler) SetText(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	converted, err := h.board.SetText(chi.URLParam(r, "id"), chi.URLParam(r, "box"), req.Text)
	if err != nil {
		writeError(w, "set text", err)
		return
	}
	writeJSON(w, http.StatusOK, ConvertedResponse{Converted: converted})
}

// Paste handles POST /api/canvases/{id}/boxes/{box}/paste.
func (h *Handler) Paste(w http.ResponseWriter, r *http.Request) {
	var req PasteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	converted, err := h.board.Paste(chi.URLParam(r, "id"), chi.URLParam(r, "box"), req.Current, req.Offset, req.Fragment)
	if err != nil {
		writeError(w, "paste", err)
		return
	}
	writeJSON(w, http.StatusOK, ConvertedResponse{Converted: converted})
}

// CommitItem handles PUT /api/canvases/{id}/boxes/{box}/items/{n}.
func (h *Handler) CommitItem(w http.ResponseWriter, r *http.Request) {
	n, ok := itemIndex(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.board.CommitItem(chi.URLParam(r, "id"), chi.URLParam(r, "box"), n, req.Value)
	if err != nil {
		writeError(w, "commit item", err)
		return
	}
	writeJSON(w, http.StatusOK, ItemResponse{Value: v})
}

// SplitItem handles POST /api/canvases/{id}/boxes/{box}/items/{n}/split.
func (h *Handler) SplitItem(w http.ResponseWriter, r *http.Request) {
	n, ok := itemIndex(w, r)
	if !ok {
		return
	}
	var req SplitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caret, err := h.board.SplitItem(chi.URLParam(r, "id"), chi.URLParam(r, "box"), n, req.Current, req.From, req.To)
	if err != nil {
		writeError(w, "split item", err)
		return
	}
	writeJSON(w, http.StatusOK, caret)
}

// BackspaceItem handles POST /api/canvases/{id}/boxes/{box}/items/{n}/backspace.
func (h *Handler) BackspaceItem(w http.ResponseWriter, r *http.Request) {
	n, ok := itemIndex(w, r)
	if !ok {
		return
	}
	var req BackspaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	caret, removed, err := h.board.BackspaceItem(chi.URLParam(r, "id"), chi.URLParam(r, "box"), n, req.Current)
	if err != nil {
		writeError(w, "backspace item", err)
		return
	}
	writeJSON(w, http.StatusOK, BackspaceResponse{Caret: caret, Removed: removed})
}

// SelectAll handles GET /api/canvases/{id}/boxes/{box}/items/{n}/select-all.
func (h *Handler) SelectAll(w http.ResponseWriter, r *http.Request) {
	n, ok := itemIndex(w, r)
	if !ok {
		return
	}
	sel, err := h.board.SelectAll(chi.URLParam(r, "id"), chi.URLParam(r, "box"), n)
	if err != nil {
		writeError(w, "select all", err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// SetTitle handles PUT /api/canvases/{id}/title.
func (h *Handler) SetTitle(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.board.SetTitle(chi.URLParam(r, "id"), req.Title); err != nil {
		writeError(w, "set title", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDarkMode handles PUT /api/canvases/{id}/dark-mode.
func (h *Handler) SetDarkMode(w http.ResponseWriter, r *http.Request) {
	var req DarkModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.board.SetDarkMode(chi.URLParam(r, "id"), req.Enabled); err != nil {
		writeError(w, "set dark mode", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFontSize handles PUT /api/canvases/{id}/font-size.
func (h *Handler) SetFontSize(w http.ResponseWriter, r *http.Request) {
	var req FontSizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	var (
		idx int
		err error
	)
	if req.Index != nil {
		idx, err = h.board.SetFontSize(id, *req.Index)
	} else {
		idx, err = h.board.StepFontSize(id, req.Step)
	}
	if err != nil {
		writeError(w, "set font size", err)
		return
	}
	writeJSON(w, http.StatusOK, FontSizeResponse{FontSize: idx, Px: canvas.FontSizes[idx]})
}

// BeginGesture handles POST /api/canvases/{id}/gesture.
//
//	@Summary		Start dragging or resizing a box
//	@Tags			gestures
//	@Accept			json
//	@Param			id		path	string				true	"Canvas id"
//	@Param			body	body	board.GestureStart	true	"Pointer-down"
//	@Success		204
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{id}/gesture [post]
func (h *Handler) BeginGesture(w http.ResponseWriter, r *http.Request) {
	var req board.GestureStart
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.board.BeginGesture(chi.URLParam(r, "id"), req); err != nil {
		writeError(w, "begin gesture", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveGesture handles POST /api/canvases/{id}/gesture/move.
func (h *Handler) MoveGesture(w http.ResponseWriter, r *http.Request) {
	var p canvas.Pointer
	if !decodeJSON(w, r, &p) {
		return
	}
	b, err := h.board.MoveGesture(chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, "move gesture", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// EndGesture handles POST /api/canvases/{id}/gesture/end.
func (h *Handler) EndGesture(w http.ResponseWriter, r *http.Request) {
	moved, err := h.board.EndGesture(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "end gesture", err)
		return
	}
	writeJSON(w, http.StatusOK, GestureEndResponse{Moved: moved})
}

// CancelGesture handles POST /api/canvases/{id}/gesture/cancel.
func (h *Handler) CancelGesture(w http.ResponseWriter, r *http.Request) {
	b, err := h.board.CancelGesture(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "cancel gesture", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) historyStep(op string, fn func(id string) (history.Status, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := fn(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// Export handles GET /api/canvases/{id}/export.
//
//	@Summary		Download the canvas as a PDF or image
//	@Tags			canvases
//	@Produce		application/pdf,image/jpeg,image/png
//	@Param			id			path	string	true	"Canvas id"
//	@Param			viewport	query	int		false	"Client viewport width in pixels"
//	@Param			format		query	string	false	"Force a format"	Enums(pdf, jpg, png)
//	@Success		200
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{id}/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	viewport, _ := strconv.Atoi(q.Get("viewport"))
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, "export", err)
		return
	}

	art, err := h.board.Export(r.Context(), chi.URLParam(r, "id"), export.Request{Viewport: viewport, Format: format})
	if err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}
