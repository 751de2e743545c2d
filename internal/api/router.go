package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Library.
	r.Get("/analyses", h.ListAnalyses)
	r.Get("/analyses/search", h.SearchAnalyses)
	r.Delete("/analyses", h.DeleteAnalysis)
	r.Post("/analyses/rename", h.RenameAnalysis)
	r.Post("/documents", h.UploadDocument)

	// Canvases.
	r.Get("/canvases", h.ListCanvases)
	r.Post("/canvases", h.OpenCanvas)
	r.Route("/canvases/{id}", func(r chi.Router) {
		r.Get("/", h.GetCanvas)
		r.Delete("/", h.CloseCanvas)

		r.Post("/boxes", h.AddBox)
		r.Route("/boxes/{box}", func(r chi.Router) {
			r.Patch("/", h.UpdateBox)
			r.Post("/hide", h.setVisible(false))
			r.Post("/restore", h.setVisible(true))
			r.Put("/text", h.SetText)
			r.Post("/paste", h.Paste)
			r.Put("/items/{n}", h.CommitItem)
			r.Post("/items/{n}/split", h.SplitItem)
			r.Post("/items/{n}/backspace", h.BackspaceItem)
			r.Get("/items/{n}/select-all", h.SelectAll)
		})

		r.Route("/editor", func(r chi.Router) {
			r.Get("/field", h.Field)
			r.Post("/focus", h.FocusField)
			r.Put("/input", h.InputField)
			r.Post("/blur", h.BlurField)
			r.Post("/enter", h.EnterField)
			r.Post("/backspace", h.BackspaceField)
			r.Get("/select-all", h.SelectAllField)
		})

		r.Put("/title", h.SetTitle)
		r.Put("/dark-mode", h.SetDarkMode)
		r.Put("/font-size", h.SetFontSize)

		r.Post("/gesture", h.BeginGesture)
		r.Post("/gesture/move", h.MoveGesture)
		r.Post("/gesture/end", h.EndGesture)
		r.Post("/gesture/cancel", h.CancelGesture)

		r.Post("/undo", h.historyStep("undo", h.board.Undo))
		r.Post("/redo", h.historyStep("redo", h.board.Redo))
		r.Post("/reset", h.historyStep("reset", h.board.Reset))
		r.Post("/commit", h.historyStep("commit", h.board.Commit))

		r.Get("/export", h.Export)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
