package api

import (
	"github.com/starford/onepage/internal/board"
	"github.com/starford/onepage/internal/canvas"
	"github.com/starford/onepage/internal/index"
	"github.com/starford/onepage/internal/models"
)

// OpenCanvasRequest opens a canvas either from a library file or from an
// inline payload.
type OpenCanvasRequest struct {
	Analysis string           `json:"analysis,omitempty" example:"acme-plan.json"`
	Payload  *models.Analysis `json:"payload,omitempty"`
	Filename string           `json:"filename,omitempty" example:"Acme Plan.pdf"`
}

// AnalysisListResponse wraps paginated library listings.
type AnalysisListResponse struct {
	Analyses []models.AnalysisMetadata `json:"analyses" validate:"required"`
	Total    int                       `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps library search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// CanvasListResponse lists open canvases.
type CanvasListResponse struct {
	Canvases []board.Summary `json:"canvases" validate:"required"`
}

// TextRequest replaces a text box body.
type TextRequest struct {
	Text string `json:"text"`
}

// PasteRequest inserts a clipboard fragment into a text box body.
type PasteRequest struct {
	Current  string `json:"current"`
	Offset   int    `json:"offset"`
	Fragment string `json:"fragment" validate:"required"`
}

// ConvertedResponse reports whether a text box turned into a list.
type ConvertedResponse struct {
	Converted bool `json:"converted"`
}

// ItemRequest commits the value of a list item.
type ItemRequest struct {
	Value string `json:"value"`
}

// ItemResponse is the item value as stored.
type ItemResponse struct {
	Value string `json:"value"`
}

// SplitRequest is an Enter keypress inside a list item.
type SplitRequest struct {
	Current string `json:"current"`
	From    int    `json:"from"`
	To      int    `json:"to"`
}

// BackspaceRequest is a Backspace keypress inside a list item.
type BackspaceRequest struct {
	Current string `json:"current"`
}

// BackspaceResponse tells where the caret went and whether the item was
// removed.
type BackspaceResponse struct {
	Caret   canvas.Caret `json:"caret"`
	Removed bool         `json:"removed"`
}

// TitleRequest changes the page title.
type TitleRequest struct {
	Title string `json:"title"`
}

// DarkModeRequest switches dark mode.
type DarkModeRequest struct {
	Enabled bool `json:"enabled"`
}

// FontSizeRequest selects a font size. Step, when set, moves relative to the
// current size instead.
type FontSizeRequest struct {
	Index *int `json:"index,omitempty"`
	Step  int  `json:"step,omitempty"`
}

// FontSizeResponse is the font-size index in effect.
type FontSizeResponse struct {
	FontSize int `json:"font_size"`
	Px       int `json:"px"`
}

// GestureEndResponse reports whether the gesture changed the box.
type GestureEndResponse struct {
	Moved bool `json:"moved"`
}

// RenameRequest moves a library file.
type RenameRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// InputRequest is what the user typed into the focused field.
type InputRequest struct {
	Value string `json:"value"`
}

// EnterRequest is an Enter keypress with the selected rune range of the
// focused item.
type EnterRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}
