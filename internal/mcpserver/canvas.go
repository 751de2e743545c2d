package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"

	"github.com/starford/onepage/internal/board"
	"github.com/starford/onepage/internal/canvas"
	"github.com/starford/onepage/internal/export"
	"github.com/starford/onepage/internal/history"
)

const outlineWidth = 80

func (s *Server) registerCanvasTools() {
	canvasID := mcp.WithString("canvas", mcp.Required(), mcp.Description("Canvas id returned by open_canvas"))
	boxID := mcp.WithString("box", mcp.Required(), mcp.Description("Box id (see get_canvas)"))

	s.addTool(mcp.NewTool("open_canvas",
		mcp.WithDescription("Open a canvas for an analysis in the library."),
		mcp.WithString("analysis", mcp.Required(), mcp.Description("Library path of the analysis (e.g. acme-plan.json)")),
	), s.openCanvas)

	s.addTool(mcp.NewTool("get_canvas",
		mcp.WithDescription("Show a canvas as a readable outline or as JSON."),
		canvasID,
		mcp.WithString("format", mcp.Enum("outline", "json"), mcp.Description("outline (default) or json")),
	), s.getCanvas)

	s.addTool(mcp.NewTool("add_box",
		mcp.WithDescription("Add an empty text box at the top-left of the page (x 5, y 5, 25x20). Move it with move_box."),
		canvasID,
	), s.addBox)

	s.addTool(mcp.NewTool("update_box",
		mcp.WithDescription("Change the title, text, list items or theme of a box. Omitted fields are kept."),
		canvasID, boxID,
		mcp.WithString("title", mcp.Description("New heading")),
		mcp.WithString("content", mcp.Description("New text of a text box")),
		mcp.WithArray("items", mcp.WithStringItems(), mcp.Description("New items of a list box")),
		mcp.WithString("theme", mcp.Enum(lo.Map(canvas.Themes, func(t canvas.Theme, _ int) string { return string(t) })...)),
	), s.updateBox)

	s.addTool(mcp.NewTool("move_box",
		mcp.WithDescription("Drag a box so its top-left corner lands at (x, y), in percent of the canvas. "+
			"The move snaps to nearby edges like a pointer drag."),
		canvasID, boxID,
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Target left edge, 0-100")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Target top edge, 0-100")),
	), s.moveBox)

	s.addTool(mcp.NewTool("resize_box",
		mcp.WithDescription("Resize a box from its bottom-right corner, in percent of the canvas."),
		canvasID, boxID,
		mcp.WithNumber("width", mcp.Required(), mcp.Description("Target width")),
		mcp.WithNumber("height", mcp.Required(), mcp.Description("Target height")),
	), s.resizeBox)

	s.addTool(mcp.NewTool("set_box_visibility",
		mcp.WithDescription("Hide a box or restore a hidden one."),
		canvasID, boxID,
		mcp.WithBoolean("visible", mcp.Required(), mcp.Description("true to restore, false to hide")),
	), s.setBoxVisibility)

	s.addTool(mcp.NewTool("set_dark_mode",
		mcp.WithDescription("Switch the canvas between light and dark themes."),
		canvasID,
		mcp.WithBoolean("enabled", mcp.Required()),
	), s.setDarkMode)

	s.addTool(mcp.NewTool("set_font_size",
		mcp.WithDescription("Set the font size step (0-5) or move it by a relative step."),
		canvasID,
		mcp.WithNumber("index", mcp.Description("Absolute size step, 0-5")),
		mcp.WithNumber("step", mcp.Description("Relative change, e.g. 1 or -1")),
	), s.setFontSize)

	s.addTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change to a canvas."),
		canvasID,
	), s.historyTool(s.board.Undo))

	s.addTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change."),
		canvasID,
	), s.historyTool(s.board.Redo))

	s.addTool(mcp.NewTool("reset_canvas",
		mcp.WithDescription("Rebuild the default layout from the analysis."),
		canvasID,
	), s.historyTool(s.board.Reset))

	s.addTool(mcp.NewTool("export_canvas",
		mcp.WithDescription("Render the canvas to a PDF (desktop viewport) or JPEG (mobile viewport) file."),
		canvasID,
		mcp.WithNumber("viewport", mcp.Description("Client viewport width in pixels (default 1280)")),
		mcp.WithString("format", mcp.Enum("pdf", "jpg", "png"), mcp.Description("Force a format")),
	), s.exportCanvas)
}

func (s *Server) openCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("analysis")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.board.Open(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(outline(v)), nil
}

func (s *Server) getCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("canvas")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.board.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if getString(req.GetArguments(), "format", "outline") == "json" {
		return jsonResult(v)
	}
	return mcp.NewToolResultText(outline(v)), nil
}

func (s *Server) addBox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("canvas")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.board.AddBox(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.committed(id, b)
}

func (s *Server) updateBox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, boxID, errResult := canvasAndBox(req)
	if errResult != nil {
		return errResult, nil
	}
	args := req.GetArguments()

	var p canvas.Patch
	if v, ok := args["title"].(string); ok {
		p.Title = &v
	}
	if v, ok := args["content"].(string); ok {
		p.Content = &v
	}
	if raw, ok := args["items"].([]any); ok {
		p.Items = lo.FilterMap(raw, func(item any, _ int) (string, bool) {
			str, ok := item.(string)
			return str, ok
		})
	}
	if v, ok := args["theme"].(string); ok && v != "" {
		t := canvas.Theme(v)
		p.Theme = &t
	}

	b, err := s.board.UpdateBox(id, boxID, p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.committed(id, b)
}

func (s *Server) moveBox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, boxID, errResult := canvasAndBox(req)
	if errResult != nil {
		return errResult, nil
	}
	args := req.GetArguments()
	x, okX := args["x"].(float64)
	y, okY := args["y"].(float64)
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required numbers"), nil
	}
	b, err := s.board.MoveBox(id, boxID, x, y)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.committed(id, b)
}

func (s *Server) resizeBox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, boxID, errResult := canvasAndBox(req)
	if errResult != nil {
		return errResult, nil
	}
	args := req.GetArguments()
	w, okW := args["width"].(float64)
	h, okH := args["height"].(float64)
	if !okW || !okH {
		return mcp.NewToolResultError("width and height are required numbers"), nil
	}
	b, err := s.board.ResizeBox(id, boxID, w, h)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.committed(id, b)
}

func (s *Server) setBoxVisibility(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, boxID, errResult := canvasAndBox(req)
	if errResult != nil {
		return errResult, nil
	}
	visible, ok := req.GetArguments()["visible"].(bool)
	if !ok {
		return mcp.NewToolResultError("visible is required"), nil
	}
	b, err := s.board.SetVisible(id, boxID, visible)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.committed(id, b)
}

func (s *Server) setDarkMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("canvas")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	on, ok := req.GetArguments()["enabled"].(bool)
	if !ok {
		return mcp.NewToolResultError("enabled is required"), nil
	}
	if err := s.board.SetDarkMode(id, on); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.board.Commit(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("dark mode: %t", on)), nil
}

func (s *Server) setFontSize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("canvas")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()
	var idx int
	if v, ok := args["index"].(float64); ok {
		idx, err = s.board.SetFontSize(id, int(v))
	} else {
		idx, err = s.board.StepFontSize(id, int(getFloat(args, "step", 0)))
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("font size: step %d (%dpx)", idx, canvas.FontSizes[idx])), nil
}

func (s *Server) historyTool(fn func(id string) (history.Status, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("canvas")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		st, err := fn(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(st)
	}
}

func (s *Server) exportCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("canvas")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.exports == nil {
		return mcp.NewToolResultError("export directory is not configured"), nil
	}
	args := req.GetArguments()
	format, err := export.ParseFormat(getString(args, "format", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	art, err := s.board.Export(ctx, id, export.Request{
		Viewport: int(getFloat(args, "viewport", 1280)),
		Format:   format,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.exports.Write(art.Filename, art.Data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("exported: %s (%s, %d bytes)", art.Filename, art.ContentType, len(art.Data))), nil
}

// committed flushes pending history so each tool call is one undo step, then
// reports the box.
func (s *Server) committed(id string, b canvas.Box) (*mcp.CallToolResult, error) {
	if _, err := s.board.Commit(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(b)
}

func canvasAndBox(req mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	id, err := req.RequireString("canvas")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	boxID, err := req.RequireString("box")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	return id, boxID, nil
}

// outline renders a canvas as wrapped plain text for a language model.
func outline(v *board.View) string {
	var b strings.Builder
	title := v.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "# %s\n", title)
	fmt.Fprintf(&b, "canvas %s, revision %d, dark mode %t, font %dpx\n", v.ID, v.Revision, v.DarkMode, v.FontPx())

	var hidden []string
	for _, box := range v.Boxes {
		if !box.Visible {
			hidden = append(hidden, fmt.Sprintf("%s [%s]", box.Title, box.ID))
			continue
		}
		fmt.Fprintf(&b, "\n## %s [%s]\n", box.Title, box.ID)
		fmt.Fprintf(&b, "%s at (%.1f, %.1f) size %.1fx%.1f\n", box.Theme, box.X, box.Y, box.Width, box.Height)
		switch box.Kind {
		case canvas.KindList:
			for _, item := range box.Items {
				b.WriteString(wordwrap.String("- "+item, outlineWidth))
				b.WriteString("\n")
			}
		default:
			if box.Content != "" {
				b.WriteString(wordwrap.String(box.Content, outlineWidth))
				b.WriteString("\n")
			}
		}
	}
	if len(hidden) > 0 {
		fmt.Fprintf(&b, "\nhidden: %s\n", strings.Join(hidden, ", "))
	}
	return b.String()
}
