package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/deckpack/internal/config"
	"github.com/hpungsan/deckpack/internal/errors"
)

// mimeToExt maps accepted image MIME types to file extensions for pasted
// image payloads.
var mimeToExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	mgr *SessionManager
	cfg *config.Settings
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(mgr *SessionManager, cfg *config.Settings) *Handlers {
	return &Handlers{mgr: mgr, cfg: cfg}
}

// Request types for each tool

// OpenRequest represents the arguments for deck_open.
type OpenRequest struct {
	Path string `json:"path"`
}

// AddImageRequest represents the arguments for deck_add_image.
type AddImageRequest struct {
	NoteID int64  `json:"note_id"`
	Field  string `json:"field"`
	Data   string `json:"data"`
	MIME   string `json:"mime,omitempty"`
}

// RemoveImageRequest represents the arguments for deck_remove_image.
type RemoveImageRequest struct {
	NoteID int64  `json:"note_id"`
	Field  string `json:"field"`
	Index  int    `json:"index"`
}

// UpdateFieldRequest represents the arguments for deck_update_field.
type UpdateFieldRequest struct {
	NoteID int64  `json:"note_id"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

// CreateCardRequest represents the arguments for deck_create_card.
type CreateCardRequest struct {
	ModelID  int64 `json:"model_id"`
	Position *int  `json:"position,omitempty"`
}

// DeleteCardRequest represents the arguments for deck_delete_card.
type DeleteCardRequest struct {
	NoteID int64 `json:"note_id"`
}

// ExportRequest represents the arguments for deck_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// Handler implementations

// HandleOpen handles the deck_open tool call.
func (h *Handlers) HandleOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OpenRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Path == "" {
		return errorResult(errors.NewInvalidRequest("path is required")), nil
	}

	cards, err := h.mgr.Open(input.Path)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"ok": true, "cards": cards})
}

// HandleCards handles the deck_cards tool call. It re-reads the open
// database so edits made since open are reflected.
func (h *Handlers) HandleCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := h.mgr.Current()
	if err != nil {
		return errorResult(err), nil
	}

	cards, err := session.Cards()
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"ok": true, "cards": cards})
}

// HandleAddImage handles the deck_add_image tool call. The image payload
// arrives base64-encoded with its MIME type.
func (h *Handlers) HandleAddImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddImageRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	data, err := base64.StdEncoding.DecodeString(input.Data)
	if err != nil {
		return errorResult(errors.NewInvalidRequest("data is not valid base64")), nil
	}
	ext, ok := mimeToExt[strings.ToLower(input.MIME)]
	if !ok {
		ext = ".png"
	}

	session, err := h.mgr.Current()
	if err != nil {
		return errorResult(err), nil
	}

	uri, err := session.AddImage(input.NoteID, input.Field, data, ext)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"ok": true, "uri": uri})
}

// HandleRemoveImage handles the deck_remove_image tool call.
func (h *Handlers) HandleRemoveImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RemoveImageRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	session, err := h.mgr.Current()
	if err != nil {
		return errorResult(err), nil
	}

	if err := session.RemoveImage(input.NoteID, input.Field, input.Index); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"ok": true})
}

// HandleUpdateField handles the deck_update_field tool call.
func (h *Handlers) HandleUpdateField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateFieldRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	session, err := h.mgr.Current()
	if err != nil {
		return errorResult(err), nil
	}

	if err := session.UpdateField(input.NoteID, input.Field, input.Value); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"ok": true})
}

// HandleCreateCard handles the deck_create_card tool call.
func (h *Handlers) HandleCreateCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateCardRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	session, err := h.mgr.Current()
	if err != nil {
		return errorResult(err), nil
	}

	card, err := session.CreateCard(input.ModelID, input.Position)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"ok": true, "card": card})
}

// HandleDeleteCard handles the deck_delete_card tool call.
func (h *Handlers) HandleDeleteCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteCardRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	session, err := h.mgr.Current()
	if err != nil {
		return errorResult(err), nil
	}

	if err := session.DeleteCard(input.NoteID); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"ok": true})
}

// HandleExport handles the deck_export tool call. When no path is given the
// target follows the configured save mode: overwrite replaces the opened
// package, copy writes a sibling file with an "_edited" suffix.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	session, err := h.mgr.Current()
	if err != nil {
		return errorResult(err), nil
	}

	out := input.Path
	if out == "" {
		out = h.cfg.ExportTarget(session.Path())
	}

	if err := session.Export(out); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"ok": true, "path": out})
}

// HandleClose handles the deck_close tool call.
func (h *Handlers) HandleClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.mgr.Close()
	return successResult(map[string]any{"ok": true})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if dErr, ok := err.(*errors.DeckError); ok {
		errorObj := map[string]any{
			"code":    dErr.Code,
			"message": dErr.Message,
		}
		// Internal error details may carry file paths or SQL errors; keep
		// them out of the wire payload.
		if dErr.Code != errors.ErrInternal && dErr.Details != nil {
			errorObj["details"] = dErr.Details
		}
		payload = map[string]any{"ok": false, "error": errorObj}
	} else {
		payload = map[string]any{
			"ok": false,
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
