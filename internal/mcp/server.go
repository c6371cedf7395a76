package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/deckpack/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"deck_open": {
		def:     openToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOpen },
	},
	"deck_cards": {
		def:     cardsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCards },
	},
	"deck_add_image": {
		def:     addImageToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAddImage },
	},
	"deck_remove_image": {
		def:     removeImageToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRemoveImage },
	},
	"deck_update_field": {
		def:     updateFieldToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdateField },
	},
	"deck_create_card": {
		def:     createCardToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreateCard },
	},
	"deck_delete_card": {
		def:     deleteCardToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteCard },
	},
	"deck_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"deck_close": {
		def:     closeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClose },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with deckpack tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(mgr *SessionManager, cfg *config.Settings, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"deckpack",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(mgr, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport. The session is torn down
// when the transport ends so no working directories are left behind.
func Run(cfg *config.Settings, version string) error {
	mgr := NewSessionManager()
	defer mgr.Close()

	s := NewServer(mgr, cfg, version)
	return server.ServeStdio(s)
}
