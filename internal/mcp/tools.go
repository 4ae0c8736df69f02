// ABOUTME: MCP tool definitions and registration for the echomind server
// ABOUTME: Defines JSON schemas for the phrase recording and personalization tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/harper/echomind/internal/core"
)

// Server name and version reported to MCP clients
const (
	ServerName    = "echomind"
	ServerVersion = "0.1.0"
)

var categoryEnum = []string{
	"Body & Needs",
	"Feelings & Sensory",
	"Activities & People",
	"Help & Safety",
}

// NewServer creates an MCP server with every tool registered
func NewServer(engine *core.Engine, defaultUser string, logger *zap.Logger) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(ServerName, ServerVersion)
	RegisterTools(server, engine, defaultUser, logger)
	return server
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, engine *core.Engine, defaultUser string, logger *zap.Logger) *Handlers {
	handlers := NewHandlers(engine, defaultUser, logger)

	server.AddTool(mcp.Tool{
		Name:        "record_phrase",
		Description: "Record a phrase the child selected, together with the situation it was said in. Call this every time a suggested phrase is chosen.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withSituation(map[string]interface{}{
				"phrase": map[string]interface{}{
					"type":        "string",
					"description": "The phrase that was selected",
				},
			}),
			Required: []string{"category", "phrase"},
		},
	}, handlers.RecordPhrase)

	server.AddTool(mcp.Tool{
		Name:        "get_personalization",
		Description: "Get the personalization hint for the next phrase suggestions: what this child said in similar situations and their most frequent phrases in the category.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: withSituation(map[string]interface{}{}),
			Required:   []string{"category"},
		},
	}, handlers.GetPersonalization)

	server.AddTool(mcp.Tool{
		Name:        "find_similar_contexts",
		Description: "Find past situations most similar to the current one, with the phrase chosen each time and a similarity score.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withSituation(map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of matches (default: 3)",
					"default":     core.DefaultRetrieveLimit,
				},
			}),
			Required: []string{"category"},
		},
	}, handlers.FindSimilarContexts)

	server.AddTool(mcp.Tool{
		Name:        "top_phrases",
		Description: "List the phrases this child uses most often in a category, most frequent first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id":  userIDProperty(),
				"category": categoryProperty(),
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of phrases (default: 3)",
					"default":     core.DefaultTopLimit,
				},
			},
			Required: []string{"category"},
		},
	}, handlers.TopPhrases)

	server.AddTool(mcp.Tool{
		Name:        "memory_stats",
		Description: "Count stored phrase selections for a user, per category.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": userIDProperty(),
			},
		},
	}, handlers.MemoryStats)

	return handlers
}

func userIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "User the phrases belong to (default: the configured default user)",
	}
}

func categoryProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Phrase category",
		"enum":        categoryEnum,
	}
}

// withSituation adds the user, category, and context fields to props
func withSituation(props map[string]interface{}) map[string]interface{} {
	props["user_id"] = userIDProperty()
	props["category"] = categoryProperty()
	props["time_of_day"] = map[string]interface{}{
		"type":        "string",
		"description": "morning, afternoon, or evening (default: unknown)",
	}
	props["day_of_week"] = map[string]interface{}{
		"type":        "string",
		"description": "Day name such as Monday (default: unknown)",
	}
	props["location"] = map[string]interface{}{
		"type":        "string",
		"description": "Where the child is, such as home or school (default: unknown)",
	}
	return props
}
