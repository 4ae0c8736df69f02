// ABOUTME: MCP tool handler implementations for the echomind server
// ABOUTME: Each handler maps tool arguments onto the core engine and returns JSON text
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/harper/echomind/internal/core"
	"github.com/harper/echomind/internal/models"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	engine      *core.Engine
	defaultUser string
	logger      *zap.Logger
}

// NewHandlers creates handlers over engine. defaultUser is used when a
// call does not name a user.
func NewHandlers(engine *core.Engine, defaultUser string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		engine:      engine,
		defaultUser: defaultUser,
		logger:      logger,
	}
}

// RecordPhrase handles the record_phrase tool
func (h *Handlers) RecordPhrase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phrase, err := request.RequireString("phrase")
	if err != nil {
		return mcp.NewToolResultError("phrase argument is required and must be a string"), nil
	}
	category, err := request.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError("category argument is required and must be a string"), nil
	}

	rec, err := h.engine.Record(ctx, models.Selection{
		UserID:   h.userID(request),
		Category: category,
		Phrase:   phrase,
		Context:  contextFields(request),
	})
	if err != nil {
		h.logger.Error("record_phrase failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to record phrase: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"status":   "recorded",
		"id":       rec.ID,
		"seq":      rec.Seq,
		"user_id":  rec.UserID,
		"category": rec.Category,
		"degraded": rec.Degraded,
	})
}

// GetPersonalization handles the get_personalization tool
func (h *Handlers) GetPersonalization(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, errResult := requireCategory(request)
	if errResult != nil {
		return errResult, nil
	}

	hint := h.engine.Personalize(ctx, h.userID(request), category.String(), contextFields(request))

	return jsonResult(map[string]interface{}{
		"hint":                    hint,
		"prompt_line":             core.PromptLine(hint),
		"personalization_enabled": h.engine.PersonalizationEnabled(),
	})
}

// FindSimilarContexts handles the find_similar_contexts tool
func (h *Handlers) FindSimilarContexts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, errResult := requireCategory(request)
	if errResult != nil {
		return errResult, nil
	}

	userID := h.userID(request)
	matches, err := h.engine.Similar(ctx, userID, category.String(), contextFields(request), request.GetInt("limit", core.DefaultRetrieveLimit))
	if err != nil {
		h.logger.Error("find_similar_contexts failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("similarity search failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"user_id": userID,
		"matches": matches,
		"count":   len(matches),
	})
}

// TopPhrases handles the top_phrases tool
func (h *Handlers) TopPhrases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, errResult := requireCategory(request)
	if errResult != nil {
		return errResult, nil
	}

	userID := h.userID(request)
	phrases := h.engine.TopPhrases(ctx, userID, category.String(), request.GetInt("limit", core.DefaultTopLimit))

	return jsonResult(map[string]interface{}{
		"user_id":  userID,
		"category": category.String(),
		"phrases":  phrases,
	})
}

// MemoryStats handles the memory_stats tool
func (h *Handlers) MemoryStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.engine.Stats(ctx, h.userID(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to count phrases: %v", err)), nil
	}
	return jsonResult(stats)
}

func (h *Handlers) userID(request mcp.CallToolRequest) string {
	if id := strings.TrimSpace(request.GetString("user_id", "")); id != "" {
		return id
	}
	return h.defaultUser
}

func requireCategory(request mcp.CallToolRequest) (models.Category, *mcp.CallToolResult) {
	raw, err := request.RequireString("category")
	if err != nil {
		return "", mcp.NewToolResultError("category argument is required and must be a string")
	}
	category, err := models.ParseCategory(raw)
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	return category, nil
}

func contextFields(request mcp.CallToolRequest) models.ContextFields {
	return models.ContextFields{
		TimeOfDay: request.GetString("time_of_day", ""),
		DayOfWeek: request.GetString("day_of_week", ""),
		Location:  request.GetString("location", ""),
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
