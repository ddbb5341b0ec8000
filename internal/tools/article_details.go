package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/taibai-mcp/taibai/internal/dedao"
)

// ArticleDetailsTool handles the dedao_article_details MCP tool.
type ArticleDetailsTool struct {
	runner dedao.Runner
}

// NewArticleDetailsTool creates an ArticleDetailsTool using the given runner.
func NewArticleDetailsTool(runner dedao.Runner) *ArticleDetailsTool {
	return &ArticleDetailsTool{runner: runner}
}

// Definition returns the MCP tool definition for registration.
func (t *ArticleDetailsTool) Definition() mcp.Tool {
	return mcp.NewTool("dedao_article_details",
		mcp.WithDescription(
			"Get detailed information about a specific Dedao article.",
		),
		mcp.WithString("article_id",
			mcp.Required(),
			mcp.Description("Article ID to get details for"),
		),
	)
}

// Handle processes the dedao_article_details tool call.
func (t *ArticleDetailsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID := req.GetString("article_id", "")
	if articleID == "" {
		return mcp.NewToolResultError("'article_id' is required"), nil
	}

	if res := requireInstalled(t.runner); res != nil {
		return res, nil
	}
	if res := requireLogin(ctx, t.runner); res != nil {
		return res, nil
	}

	out, err := t.runner.Run(ctx, "article", "detail", articleID)
	if err != nil {
		return commandError(err), nil
	}
	return mcp.NewToolResultText(out), nil
}
