package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/taibai-mcp/taibai/internal/history"
)

// DownloadHistoryTool handles the dedao_download_history MCP tool. It is
// only registered when the history subsystem initialized successfully.
type DownloadHistoryTool struct {
	store *history.Store
}

// NewDownloadHistoryTool creates a DownloadHistoryTool backed by the ledger.
func NewDownloadHistoryTool(store *history.Store) *DownloadHistoryTool {
	return &DownloadHistoryTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *DownloadHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("dedao_download_history",
		mcp.WithDescription(
			"List recent downloads recorded by this server: what was "+
				"downloaded, in which format, and where it was placed.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries to return (default 20)"),
		),
	)
}

// Handle processes the dedao_download_history tool call.
func (t *DownloadHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)

	entries, err := t.store.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("reading download history: %w", err)
	}

	if len(entries) == 0 {
		return mcp.NewToolResultText("No downloads recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Download History (%d)\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s] %s %s (%s, %d files) → %s\n",
			e.CreatedAt, e.Kind, e.ContentID, e.Format, e.FileCount, e.Dest)
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}
