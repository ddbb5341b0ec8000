package tools

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/taibai-mcp/taibai/internal/dedao"
	"github.com/taibai-mcp/taibai/internal/history"
	"github.com/taibai-mcp/taibai/internal/vault"
)

// articleFormats maps the public format names to dedao-dl's -t values.
// Articles have no audio, so mp3 is not offered.
var articleFormats = map[string]string{
	"pdf":      "2",
	"markdown": "3",
}

// DownloadArticleTool handles the dedao_download_article MCP tool.
type DownloadArticleTool struct {
	runner dedao.Runner
	mover  *vault.Mover
	vault  string
	ledger Ledger
}

// NewDownloadArticleTool creates a DownloadArticleTool. vaultDir is the
// default destination; ledger may be nil when history is disabled.
func NewDownloadArticleTool(runner dedao.Runner, mover *vault.Mover, vaultDir string, ledger Ledger) *DownloadArticleTool {
	return &DownloadArticleTool{runner: runner, mover: mover, vault: vaultDir, ledger: ledger}
}

// Definition returns the MCP tool definition for registration.
func (t *DownloadArticleTool) Definition() mcp.Tool {
	return mcp.NewTool("dedao_download_article",
		mcp.WithDescription(
			"Download a Dedao article in the given format and move the files "+
				"into the vault directory.",
		),
		mcp.WithString("article_id",
			mcp.Required(),
			mcp.Description("Article ID to download"),
		),
		mcp.WithString("format",
			mcp.Description("Output format"),
			mcp.DefaultString("markdown"),
			mcp.Enum("pdf", "markdown"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Destination directory, overriding the configured vault"),
		),
	)
}

// Handle processes the dedao_download_article tool call.
func (t *DownloadArticleTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articleID := req.GetString("article_id", "")
	if articleID == "" {
		return mcp.NewToolResultError("'article_id' is required"), nil
	}

	format := req.GetString("format", "markdown")
	formatFlag, ok := articleFormats[format]
	if !ok {
		return mcp.NewToolResultError("'format' must be 'pdf' or 'markdown'"), nil
	}

	if res := requireInstalled(t.runner); res != nil {
		return res, nil
	}
	if res := requireLogin(ctx, t.runner); res != nil {
		return res, nil
	}

	if _, err := t.runner.Run(ctx, "article", "dl", articleID, "-t", formatFlag); err != nil {
		return commandError(err), nil
	}

	dest := req.GetString("output_dir", "")
	if dest == "" {
		dest = t.vault
	}

	moved, err := t.mover.Collect(dest)
	if err != nil {
		return nil, fmt.Errorf("relocating downloaded files: %w", err)
	}

	if t.ledger != nil {
		if _, err := t.ledger.Record(history.KindArticle, articleID, format, dest, len(moved)); err != nil {
			log.Printf("WARNING: recording download history: %v", err)
		}
	}

	response := fmt.Sprintf("Article %s downloaded successfully to %s", articleID, dest)
	return mcp.NewToolResultText(response + formatFileList(moved)), nil
}
