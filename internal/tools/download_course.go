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

// courseFormats maps the public format names to dedao-dl's -t values.
var courseFormats = map[string]string{
	"mp3":      "1",
	"pdf":      "2",
	"markdown": "3",
}

// Ledger records completed downloads. *history.Store satisfies it; a nil
// Ledger disables recording without affecting downloads.
type Ledger interface {
	Record(kind history.Kind, contentID, format, dest string, fileCount int) (int64, error)
}

// DownloadCourseTool handles the dedao_download_course MCP tool. It runs
// the external download, then relocates the staged files into the vault.
type DownloadCourseTool struct {
	runner dedao.Runner
	mover  *vault.Mover
	vault  string
	ledger Ledger
}

// NewDownloadCourseTool creates a DownloadCourseTool. vaultDir is the
// default destination; ledger may be nil when history is disabled.
func NewDownloadCourseTool(runner dedao.Runner, mover *vault.Mover, vaultDir string, ledger Ledger) *DownloadCourseTool {
	return &DownloadCourseTool{runner: runner, mover: mover, vault: vaultDir, ledger: ledger}
}

// Definition returns the MCP tool definition for registration.
func (t *DownloadCourseTool) Definition() mcp.Tool {
	return mcp.NewTool("dedao_download_course",
		mcp.WithDescription(
			"Download a Dedao course in the given format and move the files "+
				"into the vault directory. Hot comments are included.",
		),
		mcp.WithString("course_id",
			mcp.Required(),
			mcp.Description("Course ID to download"),
		),
		mcp.WithString("format",
			mcp.Description("Output format"),
			mcp.DefaultString("markdown"),
			mcp.Enum("pdf", "markdown", "mp3"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Destination directory, overriding the configured vault"),
		),
	)
}

// Handle processes the dedao_download_course tool call.
func (t *DownloadCourseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	courseID := req.GetString("course_id", "")
	if courseID == "" {
		return mcp.NewToolResultError("'course_id' is required"), nil
	}

	format := req.GetString("format", "markdown")
	formatFlag, ok := courseFormats[format]
	if !ok {
		return mcp.NewToolResultError("'format' must be 'pdf', 'markdown' or 'mp3'"), nil
	}

	if res := requireInstalled(t.runner); res != nil {
		return res, nil
	}
	if res := requireLogin(ctx, t.runner); res != nil {
		return res, nil
	}

	// -c includes hot comments alongside the lesson content.
	if _, err := t.runner.Run(ctx, "dl", courseID, "-t", formatFlag, "-c"); err != nil {
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
		if _, err := t.ledger.Record(history.KindCourse, courseID, format, dest, len(moved)); err != nil {
			log.Printf("WARNING: recording download history: %v", err)
		}
	}

	response := fmt.Sprintf("Course %s downloaded successfully to %s", courseID, dest)
	return mcp.NewToolResultText(response + formatFileList(moved)), nil
}
