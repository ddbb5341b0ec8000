package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/taibai-mcp/taibai/internal/dedao"
)

// VersionTool handles the dedao_version MCP tool. It reports the installed
// dedao-dl version against the latest GitHub release.
type VersionTool struct {
	runner dedao.Runner

	// check is swappable for tests; defaults to dedao.CheckVersion.
	check func(ctx context.Context, binary string) dedao.VersionInfo
}

// NewVersionTool creates a VersionTool using the given runner.
func NewVersionTool(runner dedao.Runner) *VersionTool {
	return &VersionTool{runner: runner, check: dedao.CheckVersion}
}

// Definition returns the MCP tool definition for registration.
func (t *VersionTool) Definition() mcp.Tool {
	return mcp.NewTool("dedao_version",
		mcp.WithDescription(
			"Check the installed dedao-dl version and whether an update is available.",
		),
	)
}

// Handle processes the dedao_version tool call.
func (t *VersionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if res := requireInstalled(t.runner); res != nil {
		return res, nil
	}

	info := t.check(ctx, dedao.BinaryName)
	return mcp.NewToolResultText(info.Describe()), nil
}
