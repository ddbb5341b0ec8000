package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/taibai-mcp/taibai/internal/dedao"
)

// ListCoursesTool handles the dedao_list_courses MCP tool.
type ListCoursesTool struct {
	runner dedao.Runner
}

// NewListCoursesTool creates a ListCoursesTool using the given runner.
func NewListCoursesTool(runner dedao.Runner) *ListCoursesTool {
	return &ListCoursesTool{runner: runner}
}

// Definition returns the MCP tool definition for registration.
func (t *ListCoursesTool) Definition() mcp.Tool {
	return mcp.NewTool("dedao_list_courses",
		mcp.WithDescription(
			"List all purchased Dedao courses. Requires a logged-in session.",
		),
		mcp.WithBoolean("include_details",
			mcp.Description("Include detailed course information"),
			mcp.DefaultBool(false),
		),
	)
}

// Handle processes the dedao_list_courses tool call.
func (t *ListCoursesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if res := requireInstalled(t.runner); res != nil {
		return res, nil
	}
	if res := requireLogin(ctx, t.runner); res != nil {
		return res, nil
	}

	args := []string{"course"}
	if req.GetBool("include_details", false) {
		args = append(args, "-d")
	}

	out, err := t.runner.Run(ctx, args...)
	if err != nil {
		return commandError(err), nil
	}
	return mcp.NewToolResultText(out), nil
}
