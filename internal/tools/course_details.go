package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/taibai-mcp/taibai/internal/dedao"
)

// CourseDetailsTool handles the dedao_course_details MCP tool.
type CourseDetailsTool struct {
	runner dedao.Runner
}

// NewCourseDetailsTool creates a CourseDetailsTool using the given runner.
func NewCourseDetailsTool(runner dedao.Runner) *CourseDetailsTool {
	return &CourseDetailsTool{runner: runner}
}

// Definition returns the MCP tool definition for registration.
func (t *CourseDetailsTool) Definition() mcp.Tool {
	return mcp.NewTool("dedao_course_details",
		mcp.WithDescription(
			"Get detailed information about a specific Dedao course, "+
				"including its lesson list.",
		),
		mcp.WithString("course_id",
			mcp.Required(),
			mcp.Description("Course ID to get details for"),
		),
	)
}

// Handle processes the dedao_course_details tool call.
func (t *CourseDetailsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	courseID := req.GetString("course_id", "")
	if courseID == "" {
		return mcp.NewToolResultError("'course_id' is required"), nil
	}

	if res := requireInstalled(t.runner); res != nil {
		return res, nil
	}
	if res := requireLogin(ctx, t.runner); res != nil {
		return res, nil
	}

	out, err := t.runner.Run(ctx, "detail", courseID)
	if err != nil {
		return commandError(err), nil
	}
	return mcp.NewToolResultText(out), nil
}
