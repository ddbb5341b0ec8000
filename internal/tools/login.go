package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/taibai-mcp/taibai/internal/dedao"
)

// LoginTool handles the dedao_login MCP tool. Login itself is performed by
// dedao-dl — via a QR code rendered to the terminal, or a cookie string
// copied from a browser session.
type LoginTool struct {
	runner dedao.Runner
}

// NewLoginTool creates a LoginTool using the given runner.
func NewLoginTool(runner dedao.Runner) *LoginTool {
	return &LoginTool{runner: runner}
}

// Definition returns the MCP tool definition for registration.
func (t *LoginTool) Definition() mcp.Tool {
	return mcp.NewTool("dedao_login",
		mcp.WithDescription(
			"Login to the Dedao platform via QR code or cookie string. "+
				"QR login is interactive: the code is rendered to the server's "+
				"terminal and must be scanned with the Dedao app.",
		),
		mcp.WithBoolean("qrcode",
			mcp.Description("Login via QR code"),
			mcp.DefaultBool(false),
		),
		mcp.WithString("cookie",
			mcp.Description("Login via cookie string from an existing browser session"),
		),
	)
}

// Handle processes the dedao_login tool call.
func (t *LoginTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if res := requireInstalled(t.runner); res != nil {
		return res, nil
	}

	qrcode := req.GetBool("qrcode", false)
	cookie := req.GetString("cookie", "")

	if qrcode {
		if err := t.runner.RunInteractive(ctx, "login", "-q"); err != nil {
			return commandError(err), nil
		}
		return mcp.NewToolResultText(
			"QR code login completed. Please check if login was successful.",
		), nil
	}

	args := []string{"login"}
	if cookie != "" {
		args = append(args, "--cookie", cookie)
	}

	out, err := t.runner.Run(ctx, args...)
	if err != nil {
		return commandError(err), nil
	}
	if out == "" {
		out = "Login successful"
	}
	return mcp.NewToolResultText(out), nil
}
