// Package tools implements the MCP tool handlers for taibai.
//
// Each tool is a struct that receives its dependencies (DIP) and exposes
// Definition() for registration plus Handle() matching mcp-go's
// CallToolRequest signature. Every operation translates its parameters
// into a dedao-dl argument list, runs the subprocess, and formats the
// result as text.
//
// Design principles:
// - SRP: each file = one tool
// - DIP: tools depend on dedao.Runner, not on os/exec
// - Validation failures are tool error results; the server never dies
//   because one invocation went wrong
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/taibai-mcp/taibai/internal/dedao"
)

// requireInstalled returns a tool error result when dedao-dl is missing,
// nil when it's available.
func requireInstalled(r dedao.Runner) *mcp.CallToolResult {
	if r.Installed() {
		return nil
	}
	return mcp.NewToolResultError(
		"dedao-dl is not installed. Install it first: " + dedao.InstallHint,
	)
}

// requireLogin returns a tool error result when there is no Dedao session,
// nil when logged in.
func requireLogin(ctx context.Context, r dedao.Runner) *mcp.CallToolResult {
	if r.LoggedIn(ctx) {
		return nil
	}
	return mcp.NewToolResultError(
		"Not logged in to Dedao. Use dedao_login first.",
	)
}

// commandError converts a failed dedao-dl invocation into a tool error
// result. The subprocess's own diagnostic is passed through verbatim —
// there is no local classification or retry.
func commandError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// formatFileList renders relocated paths as a bullet list for download
// confirmations.
func formatFileList(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nFiles:\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	return strings.TrimRight(b.String(), "\n")
}
