// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates the concrete dedao-dl
// runner, the vault mover, and the history ledger, and injects them into
// the tools that depend on abstractions. No business logic lives here —
// only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/taibai-mcp/taibai/internal/config"
	"github.com/taibai-mcp/taibai/internal/dedao"
	"github.com/taibai-mcp/taibai/internal/history"
	"github.com/taibai-mcp/taibai/internal/tools"
	"github.com/taibai-mcp/taibai/internal/vault"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the history ledger's database
// connection and must be called on shutdown (typically via defer). It is
// always non-nil and safe to call even if history init failed.
func New() (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	cfg, err := config.Load()
	if err != nil {
		return nil, noop, fmt.Errorf("loading configuration: %w", err)
	}

	runner := dedao.NewCLIRunner(cfg.WorkDir)
	mover := vault.NewMover(cfg.OutputDir)

	// --- History ledger ---
	//
	// History is an independent subsystem: if it fails to initialize,
	// download tools keep working without recording, and only the
	// history tool is skipped.

	cleanup := noop
	ledger, histErr := history.New(history.Config{DataDir: cfg.WorkDir})
	if histErr != nil {
		log.Printf("WARNING: download history disabled: %v", histErr)
	} else {
		cleanup = func() {
			if err := ledger.Close(); err != nil {
				log.Printf("WARNING: history ledger close: %v", err)
			}
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"taibai",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	versionTool := tools.NewVersionTool(runner)
	s.AddTool(versionTool.Definition(), versionTool.Handle)

	loginTool := tools.NewLoginTool(runner)
	s.AddTool(loginTool.Definition(), loginTool.Handle)

	listTool := tools.NewListCoursesTool(runner)
	s.AddTool(listTool.Definition(), listTool.Handle)

	courseDetailsTool := tools.NewCourseDetailsTool(runner)
	s.AddTool(courseDetailsTool.Definition(), courseDetailsTool.Handle)

	articleDetailsTool := tools.NewArticleDetailsTool(runner)
	s.AddTool(articleDetailsTool.Definition(), articleDetailsTool.Handle)

	// Download tools accept a nil ledger — recording is best-effort.
	var rec tools.Ledger
	if ledger != nil {
		rec = ledger
	}

	downloadCourseTool := tools.NewDownloadCourseTool(runner, mover, cfg.VaultDir, rec)
	s.AddTool(downloadCourseTool.Definition(), downloadCourseTool.Handle)

	downloadArticleTool := tools.NewDownloadArticleTool(runner, mover, cfg.VaultDir, rec)
	s.AddTool(downloadArticleTool.Definition(), downloadArticleTool.Handle)

	if ledger != nil {
		historyTool := tools.NewDownloadHistoryTool(ledger)
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when history
// is disabled or hasn't been initialized.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use taibai effectively.
func serverInstructions() string {
	return `You have access to taibai, a Dedao learning-platform MCP server.

Taibai wraps the dedao-dl command-line downloader. Everything substantive —
authentication, content retrieval, format conversion — happens inside
dedao-dl; taibai builds the command lines, runs the tool, and moves the
resulting files into the user's vault directory.

## Typical workflow

1. dedao_version — confirm dedao-dl is installed and current
2. dedao_login — once per session; cookie login is non-interactive,
   QR login renders a code in the server's terminal
3. dedao_list_courses — browse purchased courses (IDs are in the output)
4. dedao_course_details / dedao_article_details — inspect before downloading
5. dedao_download_course / dedao_download_article — fetch content;
   files land in the vault (DEDAO_DOWNLOAD_DIR or ~/.taibai/vault),
   or in the output_dir parameter when given
6. dedao_download_history — see what was already downloaded

## Important rules

- All tools except dedao_version and dedao_login require a logged-in
  session; call dedao_login first when a tool reports "Not logged in".
- Downloads are synchronous and can take minutes for large courses —
  tell the user before starting one.
- Formats: courses support markdown, pdf and mp3; articles support
  markdown and pdf. markdown is the default and the best fit for vaults.
- Errors are passed through verbatim from dedao-dl. Do not retry blindly:
  read the message — an expired cookie needs a fresh dedao_login, a
  missing purchase can't be fixed from here.`
}
