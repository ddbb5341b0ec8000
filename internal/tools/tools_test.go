package tools

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/taibai-mcp/taibai/internal/dedao"
	"github.com/taibai-mcp/taibai/internal/history"
	"github.com/taibai-mcp/taibai/internal/vault"
)

// --- Test helpers ---

// fakeRunner records every invocation instead of spawning dedao-dl.
type fakeRunner struct {
	calls       [][]string
	interactive [][]string

	out       string
	runErr    error
	installed bool
	loggedIn  bool

	// onRun simulates side effects of the external tool, e.g. staging
	// output files before the mover collects them.
	onRun func(args []string)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{installed: true, loggedIn: true}
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	if f.onRun != nil {
		f.onRun(args)
	}
	if f.runErr != nil {
		return "", f.runErr
	}
	return f.out, nil
}

func (f *fakeRunner) RunInteractive(_ context.Context, args ...string) error {
	f.interactive = append(f.interactive, args)
	return f.runErr
}

func (f *fakeRunner) Installed() bool { return f.installed }

func (f *fakeRunner) LoggedIn(_ context.Context) bool { return f.loggedIn }

// fakeLedger records Ledger calls.
type fakeLedger struct {
	kinds      []history.Kind
	contentIDs []string
	formats    []string
	dests      []string
	fileCounts []int
}

func (f *fakeLedger) Record(kind history.Kind, contentID, format, dest string, fileCount int) (int64, error) {
	f.kinds = append(f.kinds, kind)
	f.contentIDs = append(f.contentIDs, contentID)
	f.formats = append(f.formats, format)
	f.dests = append(f.dests, dest)
	f.fileCounts = append(f.fileCounts, fileCount)
	return int64(len(f.kinds)), nil
}

// newRequest builds a CallToolRequest with the given arguments.
func newRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// stageOutput returns a staging dir and an onRun hook that populates it
// with the given files, simulating a successful dedao-dl download.
func stageOutput(t *testing.T, files map[string]string) (string, func([]string)) {
	t.Helper()
	staging := filepath.Join(t.TempDir(), "output")

	return staging, func([]string) {
		for rel, content := range files {
			path := filepath.Join(staging, rel)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatalf("staging mkdir: %v", err)
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("staging write: %v", err)
			}
		}
	}
}

// --- LoginTool ---

func TestLoginTool_PlainLogin(t *testing.T) {
	runner := newFakeRunner()
	runner.out = "Welcome back"
	tool := NewLoginTool(runner)

	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	want := [][]string{{"login"}}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
	if getResultText(result) != "Welcome back" {
		t.Errorf("result = %q, want the subprocess output", getResultText(result))
	}
}

func TestLoginTool_CookieLogin(t *testing.T) {
	runner := newFakeRunner()
	tool := NewLoginTool(runner)

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"cookie": "GAT=abc; ISID=def",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	want := [][]string{{"login", "--cookie", "GAT=abc; ISID=def"}}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
	if getResultText(result) != "Login successful" {
		t.Errorf("result = %q, want default success message on empty output", getResultText(result))
	}
}

func TestLoginTool_QRCodeIsInteractive(t *testing.T) {
	runner := newFakeRunner()
	tool := NewLoginTool(runner)

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"qrcode": true,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	want := [][]string{{"login", "-q"}}
	if !reflect.DeepEqual(runner.interactive, want) {
		t.Errorf("interactive calls = %v, want %v", runner.interactive, want)
	}
	if len(runner.calls) != 0 {
		t.Errorf("captured calls = %v, QR login must run interactively", runner.calls)
	}
	if !strings.Contains(getResultText(result), "QR code login completed") {
		t.Errorf("result = %q, want QR completion notice", getResultText(result))
	}
}

func TestLoginTool_NotInstalled(t *testing.T) {
	runner := newFakeRunner()
	runner.installed = false
	tool := NewLoginTool(runner)

	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result when dedao-dl is missing")
	}
	if !strings.Contains(getResultText(result), dedao.InstallHint) {
		t.Errorf("result = %q, want install hint", getResultText(result))
	}
}

// --- ListCoursesTool ---

func TestListCoursesTool_Basic(t *testing.T) {
	runner := newFakeRunner()
	runner.out = "| 123 | Some Course |"
	tool := NewListCoursesTool(runner)

	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	want := [][]string{{"course"}}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
	if getResultText(result) != "| 123 | Some Course |" {
		t.Errorf("result = %q, want pass-through of subprocess output", getResultText(result))
	}
}

func TestListCoursesTool_IncludeDetails(t *testing.T) {
	runner := newFakeRunner()
	tool := NewListCoursesTool(runner)

	if _, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"include_details": true,
	})); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	last := runner.calls[len(runner.calls)-1]
	want := []string{"course", "-d"}
	if !reflect.DeepEqual(last, want) {
		t.Errorf("argv = %v, want %v", last, want)
	}
}

func TestListCoursesTool_NotLoggedIn(t *testing.T) {
	runner := newFakeRunner()
	runner.loggedIn = false
	tool := NewListCoursesTool(runner)

	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result when not logged in")
	}
	if !strings.Contains(getResultText(result), "dedao_login") {
		t.Errorf("result = %q, should point at dedao_login", getResultText(result))
	}
}

func TestListCoursesTool_SubprocessFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.runErr = &dedao.CommandError{
		Args:     []string{"course"},
		ExitCode: 1,
		Stderr:   "cookie expired",
	}
	tool := NewListCoursesTool(runner)

	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("non-zero exit must never yield a success response")
	}
	if !strings.Contains(getResultText(result), "cookie expired") {
		t.Errorf("result = %q, want captured stderr text", getResultText(result))
	}
}

// --- CourseDetailsTool ---

func TestCourseDetailsTool_Argv(t *testing.T) {
	runner := newFakeRunner()
	tool := NewCourseDetailsTool(runner)

	if _, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"course_id": "743",
	})); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	last := runner.calls[len(runner.calls)-1]
	want := []string{"detail", "743"}
	if !reflect.DeepEqual(last, want) {
		t.Errorf("argv = %v, want %v", last, want)
	}
}

func TestCourseDetailsTool_MissingID(t *testing.T) {
	tool := NewCourseDetailsTool(newFakeRunner())

	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result for missing course_id")
	}
}

// --- DownloadCourseTool ---

func TestDownloadCourseTool_MarkdownArgv(t *testing.T) {
	staging, onRun := stageOutput(t, map[string]string{"743/01.md": "lesson"})
	runner := newFakeRunner()
	runner.onRun = onRun

	vaultDir := filepath.Join(t.TempDir(), "vault")
	ledger := &fakeLedger{}
	tool := NewDownloadCourseTool(runner, vault.NewMover(staging), vaultDir, ledger)

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"course_id": "743",
		"format":    "markdown",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected error result: %s", getResultText(result))
	}

	last := runner.calls[len(runner.calls)-1]
	want := []string{"dl", "743", "-t", "3", "-c"}
	if !reflect.DeepEqual(last, want) {
		t.Errorf("argv = %v, want %v", last, want)
	}

	// Files end up under the vault and the response references them.
	moved := filepath.Join(vaultDir, "743", "01.md")
	if _, err := os.Stat(moved); err != nil {
		t.Errorf("downloaded file should be in the vault: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "Course 743 downloaded successfully") {
		t.Errorf("result = %q, want confirmation", text)
	}
	if !strings.Contains(text, filepath.Join(vaultDir, "743")) {
		t.Errorf("result = %q, want relocated path listed", text)
	}

	// Ledger recorded the download.
	if len(ledger.kinds) != 1 || ledger.kinds[0] != history.KindCourse {
		t.Errorf("ledger kinds = %v, want one course entry", ledger.kinds)
	}
	if ledger.contentIDs[0] != "743" || ledger.formats[0] != "markdown" {
		t.Errorf("ledger entry = %s/%s, want 743/markdown", ledger.contentIDs[0], ledger.formats[0])
	}
	if ledger.dests[0] != vaultDir {
		t.Errorf("ledger dest = %s, want %s", ledger.dests[0], vaultDir)
	}
}

func TestDownloadCourseTool_FormatFlags(t *testing.T) {
	tests := []struct {
		format string
		flag   string
	}{
		{"mp3", "1"},
		{"pdf", "2"},
		{"markdown", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			runner := newFakeRunner()
			staging := filepath.Join(t.TempDir(), "output")
			tool := NewDownloadCourseTool(runner, vault.NewMover(staging), t.TempDir(), nil)

			if _, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
				"course_id": "42",
				"format":    tt.format,
			})); err != nil {
				t.Fatalf("Handle: %v", err)
			}

			last := runner.calls[len(runner.calls)-1]
			want := []string{"dl", "42", "-t", tt.flag, "-c"}
			if !reflect.DeepEqual(last, want) {
				t.Errorf("argv = %v, want %v", last, want)
			}
		})
	}
}

func TestDownloadCourseTool_DefaultsToMarkdown(t *testing.T) {
	runner := newFakeRunner()
	staging := filepath.Join(t.TempDir(), "output")
	tool := NewDownloadCourseTool(runner, vault.NewMover(staging), t.TempDir(), nil)

	if _, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"course_id": "42",
	})); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	last := runner.calls[len(runner.calls)-1]
	want := []string{"dl", "42", "-t", "3", "-c"}
	if !reflect.DeepEqual(last, want) {
		t.Errorf("argv = %v, want markdown default %v", last, want)
	}
}

func TestDownloadCourseTool_InvalidFormat(t *testing.T) {
	staging := filepath.Join(t.TempDir(), "output")
	tool := NewDownloadCourseTool(newFakeRunner(), vault.NewMover(staging), t.TempDir(), nil)

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"course_id": "42",
		"format":    "epub",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result for unsupported format")
	}
}

func TestDownloadCourseTool_OutputDirOverride(t *testing.T) {
	staging, onRun := stageOutput(t, map[string]string{"x.md": "y"})
	runner := newFakeRunner()
	runner.onRun = onRun

	override := filepath.Join(t.TempDir(), "elsewhere")
	tool := NewDownloadCourseTool(runner, vault.NewMover(staging), t.TempDir(), nil)

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"course_id":  "42",
		"output_dir": override,
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if _, err := os.Stat(filepath.Join(override, "x.md")); err != nil {
		t.Errorf("file should be under the override directory: %v", err)
	}
	if !strings.Contains(getResultText(result), override) {
		t.Errorf("result = %q, want override destination mentioned", getResultText(result))
	}
}

func TestDownloadCourseTool_SubprocessFailureSkipsMove(t *testing.T) {
	runner := newFakeRunner()
	runner.runErr = &dedao.CommandError{
		Args:     []string{"dl", "42"},
		ExitCode: 1,
		Stderr:   "course not purchased",
	}

	staging := filepath.Join(t.TempDir(), "output")
	vaultDir := filepath.Join(t.TempDir(), "vault")
	ledger := &fakeLedger{}
	tool := NewDownloadCourseTool(runner, vault.NewMover(staging), vaultDir, ledger)

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"course_id": "42",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result on download failure")
	}
	if !strings.Contains(getResultText(result), "course not purchased") {
		t.Errorf("result = %q, want subprocess stderr", getResultText(result))
	}
	if _, err := os.Stat(vaultDir); !os.IsNotExist(err) {
		t.Error("vault should not be created when the download failed")
	}
	if len(ledger.kinds) != 0 {
		t.Error("failed download must not be recorded in history")
	}
}

func TestDownloadCourseTool_NilLedger(t *testing.T) {
	staging, onRun := stageOutput(t, map[string]string{"x.md": "y"})
	runner := newFakeRunner()
	runner.onRun = onRun
	tool := NewDownloadCourseTool(runner, vault.NewMover(staging), t.TempDir(), nil)

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"course_id": "42",
	}))
	if err != nil {
		t.Fatalf("Handle with nil ledger: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected error result: %s", getResultText(result))
	}
}

// --- ArticleDetailsTool ---

func TestArticleDetailsTool_Argv(t *testing.T) {
	runner := newFakeRunner()
	tool := NewArticleDetailsTool(runner)

	if _, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"article_id": "9001",
	})); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	last := runner.calls[len(runner.calls)-1]
	want := []string{"article", "detail", "9001"}
	if !reflect.DeepEqual(last, want) {
		t.Errorf("argv = %v, want %v", last, want)
	}
}

// --- DownloadArticleTool ---

func TestDownloadArticleTool_Argv(t *testing.T) {
	staging, onRun := stageOutput(t, map[string]string{"article.md": "text"})
	runner := newFakeRunner()
	runner.onRun = onRun

	vaultDir := filepath.Join(t.TempDir(), "vault")
	ledger := &fakeLedger{}
	tool := NewDownloadArticleTool(runner, vault.NewMover(staging), vaultDir, ledger)

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"article_id": "9001",
		"format":     "pdf",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	last := runner.calls[len(runner.calls)-1]
	want := []string{"article", "dl", "9001", "-t", "2"}
	if !reflect.DeepEqual(last, want) {
		t.Errorf("argv = %v, want %v", last, want)
	}

	if _, err := os.Stat(filepath.Join(vaultDir, "article.md")); err != nil {
		t.Errorf("article should be in the vault: %v", err)
	}
	if !strings.Contains(getResultText(result), "Article 9001 downloaded successfully") {
		t.Errorf("result = %q, want confirmation", getResultText(result))
	}
	if len(ledger.kinds) != 1 || ledger.kinds[0] != history.KindArticle {
		t.Errorf("ledger kinds = %v, want one article entry", ledger.kinds)
	}
}

func TestDownloadArticleTool_RejectsMp3(t *testing.T) {
	staging := filepath.Join(t.TempDir(), "output")
	tool := NewDownloadArticleTool(newFakeRunner(), vault.NewMover(staging), t.TempDir(), nil)

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"article_id": "9001",
		"format":     "mp3",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("articles have no mp3 format — expected error result")
	}
}

// --- VersionTool ---

func TestVersionTool_ReportsStatus(t *testing.T) {
	runner := newFakeRunner()
	tool := NewVersionTool(runner)
	tool.check = func(context.Context, string) dedao.VersionInfo {
		return dedao.VersionInfo{Installed: "2.10.1", Latest: "2.10.1"}
	}

	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := getResultText(result); got != "Using dedao-dl v2.10.1 (up to date)" {
		t.Errorf("result = %q, want up-to-date message", got)
	}
}

func TestVersionTool_NotInstalled(t *testing.T) {
	runner := newFakeRunner()
	runner.installed = false
	tool := NewVersionTool(runner)

	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result when dedao-dl is missing")
	}
}

// --- DownloadHistoryTool ---

func TestDownloadHistoryTool_ListsEntries(t *testing.T) {
	store, err := history.New(history.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("history.New: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := store.Record(history.KindCourse, "743", "markdown", "/vault", 3); err != nil {
		t.Fatalf("Record: %v", err)
	}

	tool := NewDownloadHistoryTool(store)
	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	text := getResultText(result)
	if !strings.Contains(text, "course 743") {
		t.Errorf("result = %q, want the recorded course", text)
	}
	if !strings.Contains(text, "markdown") || !strings.Contains(text, "/vault") {
		t.Errorf("result = %q, want format and destination", text)
	}
}

func TestDownloadHistoryTool_Empty(t *testing.T) {
	store, err := history.New(history.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("history.New: %v", err)
	}
	defer func() { _ = store.Close() }()

	tool := NewDownloadHistoryTool(store)
	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(getResultText(result), "No downloads recorded") {
		t.Errorf("result = %q, want empty-ledger message", getResultText(result))
	}
}
