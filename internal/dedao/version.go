package dedao

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	// upstreamRepo is dedao-dl's GitHub repository path.
	upstreamRepo = "yann0917/dedao-dl"

	// upstreamReleaseURL is the GitHub API endpoint for dedao-dl's
	// latest release.
	upstreamReleaseURL = "https://api.github.com/repos/" + upstreamRepo + "/releases/latest"

	versionCheckTimeout = 10 * time.Second
)

// For testing: allow overriding the release endpoint and HTTP client.
var (
	upstreamEndpoint   = upstreamReleaseURL
	upstreamHTTPClient = &http.Client{Timeout: versionCheckTimeout}
)

// modLineVersion extracts "x.y.z" from the module line of
// `go version -m` output.
var modLineVersion = regexp.MustCompile(`v(\d+\.\d+\.\d+)`)

// VersionInfo describes the installed dedao-dl against the latest release.
type VersionInfo struct {
	Installed       string
	Latest          string
	UpdateAvailable bool
}

// InstalledVersion reads the version baked into the dedao-dl binary via
// `go version -m`. dedao-dl is a Go binary, so its module version is
// embedded in the build info. Returns "" when it can't be determined.
func InstalledVersion(ctx context.Context, binary string) string {
	path, err := exec.LookPath(binary)
	if err != nil {
		return ""
	}

	out, err := exec.CommandContext(ctx, "go", "version", "-m", path).Output()
	if err != nil {
		return ""
	}

	return parseModVersion(string(out))
}

// parseModVersion finds the dedao-dl module line in `go version -m` output
// and extracts its semver.
func parseModVersion(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "mod\tgithub.com/"+upstreamRepo) {
			continue
		}
		if m := modLineVersion.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// LatestVersion queries GitHub for dedao-dl's newest release tag.
// Best-effort: network failures return "".
func LatestVersion(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, "GET", upstreamEndpoint, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "taibai")

	resp, err := upstreamHTTPClient.Do(req)
	if err != nil {
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return ""
	}

	return strings.TrimPrefix(release.TagName, "v")
}

// CheckVersion compares the installed dedao-dl against the latest release.
func CheckVersion(ctx context.Context, binary string) VersionInfo {
	info := VersionInfo{
		Installed: InstalledVersion(ctx, binary),
		Latest:    LatestVersion(ctx),
	}
	info.UpdateAvailable = versionLess(info.Installed, info.Latest)
	return info
}

// Describe renders a VersionInfo as the human-readable status message
// returned by the dedao_version tool.
func (v VersionInfo) Describe() string {
	if v.Installed == "" {
		return "Unable to determine installed dedao-dl version"
	}
	if v.Latest == "" {
		return fmt.Sprintf("Using dedao-dl v%s", v.Installed)
	}
	if v.UpdateAvailable {
		return fmt.Sprintf(
			"dedao-dl v%s is installed (latest: v%s)\nUpdate with: %s",
			v.Installed, v.Latest, InstallHint,
		)
	}
	return fmt.Sprintf("Using dedao-dl v%s (up to date)", v.Installed)
}

// versionLess returns true if current is a lower version than latest.
// Compares semver parts numerically.
func versionLess(current, latest string) bool {
	if current == "" || latest == "" {
		return false
	}

	currentParts := strings.Split(current, ".")
	latestParts := strings.Split(latest, ".")

	for len(currentParts) < 3 {
		currentParts = append(currentParts, "0")
	}
	for len(latestParts) < 3 {
		latestParts = append(latestParts, "0")
	}

	for i := 0; i < 3; i++ {
		c := parseIntPrefix(currentParts[i])
		l := parseIntPrefix(latestParts[i])
		if l > c {
			return true
		}
		if l < c {
			return false
		}
	}

	return false
}

// parseIntPrefix converts the leading digits of a string to int.
func parseIntPrefix(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			break
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
