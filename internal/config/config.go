// Package config resolves the directories taibai works in.
//
// Taibai keeps a fixed home at ~/.taibai: dedao-dl runs with that as its
// working directory so its cookie store and output land in one place.
// Downloaded content is relocated from the staging directory into the
// vault, which can be overridden with the DEDAO_DOWNLOAD_DIR env var.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// VaultEnv is the environment variable that overrides the vault directory.
const VaultEnv = "DEDAO_DOWNLOAD_DIR"

// homeDirName is the taibai home directory under $HOME.
const homeDirName = ".taibai"

// Config holds the resolved directory layout for one server process.
type Config struct {
	// WorkDir is dedao-dl's working directory (~/.taibai). The external
	// tool keeps its cookie/session state relative to this directory.
	WorkDir string

	// OutputDir is where dedao-dl stages downloaded files (WorkDir/output).
	OutputDir string

	// VaultDir is the final destination for downloaded content. Taken from
	// DEDAO_DOWNLOAD_DIR when set, otherwise WorkDir/vault.
	VaultDir string
}

// Load resolves the directory layout from $HOME and the environment, and
// creates the working directory if it doesn't exist yet. The vault is not
// created eagerly — the mover creates it on first download.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}

	cfg := FromEnv(home, os.Getenv(VaultEnv))

	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work directory %s: %w", cfg.WorkDir, err)
	}

	return cfg, nil
}

// FromEnv builds a Config from an explicit home directory and vault
// override. Split out from Load so tests can resolve layouts without
// touching the real $HOME or environment.
func FromEnv(home, vaultOverride string) *Config {
	workDir := filepath.Join(home, homeDirName)

	vault := vaultOverride
	if vault == "" {
		vault = filepath.Join(workDir, "vault")
	}

	return &Config{
		WorkDir:   workDir,
		OutputDir: filepath.Join(workDir, "output"),
		VaultDir:  vault,
	}
}
