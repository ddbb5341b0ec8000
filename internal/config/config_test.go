package config

import (
	"os"
	"path/filepath"
	"testing"
)

// --- FromEnv ---

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv("/home/user", "")

	wantWork := filepath.Join("/home/user", ".taibai")
	if cfg.WorkDir != wantWork {
		t.Errorf("WorkDir = %s, want %s", cfg.WorkDir, wantWork)
	}

	wantOutput := filepath.Join(wantWork, "output")
	if cfg.OutputDir != wantOutput {
		t.Errorf("OutputDir = %s, want %s", cfg.OutputDir, wantOutput)
	}

	wantVault := filepath.Join(wantWork, "vault")
	if cfg.VaultDir != wantVault {
		t.Errorf("VaultDir = %s, want %s", cfg.VaultDir, wantVault)
	}
}

func TestFromEnv_VaultOverride(t *testing.T) {
	cfg := FromEnv("/home/user", "/mnt/vault/Dedao")

	if cfg.VaultDir != "/mnt/vault/Dedao" {
		t.Errorf("VaultDir = %s, want /mnt/vault/Dedao", cfg.VaultDir)
	}

	// The override only changes the vault, not the work/staging layout.
	wantWork := filepath.Join("/home/user", ".taibai")
	if cfg.WorkDir != wantWork {
		t.Errorf("WorkDir = %s, want %s", cfg.WorkDir, wantWork)
	}
}

// --- Load ---

func TestLoad_CreatesWorkDir(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv(VaultEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := os.Stat(cfg.WorkDir); err != nil {
		t.Errorf("work directory should exist after Load: %v", err)
	}
}

func TestLoad_ReadsVaultEnv(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv(VaultEnv, filepath.Join(tmpHome, "my-vault"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := filepath.Join(tmpHome, "my-vault")
	if cfg.VaultDir != want {
		t.Errorf("VaultDir = %s, want %s", cfg.VaultDir, want)
	}
}
