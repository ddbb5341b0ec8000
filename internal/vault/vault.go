// Package vault relocates dedao-dl's staged output into its final home.
//
// dedao-dl always writes under <workdir>/output; after a successful
// download the staged entries are moved into the vault directory,
// replacing any same-named content already there. Moves are plain renames
// with a copy fallback for cross-device vaults — there is no rollback if
// a move fails partway through.
package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Mover relocates staged downloads into a destination directory.
type Mover struct {
	// StagingDir is where dedao-dl writes its output.
	StagingDir string
}

// NewMover creates a Mover for the given staging directory.
func NewMover(stagingDir string) *Mover {
	return &Mover{StagingDir: stagingDir}
}

// Collect moves every entry of the staging directory into destDir and
// returns the destination paths, sorted for stable output. Existing
// targets with the same name are replaced. A missing staging directory
// is not an error — it means the external tool produced nothing.
func (m *Mover) Collect(destDir string) ([]string, error) {
	entries, err := os.ReadDir(m.StagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading staging directory: %w", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination %s: %w", destDir, err)
	}

	var moved []string
	for _, entry := range entries {
		src := filepath.Join(m.StagingDir, entry.Name())
		dst := filepath.Join(destDir, entry.Name())

		if err := os.RemoveAll(dst); err != nil {
			return moved, fmt.Errorf("replacing %s: %w", dst, err)
		}
		if err := move(src, dst); err != nil {
			return moved, err
		}
		moved = append(moved, dst)
	}

	// Best-effort: drop the emptied staging directory.
	_ = os.Remove(m.StagingDir)

	sort.Strings(moved)
	return moved, nil
}

// move renames src to dst, falling back to copy+delete when rename fails
// (vault on a different filesystem).
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("moving %s: %w", src, err)
	}

	if info.IsDir() {
		err = copyDir(src, dst)
	} else {
		err = copyFile(src, dst, info.Mode())
	}
	if err != nil {
		return err
	}

	return os.RemoveAll(src)
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", srcPath, err)
		}
		if err := copyFile(srcPath, dstPath, info.Mode()); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}
