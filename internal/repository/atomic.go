package repository

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// CopyOnWriteTx stages changes in a full copy of the data directory and
// swaps it into place on Commit, so readers never observe a suite file
// without its changelog entry.
type CopyOnWriteTx struct {
	baseDir   string // Data directory, e.g. .qakit/
	tempDir   string // Staging copy .qakit.tmp.<nanos>/
	backupDir string // Previous version .qakit.backup.<nanos>/ during the swap
	committed bool
}

// NewCopyOnWriteTx creates a transaction over baseDir.
func NewCopyOnWriteTx(baseDir string) *CopyOnWriteTx {
	stamp := time.Now().UnixNano()
	return &CopyOnWriteTx{
		baseDir:   baseDir,
		tempDir:   fmt.Sprintf("%s.tmp.%d", baseDir, stamp),
		backupDir: fmt.Sprintf("%s.backup.%d", baseDir, stamp),
	}
}

// Begin copies the data directory into the staging area. A missing data
// directory starts from an empty layout.
func (tx *CopyOnWriteTx) Begin() error {
	if _, err := os.Stat(tx.baseDir); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Join(tx.tempDir, suitesDir), 0o755); err != nil {
				return fmt.Errorf("create staging layout: %w", err)
			}
			return nil
		}
		return fmt.Errorf("stat data directory: %w", err)
	}

	if err := copyDirRecursive(tx.baseDir, tx.tempDir); err != nil {
		_ = os.RemoveAll(tx.tempDir)
		return fmt.Errorf("copy data directory: %w", err)
	}
	return nil
}

// WriteFile writes a file relative to the staging directory.
func (tx *CopyOnWriteTx) WriteFile(relativePath string, content []byte) error {
	if tx.committed {
		return fmt.Errorf("transaction already committed")
	}

	fullPath := filepath.Join(tx.tempDir, relativePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RemoveFile deletes a file relative to the staging directory.
func (tx *CopyOnWriteTx) RemoveFile(relativePath string) error {
	if tx.committed {
		return fmt.Errorf("transaction already committed")
	}
	if err := os.Remove(filepath.Join(tx.tempDir, relativePath)); err != nil {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// ReadFile reads a file relative to the staging directory.
func (tx *CopyOnWriteTx) ReadFile(relativePath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(tx.tempDir, relativePath))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Commit swaps the staging directory into place. If the second rename
// fails the previous directory is restored.
func (tx *CopyOnWriteTx) Commit() error {
	if tx.committed {
		return fmt.Errorf("transaction already committed")
	}

	_, err := os.Stat(tx.baseDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.Rename(tx.tempDir, tx.baseDir); err != nil {
			return fmt.Errorf("commit new data directory: %w", err)
		}
	case err != nil:
		return fmt.Errorf("stat data directory: %w", err)
	default:
		if err := os.Rename(tx.baseDir, tx.backupDir); err != nil {
			return fmt.Errorf("backup data directory: %w", err)
		}
		if err := os.Rename(tx.tempDir, tx.baseDir); err != nil {
			if rbErr := os.Rename(tx.backupDir, tx.baseDir); rbErr != nil {
				return fmt.Errorf("commit failed and restore failed: commit error: %w, restore error: %v", err, rbErr)
			}
			return fmt.Errorf("commit data directory (restored): %w", err)
		}
		// A leftover backup does not affect the committed state.
		_ = os.RemoveAll(tx.backupDir)
	}

	tx.committed = true
	return nil
}

// Rollback discards the staging directory.
func (tx *CopyOnWriteTx) Rollback() error {
	if tx.committed {
		return fmt.Errorf("cannot rollback committed transaction")
	}
	if err := os.RemoveAll(tx.tempDir); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// TempDir returns the staging directory path.
func (tx *CopyOnWriteTx) TempDir() string {
	return tx.tempDir
}

// copyDirRecursive copies a tree file by file. Hard links would share
// inodes with the live directory and break rollback.
func copyDirRecursive(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := copyDirRecursive(from, to); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(from, to); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy contents: %w", err)
	}
	return out.Close()
}
