package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sourcecred/sourcecred-go/internal/clock"
)

// DiskStorage persists the ledger log at a fixed path. Writes go to a
// temporary file in the same directory followed by a rename, so a crash can
// never install a partially written log as the canonical one.
type DiskStorage struct {
	path string
}

// NewDiskStorage returns storage rooted at path (conventionally
// <instance>/data/ledger.json).
func NewDiskStorage(path string) DiskStorage {
	return DiskStorage{path: path}
}

// Path returns the canonical ledger file path.
func (s DiskStorage) Path() string { return s.path }

// Read loads and replays the log. A missing file yields an empty ledger.
func (s DiskStorage) Read(clk clock.Clock) (*Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(clk), nil
		}
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}
	l, err := Parse(clk, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger file %s: %w", s.path, err)
	}
	return l, nil
}

// Write serializes the ledger and atomically replaces the canonical file.
func (s DiskStorage) Write(l *Ledger) error {
	data, err := l.Serialize()
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary ledger file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to install ledger file: %w", err)
	}
	return nil
}
