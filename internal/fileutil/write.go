package fileutil

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// WriteAtomic replaces path with data so readers never observe a partial
// file. Missing parent directories are created.
func WriteAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	// atomic.WriteFile creates new files owner-only.
	if os.IsNotExist(statErr) {
		return os.Chmod(path, 0644)
	}
	return nil
}

func WriteIfChanged(path string, data []byte) error {
	_, err := WriteIfChangedTracked(path, data)
	return err
}

func WriteIfChangedTracked(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if err := WriteAtomic(path, data); err != nil {
		return false, err
	}
	return true, nil
}

func EnsureTrailingNewline(data []byte) []byte {
	if bytes.HasSuffix(data, []byte("\n")) {
		return data
	}
	return append(data, '\n')
}
