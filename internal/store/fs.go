package store

import (
	"io/fs"
	"os"

	"github.com/snipdeck/snipdeck/internal/fileutil"
)

// FileSystem is the directory-listing and file I/O collaborator the store and
// the engine operate through.
type FileSystem interface {
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Rename(oldPath, newPath string) error
	Remove(name string) error
	MkdirAll(path string) error
	Stat(name string) (fs.FileInfo, error)
}

// OSFileSystem is the FileSystem backed by the local disk. Writes replace the
// target atomically.
type OSFileSystem struct{}

func (OSFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (OSFileSystem) WriteFile(name string, data []byte) error {
	return fileutil.WriteAtomic(name, data)
}

func (OSFileSystem) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (OSFileSystem) Remove(name string) error {
	return os.Remove(name)
}

func (OSFileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}
