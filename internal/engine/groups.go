package engine

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/snipdeck/snipdeck/internal/codec"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/snipdeck/snipdeck/internal/store"
)

// GroupPath returns the file a group of kind and name is stored in.
// workspaceRoot is only used for workspace groups; when empty the single
// configured workspace folder is used.
func (e *Engine) GroupPath(kind snippet.Kind, name, workspaceRoot string) (string, error) {
	name = strings.TrimSpace(name)
	layout := e.store.Layout()

	var dir string
	switch kind.Location() {
	case snippet.LocationUserDir:
		if layout.UserDir == "" {
			return "", snippet.Invalid("kind", "no user snippet directory is configured")
		}
		dir = layout.UserDir
	case snippet.LocationWorkspace:
		root, err := resolveWorkspace(layout, workspaceRoot)
		if err != nil {
			return "", err
		}
		dir = layout.WorkspaceDir(root)
	default:
		return "", snippet.Invalid("kind", "unknown group kind %d", int(kind))
	}
	return filepath.Join(dir, name+kind.Suffix()), nil
}

func resolveWorkspace(layout store.Layout, root string) (string, error) {
	if root != "" {
		return root, nil
	}
	var folders []store.Workspace
	if layout.Folders != nil {
		folders = layout.Folders.WorkspaceFolders()
	}
	switch len(folders) {
	case 0:
		return "", snippet.Invalid("workspace", "no workspace folder is open")
	case 1:
		return folders[0].Root, nil
	default:
		return "", snippet.Invalid("workspace", "choose one of %d workspace folders", len(folders))
	}
}

// AddGroup creates an empty group file and rediscovers groups.
func (e *Engine) AddGroup(ctx context.Context, kind snippet.Kind, name, workspaceRoot string) (*snippet.Group, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateGroupName(name); err != nil {
		return nil, err
	}
	path, err := e.GroupPath(kind, name, workspaceRoot)
	if err != nil {
		return nil, err
	}
	if err := e.ensureFree(path); err != nil {
		return nil, err
	}

	data, err := codec.Serialize(nil)
	if err != nil {
		return nil, err
	}
	if err := e.fs.WriteFile(path, data); err != nil {
		return nil, &snippet.IOError{Op: "create", Path: path, Err: err}
	}

	e.rescanAll(ctx)
	e.notify(nil)

	g, ok := e.store.ByPath(path)
	if !ok {
		return nil, snippet.GroupNotFound(path)
	}
	return g, nil
}

// RenameGroup renames the backing file of the group at path. The old path is
// invalidated in the same step the new one becomes visible.
func (e *Engine) RenameGroup(ctx context.Context, path, newName string) (*snippet.Group, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, err := e.group(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateGroupName(newName); err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)
	if newName == g.Name {
		return g, nil
	}

	newPath := filepath.Join(filepath.Dir(g.FilePath), newName+g.Kind.Suffix())
	if err := e.ensureFree(newPath); err != nil {
		return nil, err
	}

	e.closeAll(ctx)

	if err := e.fs.Rename(g.FilePath, newPath); err != nil {
		e.resync(ctx, g.FilePath)
		return nil, &snippet.IOError{Op: "rename", Path: g.FilePath, Err: err}
	}

	e.store.Relocate(g.FilePath, newPath)
	e.resync(ctx, newPath)
	e.notify(nil)

	renamed, ok := e.store.ByPath(newPath)
	if !ok {
		return nil, snippet.GroupNotFound(newPath)
	}
	return renamed, nil
}

// DeleteGroup removes the group file after closing every editor that could
// write into it.
func (e *Engine) DeleteGroup(ctx context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	g, err := e.group(path)
	if err != nil {
		return err
	}

	e.closeAll(ctx)

	if err := e.fs.Remove(g.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.resync(ctx, g.FilePath)
		return &snippet.IOError{Op: "delete", Path: g.FilePath, Err: err}
	}

	e.store.Drop(g.FilePath)
	e.notify(nil)
	return nil
}

func (e *Engine) ensureFree(path string) error {
	if _, ok := e.store.ByPath(path); ok {
		return snippet.Invalid("name", "group file %s already exists", filepath.Base(path))
	}
	if _, err := e.fs.Stat(path); err == nil {
		return snippet.Invalid("name", "file %s already exists", filepath.Base(path))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &snippet.IOError{Op: "inspect", Path: path, Err: err}
	}
	return nil
}
