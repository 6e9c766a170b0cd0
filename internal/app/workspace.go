package app

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/swift-nav/flow/internal/domain"
)

// WorkspaceOptions configures WithWorkspace, per spec.md section 4.2.
type WorkspaceOptions struct {
	// NoCopy, when true, skips seeding the workspace with a copy of the
	// current working directory.
	NoCopy bool
	// Local, when true, uses a stable local path instead of a fresh
	// temporary directory. Used for debugging.
	Local bool
	// LocalDir overrides the stable path used when Local is set. If
	// empty, a directory keyed by uid under os.TempDir() is used.
	LocalDir string
}

// Workspace is the fixed four-directory layout every activity runs
// against.
type Workspace struct {
	Root        string
	Data        string
	Store       string
	StoreInput  string
	StoreOutput string
}

// WithWorkspace creates a unique scratch tree for uid, builds the fixed
// data/, store/, store/input/, store/output/ layout, optionally seeds it
// with a copy of the current working directory, runs fn with the
// command's working directory set to the root, and deletes the root on
// every exit path — including when fn returns an error.
func WithWorkspace(uid domain.Uid, opts WorkspaceOptions, fn func(Workspace) error) error {
	root, err := workspaceRoot(uid, opts)
	if err != nil {
		return err
	}
	defer os.RemoveAll(root)

	ws := Workspace{
		Root:        root,
		Data:        filepath.Join(root, "data"),
		Store:       filepath.Join(root, "store"),
		StoreInput:  filepath.Join(root, "store", "input"),
		StoreOutput: filepath.Join(root, "store", "output"),
	}
	for _, dir := range []string{ws.Data, ws.StoreInput, ws.StoreOutput} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if !opts.NoCopy {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := copyTree(cwd, root); err != nil {
			return err
		}
	}

	return fn(ws)
}

func workspaceRoot(uid domain.Uid, opts WorkspaceOptions) (string, error) {
	if opts.Local {
		dir := opts.LocalDir
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "flow-workspace", string(uid))
		}
		if err := os.RemoveAll(dir); err != nil {
			return "", err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
		return dir, nil
	}
	return os.MkdirTemp("", "flow-workspace-*")
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
