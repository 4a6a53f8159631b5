package app

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/files"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
)

// Workspace is the private copy of the target that a reduction mutates. The
// user's input is never touched.
type Workspace struct {
	// Dir is the working directory of the analysis command.
	Dir string
	// Target is the copy of the target inside Dir.
	Target string
	Kind   string
}

// NewWorkspace copies target below base into a directory named after the run.
// kind may be KindAuto, in which case directories are reduced as files and
// regular files as lines.
func NewWorkspace(base, target, kind, runID string) (*Workspace, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("reading target: %w", err)
	}
	kind, err = resolveKind(kind, info)
	if err != nil {
		return nil, err
	}

	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "delta-reduce-"+runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	ws := &Workspace{Dir: dir, Target: filepath.Join(dir, filepath.Base(filepath.Clean(target))), Kind: kind}
	if info.IsDir() {
		err = copyTree(target, ws.Target, nil)
	} else {
		err = copyFile(target, ws.Target, info.Mode())
	}
	if err != nil {
		return nil, fmt.Errorf("copying target into workspace: %w", err)
	}
	logging.Infof("Workspace: Copied '%s' to '%s' as %s.", target, ws.Target, kind)
	return ws, nil
}

func resolveKind(kind string, info fs.FileInfo) (string, error) {
	switch kind {
	case KindAuto, "":
		if info.IsDir() {
			return KindFiles, nil
		}
		return KindLines, nil
	case KindFiles:
		if !info.IsDir() {
			return "", fmt.Errorf("kind %s needs a directory, '%s' is a file", KindFiles, info.Name())
		}
		return kind, nil
	case KindLines:
		if info.IsDir() {
			return "", fmt.Errorf("kind %s needs a file, '%s' is a directory", KindLines, info.Name())
		}
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Export copies the reduced target to dst. Files that the reduction disabled
// are left out.
func (w *Workspace) Export(dst string) error {
	info, err := os.Stat(w.Target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(w.Target, dst, info.Mode())
	}
	return copyTree(w.Target, dst, func(rel string) bool {
		return strings.HasSuffix(rel, files.DisabledExtension)
	})
}

// Remove deletes the workspace.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Dir)
}

func copyTree(src, dst string, skip func(rel string) bool) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if skip != nil && skip(filepath.ToSlash(rel)) {
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			logging.Debugf("Workspace: Skipping '%s', not a regular file.", rel)
			return nil
		}
		return copyFile(p, target, info.Mode())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
