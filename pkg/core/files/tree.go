// Package files exposes the files of a directory tree as removable elements.
// A file is removed by renaming it to "<name>.disabled" and restored by
// renaming it back, so the reduced tree can be inspected and undone by hand.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
)

// DisabledExtension is appended to the name of removed files.
const DisabledExtension = ".disabled"

// Tree manages the physical state (enabled/disabled) of the files below a root.
type Tree struct {
	root     string
	manifest Manifest
	// disabled tracks the files this tree renamed. It is updated *after* a
	// successful rename.
	disabled map[string]bool
}

// Open prepares the tree rooted at root and reads its manifest, if present.
func Open(root string) (*Tree, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening tree '%s': %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening tree '%s': %w", root, ErrNotDirectory)
	}

	t := &Tree{root: root, disabled: make(map[string]bool)}
	m, err := LoadManifestFromPath(filepath.Join(root, ManifestName))
	switch {
	case err == nil:
		t.manifest = m
		logging.Infof("Tree: Loaded %s with %d entries.", ManifestName, len(m))
	case errors.Is(err, fs.ErrNotExist):
		logging.Debugf("Tree: No %s in '%s', files are independent.", ManifestName, root)
	default:
		return nil, err
	}
	return t, nil
}

func (t *Tree) Root() string {
	return t.root
}

func (t *Tree) Manifest() Manifest {
	return t.manifest
}

// Files lists the enabled files, slash separated and relative to the root.
// The manifest and files that are disabled on disk are not elements.
func (t *Tree) Files() ([]string, error) {
	var result []string
	err := filepath.WalkDir(t.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != t.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(t.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ManifestName || strings.HasSuffix(rel, DisabledExtension) {
			return nil
		}
		result = append(result, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing files of '%s': %w", t.root, err)
	}
	sort.Strings(result)
	return result, nil
}

// StateChange represents a single file rename operation.
type StateChange struct {
	File    string
	OldPath string
	NewPath string
	Enable  bool // True if the file became enabled, false if it became disabled.
}

func (t *Tree) change(file string, enable bool) StateChange {
	enabledPath := filepath.Join(t.root, filepath.FromSlash(path.Clean(file)))
	disabledPath := enabledPath + DisabledExtension
	if enable {
		return StateChange{File: file, OldPath: disabledPath, NewPath: enabledPath, Enable: true}
	}
	return StateChange{File: file, OldPath: enabledPath, NewPath: disabledPath}
}

// Disable renames file to its disabled name.
func (t *Tree) Disable(file string) error {
	_, err := t.Apply([]StateChange{t.change(file, false)})
	return err
}

// Enable renames a file disabled by this tree back to its name.
func (t *Tree) Enable(file string) error {
	if !t.disabled[file] {
		return fmt.Errorf("enabling '%s': %w", file, ErrNotTracked)
	}
	_, err := t.Apply([]StateChange{t.change(file, true)})
	return err
}

// IsDisabled reports whether this tree disabled file.
func (t *Tree) IsDisabled(file string) bool {
	return t.disabled[file]
}

// Disabled lists the files this tree disabled, sorted.
func (t *Tree) Disabled() []string {
	var result []string
	for f, ok := range t.disabled {
		if ok {
			result = append(result, f)
		}
	}
	sort.Strings(result)
	return result
}

// Apply performs a batch of renames and returns the changes made. Either all
// changes are applied or none: a missing source file or a hard I/O error
// reverts what was already renamed.
func (t *Tree) Apply(changes []StateChange) ([]StateChange, error) {
	if len(changes) == 0 {
		return nil, nil
	}

	var applied []StateChange
	var missingFileErrors []*FileMissingError

	for _, c := range changes {
		if _, err := os.Stat(c.OldPath); os.IsNotExist(err) {
			if _, err := os.Stat(c.NewPath); err == nil {
				// Already in the target state.
				t.track(c)
				continue
			}
			logging.Warnf("Tree: Source file for '%s' is missing: %s", c.File, c.OldPath)
			missingFileErrors = append(missingFileErrors, &FileMissingError{Path: c.OldPath})
			continue
		}

		if err := os.Rename(c.OldPath, c.NewPath); err != nil {
			logging.Errorf("Tree: A hard I/O error occurred: %v", err)
			t.Revert(applied)
			return nil, fmt.Errorf("failed to rename '%s': %w", filepath.Base(c.OldPath), err)
		}
		t.track(c)
		applied = append(applied, c)
	}

	if len(missingFileErrors) > 0 {
		t.Revert(applied)
		return nil, &MissingFilesError{Errors: missingFileErrors}
	}
	return applied, nil
}

// Revert applies a set of changes in reverse order to restore a previous state.
func (t *Tree) Revert(changes []StateChange) {
	if len(changes) == 0 {
		return
	}
	logging.Debugf("Tree: Reverting %d renames.", len(changes))

	for i := len(changes) - 1; i >= 0; i-- {
		c := changes[i]
		if err := os.Rename(c.NewPath, c.OldPath); err != nil {
			logging.Errorf("Tree: Failed to revert '%s' (%s -> %s): %v", c.File, filepath.Base(c.NewPath), filepath.Base(c.OldPath), err)
			continue
		}
		t.track(StateChange{File: c.File, Enable: !c.Enable})
	}
}

func (t *Tree) track(c StateChange) {
	if c.Enable {
		delete(t.disabled, c.File)
	} else {
		t.disabled[c.File] = true
	}
}

// EnableAll brings back every file this tree disabled.
func (t *Tree) EnableAll() error {
	files := t.Disabled()
	if len(files) == 0 {
		return nil
	}
	logging.Infof("Tree: Enabling %d disabled files.", len(files))

	changes := make([]StateChange, len(files))
	for i, f := range files {
		changes[i] = t.change(f, true)
	}
	if _, err := t.Apply(changes); err != nil {
		return fmt.Errorf("enabling all files: %w", err)
	}
	return nil
}
