package files

import (
	"errors"
	"fmt"
)

var (
	ErrNotDirectory = errors.New("not a directory")
	ErrNotTracked   = errors.New("file was not disabled by this tree")
)

// FileMissingError represents an error for a single missing file.
type FileMissingError struct {
	Path string
}

func (e *FileMissingError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// MissingFilesError is a wrapper error that contains one or more FileMissingError instances.
type MissingFilesError struct {
	Errors []*FileMissingError
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("found %d missing files", len(e.Errors))
}
