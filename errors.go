package logWatcher

import (
	"errors"
	"fmt"
	"os"
)

// ErrorKind classifies errors surfaced by a watcher.
type ErrorKind int

const (
	// IoFailure is any OS-level error that is neither NotFound nor
	// PermissionDenied. Treated as transient while watching.
	IoFailure ErrorKind = iota
	// NotFound means the watched path does not currently exist. While
	// watching this is transient: rotations open a window where the path is
	// briefly missing.
	NotFound
	// PermissionDenied means the path exists but cannot be read. While
	// watching this is fatal.
	PermissionDenied
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case PermissionDenied:
		return "permission denied"
	default:
		return "io failure"
	}
}

// A WatchError wraps an OS-level error together with its classification and
// the path it occurred on.
type WatchError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("watch %q: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

// classify wraps err as a WatchError, mapping the common OS predicates onto
// the error taxonomy. An error that already is a WatchError passes through.
func classify(path string, err error) *WatchError {
	var werr *WatchError
	if errors.As(err, &werr) {
		return werr
	}
	kind := IoFailure
	switch {
	case os.IsNotExist(err):
		kind = NotFound
	case os.IsPermission(err):
		kind = PermissionDenied
	}
	return &WatchError{Kind: kind, Path: path, Err: err}
}
