package logWatcher

import (
	"io"
	"time"

	"github.com/spf13/afero"
	"github.com/technoweenie/grohl"
)

// DefaultPollInterval is the delay between poll cycles in Watch when Options
// does not override it.
const DefaultPollInterval = 250 * time.Millisecond

// Options configure a LogWatcher beyond the minimal contract. The zero value
// is usable: OS filesystem, stat-based identity, default poll interval.
type Options struct {
	// PollInterval controls the delay between poll cycles in Watch.
	PollInterval time.Duration

	// Fs is the filesystem the watcher reads from. Defaults to the OS one.
	Fs afero.Fs

	// Identifier resolves the watched path to an identity and size. Defaults
	// to a stat-based identifier over Fs.
	Identifier FileIdentifier

	// Logger receives structured diagnostics about rotations and errors.
	Logger *grohl.Context
}

// A LogWatcher tails a single growing text file and survives replacement or
// truncation of the file behind the watched path. All mutable state (open
// handle, identity snapshot, read offset, residual bytes) is owned
// exclusively by the watcher; it is not safe for concurrent use.
type LogWatcher struct {
	filename     string
	fs           afero.Fs
	identifier   FileIdentifier
	logger       *grohl.Context
	pollInterval time.Duration

	// file is nil while a detected rotation is waiting for the replacement
	// file to appear at the path.
	file     afero.File
	identity FileIdentity
	reader   *LineReader
}

// Register opens filename for reading and positions the watcher at its
// current end, so only content appended after registration is delivered.
func Register(filename string) (*LogWatcher, error) {
	return RegisterAtOffsetWithOptions(filename, -1, Options{})
}

// RegisterWithOptions is Register with explicit Options.
func RegisterWithOptions(filename string, opts Options) (*LogWatcher, error) {
	return RegisterAtOffsetWithOptions(filename, -1, opts)
}

// RegisterAtOffset opens filename for reading and positions the watcher at a
// known byte offset, typically one saved in a BookmarkStore. An offset past
// the current end of file registers at the end instead.
func RegisterAtOffset(filename string, offset int64) (*LogWatcher, error) {
	return RegisterAtOffsetWithOptions(filename, offset, Options{})
}

// RegisterAtOffsetWithOptions is RegisterAtOffset with explicit Options.
// A negative offset means end of file.
func RegisterAtOffsetWithOptions(filename string, offset int64, opts Options) (*LogWatcher, error) {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	identifier := opts.Identifier
	if identifier == nil {
		identifier = NewStatIdentifier(fs)
	}
	logger := opts.Logger
	if logger == nil {
		logger = grohl.NewContext(grohl.Data{"ns": "LogWatcher"})
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	file, err := fs.Open(filename)
	if err != nil {
		return nil, classify(filename, err)
	}
	identity, _, err := identifier.Identify(filename)
	if err != nil {
		file.Close()
		return nil, classify(filename, err)
	}
	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, classify(filename, err)
	}
	if offset < 0 || offset > size {
		offset = size
	}
	reader, err := NewLineReaderAtPosition(file, offset)
	if err != nil {
		file.Close()
		return nil, classify(filename, err)
	}

	return &LogWatcher{
		filename:     filename,
		fs:           fs,
		identifier:   identifier,
		logger:       logger,
		pollInterval: pollInterval,
		file:         file,
		identity:     identity,
		reader:       reader,
	}, nil
}

// Filename returns the watched path.
func (w *LogWatcher) Filename() string {
	return w.filename
}

// Offset returns the byte offset within the current file at which the next
// read starts. Callers can save it between callbacks and resume later with
// RegisterAtOffset.
func (w *LogWatcher) Offset() int64 {
	return w.reader.Position()
}

// Watch runs poll cycles until a callback returns Finish or a fatal error
// occurs, sleeping the configured poll interval between cycles. It blocks the
// calling goroutine for its whole duration and invokes the callback in-line,
// so a slow callback stalls the loop. The watcher is closed when Watch
// returns and must not be reused.
//
// Watch returns nil when stopped by Finish, or the fatal WatchError after it
// has been reported to the callback.
func (w *LogWatcher) Watch(callback Callback) error {
	defer w.Close()
	for {
		done, err := w.Step(callback)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		time.Sleep(w.pollInterval)
	}
}

// Step runs exactly one poll cycle with no idle delay: one rotation check, a
// reopen if the file was replaced, one read to end of file, and a callback
// invocation per produced event or error. Callers integrating the watcher
// into their own loops choose the pacing themselves and should Close the
// watcher when finished.
//
// Rotation is detected when the path resolves to a different identity than
// the open file, or to the same identity with a size below the current read
// offset. The size check is best effort: a file legitimately rewritten
// shorter in place is indistinguishable from a truncation. A momentarily
// missing path is not a rotation; it is reported as a transient error and
// retried on the next cycle.
//
// The returned bool is true once a callback asked to Finish. The returned
// error is non-nil only for fatal conditions, after they were reported to the
// callback.
func (w *LogWatcher) Step(callback Callback) (bool, error) {
	if w.file == nil {
		done, err := w.reopen(callback)
		if done || err != nil || w.file == nil {
			return done, err
		}
	} else {
		identity, size, err := w.identifier.Identify(w.filename)
		if err != nil {
			return w.dispatchError(callback, classify(w.filename, err))
		}
		if identity != w.identity || size < w.reader.Position() {
			w.logger.Log(grohl.Data{"file": w.filename, "msg": "rotation detected"})
			w.closeFile()
			done, err := w.reopen(callback)
			if done || err != nil || w.file == nil {
				return done, err
			}
		}
	}

	for {
		line, _, err := w.reader.ReadLine()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return w.dispatchError(callback, classify(w.filename, err))
		}
		if done := w.applyAction(callback(&LogWatcherEvent{Kind: LineEvent, Line: line}, nil)); done {
			return true, nil
		}
	}
}

// Close releases the open file handle. It is safe to call more than once.
func (w *LogWatcher) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// reopen opens the replacement file after a rotation, resets the read offset
// to zero and dispatches the LogRotation event. If the path is still missing
// (the rename window), the error is dispatched as transient and the reopen is
// retried on the next cycle, so the rotation event always precedes any lines
// from the replacement file.
func (w *LogWatcher) reopen(callback Callback) (bool, error) {
	file, err := w.fs.Open(w.filename)
	if err != nil {
		return w.dispatchError(callback, classify(w.filename, err))
	}
	identity, _, err := w.identifier.Identify(w.filename)
	if err != nil {
		file.Close()
		return w.dispatchError(callback, classify(w.filename, err))
	}
	w.file = file
	w.identity = identity
	w.reader.Reset(file, 0)
	w.logger.Log(grohl.Data{"file": w.filename, "msg": "reopened after rotation"})
	return w.applyAction(callback(&LogWatcherEvent{Kind: LogRotation}, nil)), nil
}

// dispatchError reports a classified error to the callback. Transient kinds
// leave the continue/stop decision to the callback; PermissionDenied is
// reported once and then stops the watcher regardless of the returned action.
func (w *LogWatcher) dispatchError(callback Callback, werr *WatchError) (bool, error) {
	if werr.Kind == PermissionDenied {
		w.logger.Report(werr, grohl.Data{"file": w.filename, "resolution": "stopping"})
		callback(nil, werr)
		return true, werr
	}
	w.logger.Report(werr, grohl.Data{"file": w.filename, "resolution": "retrying next cycle"})
	return w.applyAction(callback(nil, werr)), nil
}

// applyAction interprets a callback's returned action. It reports whether the
// watcher should stop.
func (w *LogWatcher) applyAction(action LogWatcherAction) bool {
	switch action {
	case Finish:
		return true
	case SeekToEnd:
		if w.file == nil {
			return false
		}
		size, err := w.file.Seek(0, io.SeekEnd)
		if err != nil {
			w.logger.Report(err, grohl.Data{"file": w.filename, "msg": "seek to end failed"})
			return false
		}
		w.reader.Reset(w.file, size)
	}
	return false
}

func (w *LogWatcher) closeFile() {
	if w.file == nil {
		return
	}
	if err := w.file.Close(); err != nil {
		w.logger.Report(err, grohl.Data{"file": w.filename, "msg": "close failed"})
	}
	w.file = nil
}
