package logWatcher

// EventKind discriminates the variants of a LogWatcherEvent.
type EventKind int

const (
	// LineEvent carries one newline-delimited record, terminator stripped.
	LineEvent EventKind = iota
	// LogRotation signals that the file at the watched path was replaced or
	// truncated. It carries no line payload.
	LogRotation
)

// A LogWatcherEvent is delivered to the watch callback once per produced event.
type LogWatcherEvent struct {
	Kind EventKind
	Line string // set only when Kind is LineEvent
}

// LogWatcherAction is returned by the watch callback and steers the watcher.
type LogWatcherAction int

const (
	// Continue keeps watching.
	Continue LogWatcherAction = iota
	// SeekToEnd skips any not-yet-delivered content by moving the read offset
	// to the current end of file. The carried partial line is discarded.
	SeekToEnd
	// Finish stops the watch loop. Events already produced in the current poll
	// cycle but not yet dispatched are dropped.
	Finish
)

// A Callback receives each watch result. Exactly one of event and err is
// non-nil per invocation. Its returned action is applied before the next
// result is dispatched.
type Callback func(event *LogWatcherEvent, err error) LogWatcherAction
