package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/seedtray/logWatcher"
	"github.com/technoweenie/grohl"
)

// Prints lines appended to a file as they arrive, following it across log
// rotations. Similar to tail -F. With -state, the last read offset is saved
// to a bolt database so a later run resumes where this one stopped.
func main() {
	grohl.AddContext("app", "logwatch")

	var statePath = flag.String("state", "", "Bolt database holding read offsets for resuming. Disabled by default.")
	var poll = flag.Duration("poll", logWatcher.DefaultPollInterval, "Delay between poll cycles.")
	flag.Parse()
	filename := flag.Arg(0)
	if filename == "" {
		flag.Usage()
		os.Exit(1)
	}

	var store *logWatcher.BookmarkStore
	if *statePath != "" {
		var err error
		store, err = logWatcher.OpenBookmarkStore(*statePath)
		if err != nil {
			log.Fatalln(err)
		}
		defer store.Close()
	}

	watcher, err := registerWatcher(filename, store, *poll)
	if err != nil {
		log.Fatalln(err)
	}

	err = watcher.Watch(func(event *logWatcher.LogWatcherEvent, err error) logWatcher.LogWatcherAction {
		if err != nil {
			grohl.Report(err, grohl.Data{"file": filename})
			return logWatcher.Continue
		}
		switch event.Kind {
		case logWatcher.LogRotation:
			grohl.Log(grohl.Data{"file": filename, "msg": "log rotated"})
		default:
			fmt.Printf("%10d: %s\n", watcher.Offset(), event.Line)
		}
		if store != nil {
			if err := store.SetOffset(filename, watcher.Offset()); err != nil {
				grohl.Report(err, grohl.Data{"file": filename, "msg": "failed to save bookmark"})
			}
		}
		return logWatcher.Continue
	})
	if err != nil {
		log.Fatalln(err)
	}
}

// registerWatcher resumes from a saved bookmark when one exists, otherwise
// registers at the end of the file.
func registerWatcher(filename string, store *logWatcher.BookmarkStore, poll time.Duration) (*logWatcher.LogWatcher, error) {
	opts := logWatcher.Options{PollInterval: poll}
	if store != nil {
		offset, found, err := store.Offset(filename)
		if err != nil {
			return nil, err
		}
		if found {
			return logWatcher.RegisterAtOffsetWithOptions(filename, offset, opts)
		}
	}
	return logWatcher.RegisterWithOptions(filename, opts)
}
