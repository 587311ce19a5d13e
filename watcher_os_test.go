package logWatcher

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

// End-to-end rotation on the real filesystem, with identity coming from
// actual device and inode numbers rather than a scripted token.
func TestWatchSurvivesRealRotation(t *testing.T) {
	g := NewGomegaWithT(t)
	logPath := filepath.Join(t.TempDir(), "app.log")
	g.Expect(os.WriteFile(logPath, nil, 0600)).To(Succeed())

	watcher, err := Register(logPath)
	g.Expect(err).ToNot(HaveOccurred())
	defer watcher.Close()

	appendTo := func(s string) {
		file, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND, 0600)
		g.Expect(err).ToNot(HaveOccurred())
		_, err = file.WriteString(s)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(file.Close()).To(Succeed())
	}

	step := func() (events []LogWatcherEvent) {
		done, err := watcher.Step(func(event *LogWatcherEvent, cbErr error) LogWatcherAction {
			g.Expect(cbErr).ToNot(HaveOccurred())
			events = append(events, *event)
			return Continue
		})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(done).To(BeFalse())
		return events
	}

	appendTo("first\nsecond\n")
	g.Expect(step()).To(Equal([]LogWatcherEvent{
		{Kind: LineEvent, Line: "first"},
		{Kind: LineEvent, Line: "second"},
	}))

	// Rename-and-recreate: the archive keeps the old inode alive, so the
	// replacement necessarily has a different identity.
	g.Expect(os.Rename(logPath, logPath+".1")).To(Succeed())
	g.Expect(os.WriteFile(logPath, nil, 0600)).To(Succeed())
	appendTo("third\n")

	g.Expect(step()).To(Equal([]LogWatcherEvent{
		{Kind: LogRotation},
		{Kind: LineEvent, Line: "third"},
	}))

	// Lines written before the rename are gone for good, not re-delivered.
	g.Expect(step()).To(BeEmpty())
}

func TestWatchRealTruncation(t *testing.T) {
	g := NewGomegaWithT(t)
	logPath := filepath.Join(t.TempDir(), "app.log")
	g.Expect(os.WriteFile(logPath, []byte("a fairly long first line\n"), 0600)).To(Succeed())

	watcher, err := Register(logPath)
	g.Expect(err).ToNot(HaveOccurred())
	defer watcher.Close()

	g.Expect(os.WriteFile(logPath, []byte("x\n"), 0600)).To(Succeed())

	var events []LogWatcherEvent
	done, err := watcher.Step(func(event *LogWatcherEvent, cbErr error) LogWatcherAction {
		g.Expect(cbErr).ToNot(HaveOccurred())
		events = append(events, *event)
		return Continue
	})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(done).To(BeFalse())
	g.Expect(events).To(Equal([]LogWatcherEvent{
		{Kind: LogRotation},
		{Kind: LineEvent, Line: "x"},
	}))
}
