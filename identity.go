package logWatcher

import (
	"fmt"
	"syscall"

	"github.com/spf13/afero"
)

// A FileIdentity uniquely identifies the physical file currently behind a
// path, as opposed to the path itself. It is stable across renames of that
// file and differs once the path points at a replacement.
type FileIdentity struct {
	Device uint64
	Inode  uint64
}

// A FileIdentifier resolves a path to the identity and current size of the
// file behind it. Implementations other than the stat-based one can derive
// identity differently (for example from content), as long as equal
// identities imply the same physical file.
type FileIdentifier interface {
	Identify(filename string) (FileIdentity, int64, error)
}

type statIdentifier struct {
	fs afero.Fs
}

// NewStatIdentifier returns a FileIdentifier that reads device and inode
// numbers from the filesystem. It only works on filesystems whose Stat
// exposes a syscall.Stat_t, which excludes in-memory ones.
func NewStatIdentifier(fs afero.Fs) FileIdentifier {
	return &statIdentifier{fs: fs}
}

func (si *statIdentifier) Identify(filename string) (FileIdentity, int64, error) {
	info, err := si.fs.Stat(filename)
	if err != nil {
		return FileIdentity{}, 0, err
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return FileIdentity{}, 0, fmt.Errorf("filesystem exposes no stat identity for %q", filename)
	}
	return FileIdentity{Device: uint64(st.Dev), Inode: uint64(st.Ino)}, info.Size(), nil
}
