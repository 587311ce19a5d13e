package logWatcher

import (
	"strconv"
	"time"

	"github.com/boltdb/bolt"
)

const bookmarkBucket = "bookmarks"

// A BookmarkStore durably records the last read offset per watched path, so a
// restarted process can resume with RegisterAtOffset instead of re-reading or
// skipping content. Offsets are only meaningful as long as the file they were
// taken from has not been rotated; resuming past a rotation registers at the
// clamped end of the new file.
type BookmarkStore struct {
	db *bolt.DB
}

// OpenBookmarkStore opens (creating if needed) a bolt database at path.
func OpenBookmarkStore(path string) (*BookmarkStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	return &BookmarkStore{db: db}, nil
}

// Offset returns the saved offset for filename and whether one was saved.
func (s *BookmarkStore) Offset(filename string) (int64, bool, error) {
	var offset int64
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bookmarkBucket))
		if bucket == nil {
			return nil
		}
		raw := bucket.Get([]byte(filename))
		if raw == nil {
			return nil
		}
		parsed, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return err
		}
		offset = parsed
		found = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return offset, found, nil
}

// SetOffset saves the offset for filename, replacing any previous one.
func (s *BookmarkStore) SetOffset(filename string, offset int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bookmarkBucket))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(filename), []byte(strconv.FormatInt(offset, 10)))
	})
}

// Forget removes the saved offset for filename, if any.
func (s *BookmarkStore) Forget(filename string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bookmarkBucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(filename))
	})
}

// Close closes the underlying database.
func (s *BookmarkStore) Close() error {
	return s.db.Close()
}
