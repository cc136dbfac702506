// Package gallery indexes the photos snapcam has taken.
//
// Entries live in BoltDB keyed by a UUID, with a secondary index from the
// file path so the same photo reported twice (once by the controller when
// the capture completes and once by the directory watcher when the file
// lands) is stored once.
//
// Example usage:
//
//	db, err := storage.Open(storage.Config{Path: "~/.config/snapcam/snapcam.db"}, log)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	g, err := gallery.New(db, log)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	entries, err := g.List(10)
package gallery

import "time"

// Entry is one indexed photo.
type Entry struct {
	// ID is a UUID assigned when the entry is first recorded.
	ID string `json:"id"`

	// Path is the image location on disk (unique).
	Path string `json:"path"`

	// Name is the file name, e.g. IMG_20240101_120000.jpg.
	Name string `json:"name"`

	// Facing is the camera that took the photo, empty when unknown.
	Facing string `json:"facing,omitempty"`

	// TakenAt is when the capture completed, or the file time for
	// photos discovered on disk.
	TakenAt time.Time `json:"taken_at"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`
}

// Store provides gallery index operations.
type Store interface {
	// Record inserts e, or merges it into the entry already indexed
	// under the same path. Empty fields of e do not overwrite stored
	// values. e.ID is set to the stored entry's ID.
	Record(e *Entry) error

	// Get retrieves an entry by ID. Returns ErrNotFound if absent.
	Get(id string) (*Entry, error)

	// GetByPath retrieves an entry by file path. Returns ErrNotFound if absent.
	GetByPath(path string) (*Entry, error)

	// Latest returns the most recently taken entry, or ErrNotFound.
	Latest() (*Entry, error)

	// List returns entries newest first. limit <= 0 returns all.
	List(limit int) ([]*Entry, error)

	// Delete removes the entry with id. Missing entries are not an error.
	Delete(id string) error

	// DeletePath removes the entry indexed under path, if any.
	DeletePath(path string) error
}
