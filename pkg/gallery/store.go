package gallery

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/0xmhha/snapcam/pkg/logger"
	"github.com/0xmhha/snapcam/pkg/storage"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names.
var (
	bucketPhotos = []byte("photos")      // ID -> Entry
	bucketPaths  = []byte("photo_paths") // Path -> ID (index)
)

// store implements the Store interface using BoltDB.
type store struct {
	db     *bolt.DB
	logger logger.Logger
}

// New creates a gallery store on db, creating its buckets.
// The caller keeps ownership of db.
func New(db *bolt.DB, log logger.Logger) (Store, error) {
	if err := storage.EnsureBuckets(db, bucketPhotos, bucketPaths); err != nil {
		return nil, err
	}

	return &store{
		db:     db,
		logger: log.Named("gallery"),
	}, nil
}

// Record implements Store.Record.
func (s *store) Record(e *Entry) error {
	if e == nil {
		return ErrInvalidEntry
	}
	if e.Path == "" {
		return ErrEmptyPath
	}
	if e.Name == "" {
		e.Name = filepath.Base(e.Path)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		photos := tx.Bucket(bucketPhotos)
		paths := tx.Bucket(bucketPaths)

		stored := *e
		created := true

		if id := paths.Get([]byte(e.Path)); id != nil {
			existing, err := decode(photos.Get(id))
			if err != nil {
				return err
			}
			stored = merge(*existing, *e)
			created = false
		} else if stored.ID == "" {
			stored.ID = uuid.NewString()
		} else if _, err := uuid.Parse(stored.ID); err != nil {
			return ErrInvalidID
		}

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}

		if err := photos.Put([]byte(stored.ID), data); err != nil {
			return fmt.Errorf("failed to store entry: %w", err)
		}
		if err := paths.Put([]byte(stored.Path), []byte(stored.ID)); err != nil {
			return fmt.Errorf("failed to store path index: %w", err)
		}

		*e = stored

		if created {
			s.logger.Info("photo indexed", "id", stored.ID, "path", stored.Path)
		} else {
			s.logger.Debug("photo updated", "id", stored.ID, "path", stored.Path)
		}
		return nil
	})
}

// merge overlays the non-empty fields of update onto existing.
func merge(existing, update Entry) Entry {
	if update.Facing != "" {
		existing.Facing = update.Facing
	}
	if !update.TakenAt.IsZero() {
		existing.TakenAt = update.TakenAt
	}
	if update.Size != 0 {
		existing.Size = update.Size
	}
	if update.Name != "" {
		existing.Name = update.Name
	}
	return existing
}

// Get implements Store.Get.
func (s *store) Get(id string) (*Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	var entry *Entry

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPhotos).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		e, decodeErr := decode(data)
		if decodeErr != nil {
			return decodeErr
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GetByPath implements Store.GetByPath.
func (s *store) GetByPath(path string) (*Entry, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	var id string

	if err := s.db.View(func(tx *bolt.Tx) error {
		idBytes := tx.Bucket(bucketPaths).Get([]byte(path))
		if idBytes == nil {
			return ErrNotFound
		}

		id = string(idBytes)
		return nil
	}); err != nil {
		return nil, err
	}

	return s.Get(id)
}

// Latest implements Store.Latest.
func (s *store) Latest() (*Entry, error) {
	entries, err := s.List(1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries[0], nil
}

// List implements Store.List.
func (s *store) List(limit int) ([]*Entry, error) {
	entries := make([]*Entry, 0, 16)

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPhotos).ForEach(func(k, v []byte) error {
			e, decodeErr := decode(v)
			if decodeErr != nil {
				s.logger.Warn("failed to unmarshal entry",
					"id", string(k),
					"error", decodeErr)
				return nil // Skip invalid entries.
			}

			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	slices.SortFunc(entries, func(a, b *Entry) int {
		if c := b.TakenAt.Compare(a.TakenAt); c != 0 {
			return c
		}
		switch {
		case a.Name > b.Name:
			return -1
		case a.Name < b.Name:
			return 1
		default:
			return 0
		}
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// Delete implements Store.Delete.
func (s *store) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		photos := tx.Bucket(bucketPhotos)

		data := photos.Get([]byte(id))
		if data == nil {
			return nil
		}

		e, err := decode(data)
		if err != nil {
			return err
		}

		if err := photos.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		if err := tx.Bucket(bucketPaths).Delete([]byte(e.Path)); err != nil {
			return fmt.Errorf("failed to delete path index: %w", err)
		}

		s.logger.Info("photo removed", "id", id, "path", e.Path)
		return nil
	})
}

// DeletePath implements Store.DeletePath.
func (s *store) DeletePath(path string) error {
	e, err := s.GetByPath(path)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Delete(e.ID)
}

func decode(data []byte) (*Entry, error) {
	if data == nil {
		return nil, ErrNotFound
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &e, nil
}
