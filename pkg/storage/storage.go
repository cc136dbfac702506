// Package storage opens the BoltDB file shared by the gallery index and
// the remembered permission decisions.
//
// Each consumer creates its own buckets on the handle returned by Open;
// the caller owns the handle and closes it once every consumer is done.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xmhha/snapcam/pkg/logger"
	bolt "go.etcd.io/bbolt"
)

// Config contains database configuration.
type Config struct {
	// Path is the BoltDB file path. A leading ~ is expanded.
	Path string

	// Timeout bounds the wait for the file lock held by another
	// process (default: 1 second).
	Timeout time.Duration
}

// Open opens (creating if needed) the database at cfg.Path.
func Open(cfg Config, log logger.Logger) (*bolt.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	dbPath := ExpandHome(cfg.Path)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	log.Debug("database opened", "path", dbPath)
	return db, nil
}

// EnsureBuckets creates the named buckets if they do not exist.
func EnsureBuckets(db *bolt.DB, names ...[]byte) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range names {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// ExpandHome expands ~ in file paths to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
