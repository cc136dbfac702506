package permission

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/0xmhha/snapcam/pkg/logger"
	"github.com/0xmhha/snapcam/pkg/storage"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketPermissions = []byte("permissions") // Kind -> Decision
	keyCamera         = []byte("camera")
)

// Remembered stores a grant from an inner Provider and answers later
// requests from the store. Denials are not stored, so a retry asks the
// inner provider again.
type Remembered struct {
	inner  Provider
	db     *bolt.DB
	logger logger.Logger
	now    func() time.Time
}

// NewRemembered wraps inner with a decision stored in db.
func NewRemembered(inner Provider, db *bolt.DB, log logger.Logger) (*Remembered, error) {
	if err := storage.EnsureBuckets(db, bucketPermissions); err != nil {
		return nil, err
	}

	return &Remembered{
		inner:  inner,
		db:     db,
		logger: log.Named("permission"),
		now:    time.Now,
	}, nil
}

// Request implements Provider.
func (r *Remembered) Request(ctx context.Context) (bool, error) {
	d, ok, err := r.Stored()
	if err != nil {
		return false, err
	}
	if ok {
		r.logger.Debug("using remembered grant", "decided_at", d.DecidedAt)
		return true, nil
	}

	granted, err := r.inner.Request(ctx)
	if err != nil || !granted {
		return false, err
	}

	if storeErr := r.store(Decision{Granted: true, DecidedAt: r.now()}); storeErr != nil {
		// The answer is still valid for this request.
		r.logger.Warn("failed to remember grant", "error", storeErr)
	}
	return true, nil
}

// Stored returns the remembered grant, if any. A denial written by an
// older version is not reported.
func (r *Remembered) Stored() (Decision, bool, error) {
	var (
		d     Decision
		found bool
	)

	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPermissions).Get(keyCamera)
		if data == nil {
			return nil
		}
		if unmarshalErr := json.Unmarshal(data, &d); unmarshalErr != nil {
			return fmt.Errorf("failed to unmarshal decision: %w", unmarshalErr)
		}
		found = d.Granted
		return nil
	})
	if err != nil {
		return Decision{}, false, err
	}

	return d, found, nil
}

// Forget drops the remembered decision so the next request asks again.
func (r *Remembered) Forget() error {
	return r.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketPermissions).Delete(keyCamera); err != nil {
			return fmt.Errorf("failed to forget decision: %w", err)
		}
		r.logger.Info("camera permission forgotten")
		return nil
	})
}

func (r *Remembered) store(d Decision) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPermissions).Put(keyCamera, data)
	})
}
