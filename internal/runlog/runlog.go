// Package runlog keeps a journal of external analysis runs in a bbolt file
// so failures can be inspected after the request that started them is gone.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketName = "runs"
	maxStderr  = 4096
)

type Run struct {
	ID         string        `json:"id"`
	Repo       string        `json:"repo"`
	Kind       string        `json:"kind"`
	Script     string        `json:"script"`
	Args       []string      `json:"args"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
	ExitCode   int           `json:"exitCode"`
	Reason     string        `json:"reason,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	OutputPath string        `json:"outputPath,omitempty"`
}

func (r Run) Succeeded() bool {
	return r.Reason == ""
}

type Journal struct {
	db *bolt.DB
}

// Open opens (or creates) the journal at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create run log directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise run log: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Append records run under its repository. Keys sort by start time so
// listing walks the bucket in order.
func (j *Journal) Append(run Run) error {
	if len(run.Stderr) > maxStderr {
		run.Stderr = run.Stderr[len(run.Stderr)-maxStderr:]
	}

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(bucketName))
		repo, err := root.CreateBucketIfNotExists([]byte(run.Repo))
		if err != nil {
			return err
		}
		return repo.Put(runKey(run), data)
	})
}

// List returns up to limit runs of repo, newest first. limit <= 0 means all.
func (j *Journal) List(repo string, limit int) ([]Run, error) {
	runs := []Run{}
	err := j.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName)).Bucket([]byte(repo))
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return err
			}
			runs = append(runs, run)
			if limit > 0 && len(runs) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func runKey(run Run) []byte {
	return []byte(fmt.Sprintf("%020d-%s", run.StartedAt.UnixNano(), run.ID))
}
