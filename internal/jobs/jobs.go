// Package jobs persists render job metadata for the HTTP service. Each job
// owns one directory under the jobs root holding the uploaded clips, the
// rendered output, and a job.json record.
package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"sidestack/internal/paths"
)

// Status tracks a job through its synchronous lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrNotFound reports a job id with no record on disk.
var ErrNotFound = errors.New("job not found")

// Record is the job.json payload.
type Record struct {
	ID          string    `json:"id"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Videos      []string  `json:"videos"`
	Mode        string    `json:"mode"`
	Labels      []string  `json:"labels,omitempty"`
	Output      string    `json:"output,omitempty"`
	SyncInstant float64   `json:"sync_instant"`
	Starts      []float64 `json:"starts,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewID returns a fresh job identifier, 32 lowercase hex characters.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidID reports whether id looks like something NewID produced. Handlers
// use it to keep request ids from escaping the jobs root.
func ValidID(id string) bool {
	if len(id) != 32 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

// Store reads and writes job records under a root directory, one directory
// per job.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	if root == "" {
		root = paths.DefaultJobsRoot()
	}
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

// Dir returns the canonical file layout for one job.
func (s *Store) Dir(id string) paths.JobPaths {
	return paths.JobDir(s.root, id)
}

// Save writes the record to its job.json. The write goes through a temp file
// and rename so a concurrent reader never sees a partial record.
func (s *Store) Save(rec Record) error {
	jp := s.Dir(rec.ID)
	if err := jp.EnsureRoot(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	tmp := jp.StateFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write job record: %w", err)
	}
	return os.Rename(tmp, jp.StateFile)
}

// Load reads a job record. Missing jobs surface ErrNotFound.
func (s *Store) Load(id string) (Record, error) {
	data, err := os.ReadFile(s.Dir(id).StateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode job record: %w", err)
	}
	return rec, nil
}

// Delete removes the whole job directory, uploads and output included.
func (s *Store) Delete(id string) error {
	jp := s.Dir(id)
	if _, err := os.Stat(jp.Root); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return os.RemoveAll(jp.Root)
}
