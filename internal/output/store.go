package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/opensimlab/rescuelane/internal/simerr"
)

var runsBucket = []byte("runs")

// RunRecord is the per-run aggregate persisted to the archive. This
// is tooling output, not simulation state: nothing here feeds back
// into a later run.
type RunRecord struct {
	ID               string    `json:"id"`
	Scenario         string    `json:"scenario"`
	Seed             int64     `json:"seed"`
	Steps            int       `json:"steps"`
	StepLengthMS     int64     `json:"step_length_ms"`
	VehiclesTotal    int       `json:"vehicles_total"`
	InfluencedPeak   int       `json:"influenced_peak"`
	InfluencedTotal  int       `json:"influenced_total"`
	ManualCrossings  int       `json:"manual_crossings"`
	FoeSlowdowns     int       `json:"foe_slowdowns"`
	WallClockSeconds float64   `json:"wall_clock_seconds"`
	FinishedAt       time.Time `json:"finished_at"`
}

// RunStore is a bolt-backed archive of run records.
type RunStore struct {
	db *bolt.DB
}

// OpenRunStore opens (creating if needed) the archive at path.
func OpenRunStore(path string) (*RunStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, simerr.IOError(err, "failed to create archive directory")
	}
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, simerr.IOError(err, "failed to open run archive")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, simerr.IOError(err, "failed to initialize run archive")
	}
	return &RunStore{db: db}, nil
}

// Save persists a run record keyed by its id.
func (s *RunStore) Save(rec RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return simerr.IOError(err, "failed to encode run record")
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).Put([]byte(rec.ID), data)
	})
	if err != nil {
		return simerr.IOError(err, "failed to store run record")
	}
	return nil
}

// Get loads a run record by id; found is false when absent.
func (s *RunStore) Get(id string) (rec RunRecord, found bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(runsBucket).Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return RunRecord{}, false, simerr.IOError(err, "failed to load run record")
	}
	return rec, found, nil
}

// List returns all archived records in key order.
func (s *RunStore) List() ([]RunRecord, error) {
	var out []RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(_, v []byte) error {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, simerr.IOError(err, "failed to list run records")
	}
	return out, nil
}

// Close closes the underlying database.
func (s *RunStore) Close() error { return s.db.Close() }
