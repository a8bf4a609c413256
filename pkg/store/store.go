package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/geNAZt/zoneheat/pkg/zone"
)

var ErrNotFound = errors.New("zone record not found")

// Store keeps one JSON file per zone in a state directory. Saves are partial
// merges into the stored record, not full rewrites by the caller.
type Store struct {
	dir   string
	mutex sync.Mutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating state dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(entityID string) string {
	name := strings.ReplaceAll(entityID, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) Load(entityID string) (*zone.Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.load(entityID)
}

func (s *Store) load(entityID string) (*zone.Record, error) {
	b, err := os.ReadFile(s.path(entityID))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading record %s: %w", entityID, err)
	}

	rec := &zone.Record{}
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, fmt.Errorf("error decoding record %s: %w", entityID, err)
	}
	rec.EntityID = entityID
	rec.TargetTemperature = zone.ClampTarget(rec.TargetTemperature)

	// Repair the slot split if the file was edited by hand.
	if rec.DutyOnSeconds+rec.DutyOffSeconds != zone.TimeSlotSeconds {
		rec.DutyOffSeconds = zone.TimeSlotSeconds - rec.DutyOnSeconds
	}
	return rec, nil
}

// Save merges the update into the stored record and writes it back. A record
// that does not exist yet is created from the update.
func (s *Store) Save(entityID string, u zone.Update) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rec, err := s.load(entityID)
	if errors.Is(err, ErrNotFound) {
		rec = zone.NewRecord(entityID, zone.DefaultTargetTemperature)
	} else if err != nil {
		return err
	}
	rec.Apply(u)

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding record %s: %w", entityID, err)
	}
	if err := os.WriteFile(s.path(entityID), b, 0644); err != nil {
		return fmt.Errorf("error writing record %s: %w", entityID, err)
	}
	return nil
}
