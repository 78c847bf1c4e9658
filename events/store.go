package events

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noamelf/whatsapp-me/internal/fsstore"
)

const (
	createdEventsFileVersion = 1
	defaultRetention         = 30 * 24 * time.Hour
)

// Record is one published event, keyed by fingerprint.
type Record struct {
	Fingerprint  string    `json:"fingerprint"`
	Title        string    `json:"title"`
	StartDateISO string    `json:"start_date_iso"`
	CreatedAt    time.Time `json:"created_at"`
}

type createdEventsFile struct {
	Version int      `json:"version"`
	Records []Record `json:"records"`
}

// Store remembers which events have already been published so repeated
// descriptions of the same occasion, in later messages or after a restart,
// are posted at most once.
type Store struct {
	path      string
	retention time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

func NewStore(path string, retention time.Duration, logger *slog.Logger) *Store {
	if retention <= 0 {
		retention = defaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:      strings.TrimSpace(path),
		retention: retention,
		logger:    logger,
		records:   make(map[string]Record),
		now:       time.Now,
	}
}

// Load reads the persisted history. Entries are loaded as-is; retention is
// applied lazily on the next Save, so a fresh process still dedups against
// events created just inside the cutoff. A corrupt file starts an empty
// history rather than failing: re-posting risk is preferred over a crash.
func (s *Store) Load() {
	var file createdEventsFile
	ok, err := fsstore.ReadJSON(s.path, &file)
	if err != nil {
		s.logger.Warn("created_events_load_failed", "path", s.path, "error", err.Error())
		return
	}
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range file.Records {
		if strings.TrimSpace(rec.Fingerprint) == "" {
			continue
		}
		s.records[rec.Fingerprint] = rec
	}
}

func (s *Store) IsCreated(d Details) bool {
	fp := Fingerprint(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[fp]
	return ok
}

// MarkCreated records the event and reports whether it was newly added.
// Re-marking an existing fingerprint is a no-op. The single lock acquisition
// makes this the check-and-reserve step for concurrent duplicate messages:
// only one caller ever sees true for a given fingerprint.
func (s *Store) MarkCreated(d Details) bool {
	fp := Fingerprint(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[fp]; ok {
		return false
	}
	s.records[fp] = Record{
		Fingerprint:  fp,
		Title:        strings.TrimSpace(d.Title),
		StartDateISO: strings.TrimSpace(d.StartDateISO),
		CreatedAt:    s.now().UTC(),
	}
	return true
}

// Forget releases a reservation made by MarkCreated. Callers use it when
// dispatch fails outright, so a later re-detection of the same occasion can
// try again.
func (s *Store) Forget(d Details) {
	fp := Fingerprint(d)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, fp)
}

func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Save drops records older than the retention window and writes the rest.
// This save-time filter is the only eviction mechanism; there is no
// background sweep.
func (s *Store) Save() error {
	cutoff := s.now().UTC().Add(-s.retention)

	s.mu.Lock()
	kept := make([]Record, 0, len(s.records))
	for fp, rec := range s.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.records, fp)
			continue
		}
		kept = append(kept, rec)
	}
	s.mu.Unlock()

	sort.Slice(kept, func(i, j int) bool { return kept[i].CreatedAt.Before(kept[j].CreatedAt) })
	return fsstore.WriteJSONAtomic(s.path, createdEventsFile{
		Version: createdEventsFileVersion,
		Records: kept,
	}, fsstore.FileOptions{})
}
