package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// DefaultLedgerFile is used when no file is configured.
const DefaultLedgerFile = "data_in/sent_reports.json"

// SentEntry is one delivered report.
type SentEntry struct {
	Kind   string `json:"kind"`    // hourly, daily, weekly
	Period string `json:"period"`  // period key, e.g. 2026-04-01
	SentAt string `json:"sent_at"` // RFC3339
}

// SentData is the file structure of the ledger.
type SentData struct {
	Entries []SentEntry `json:"entries"`
}

// FileLedger keeps the ledger in a JSON file. Writes go through a temp file
// and a rename.
type FileLedger struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewFileLedger(path string) *FileLedger {
	if path == "" {
		path = DefaultLedgerFile
	}
	return &FileLedger{path: path, now: time.Now}
}

func (l *FileLedger) IsSent(_ context.Context, kind, period string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.load()
	if err != nil {
		return false, err
	}
	for _, e := range data.Entries {
		if e.Kind == kind && e.Period == period {
			return true, nil
		}
	}
	return false, nil
}

// MarkSent records the period and drops entries older than the retention window.
func (l *FileLedger) MarkSent(_ context.Context, kind, period string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.load()
	if err != nil {
		// a corrupt ledger must not block reporting forever
		data = &SentData{Entries: []SentEntry{}}
	}

	cutoff := l.now().Add(-retention)
	kept := data.Entries[:0]
	for _, e := range data.Entries {
		if e.Kind == kind && e.Period == period {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, e.SentAt); err == nil && ts.Before(cutoff) {
			continue
		}
		kept = append(kept, e)
	}
	data.Entries = append(kept, SentEntry{Kind: kind, Period: period, SentAt: at.Format(time.RFC3339)})

	return l.save(data)
}

func (l *FileLedger) Close() error { return nil }

// load returns an empty ledger when the file does not exist (not an error).
func (l *FileLedger) load() (*SentData, error) {
	raw, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return &SentData{Entries: []SentEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if len(raw) == 0 {
		return &SentData{Entries: []SentEntry{}}, nil
	}

	var data SentData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse state file JSON: %w", err)
	}
	if data.Entries == nil {
		data.Entries = []SentEntry{}
	}
	return &data, nil
}

func (l *FileLedger) save(data *SentData) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state JSON: %w", err)
	}

	if err := atomic.WriteFile(l.path, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
