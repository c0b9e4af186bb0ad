package batch

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// QuarantineLog is the file inside a quarantine directory listing every
// quarantined message, one JSON object per line.
const QuarantineLog = "failures.jsonl"

// QuarantineEntry describes one message that failed verification.
type QuarantineEntry struct {
	RunID    string    `json:"run_id"`
	Path     string    `json:"path"`
	Copy     string    `json:"copy,omitempty"` // empty when the source could not be read
	FailedAt time.Time `json:"failed_at"`
	Error    string    `json:"error"`
}

// Quarantine keeps copies of failing messages together with the reason they
// failed, so they can be fixed and verified again later.
type Quarantine struct {
	dir string

	mu    sync.Mutex
	log   *os.File
	count int
}

// OpenQuarantine creates dir if needed and appends to its log.
func OpenQuarantine(dir string) (*Quarantine, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("quarantine: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, QuarantineLog), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("quarantine: %w", err)
	}
	return &Quarantine{dir: dir, log: f}, nil
}

// Push copies the failed file into the quarantine and records the entry.
func (q *Quarantine) Push(runID string, res Result) (*QuarantineEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry := &QuarantineEntry{
		RunID:    runID,
		Path:     res.Path,
		FailedAt: time.Now().UTC(),
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}

	if data, err := os.ReadFile(res.Path); err == nil {
		name := fmt.Sprintf("%s-%04d-%s", shortID(runID), q.count+1, filepath.Base(res.Path))
		if err := os.WriteFile(filepath.Join(q.dir, name), data, 0o640); err != nil {
			return nil, fmt.Errorf("quarantine %s: %w", res.Path, err)
		}
		entry.Copy = name
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	if _, err := q.log.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("quarantine log: %w", err)
	}
	q.count++
	return entry, nil
}

// Len returns the number of entries pushed since the quarantine was opened.
func (q *Quarantine) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Close closes the log.
func (q *Quarantine) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.log.Close()
}

// ReadQuarantine returns every entry recorded in dir, oldest first.
func ReadQuarantine(dir string) ([]QuarantineEntry, error) {
	f, err := os.Open(filepath.Join(dir, QuarantineLog))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []QuarantineEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e QuarantineEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", QuarantineLog, line, err)
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
