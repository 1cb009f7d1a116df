// Package archive holds the table of officially graded exam exercises.
// The table is loaded from CSV and published as an immutable snapshot that
// readers access without locks; a reload swaps the whole snapshot.
package archive

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultVersion is assigned to records whose version column is empty or missing.
const DefaultVersion = "v1"

// Key identifies an exercise in a specific exam session.
type Key struct {
	Date     string // YYYY-MM-DD
	Exercise int
}

// Record is one graded exercise.
type Record struct {
	Date          string
	Exercise      int
	Title         string
	ResultShort   string
	SolutionSteps string
	Notes         string
	Version       string
}

type snapshot struct {
	records  map[Key]Record
	loadedAt time.Time
}

// Store serves lookups from the current snapshot.
type Store struct {
	current atomic.Pointer[snapshot]
	log     *slog.Logger
}

// NewStore returns an empty store. Lookups miss until Load succeeds.
func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{log: log.With("component", "archive")}
	s.current.Store(&snapshot{records: map[Key]Record{}})
	return s
}

// Lookup returns the record for (date, exercise), if any.
func (s *Store) Lookup(date string, exercise int) (Record, bool) {
	rec, ok := s.current.Load().records[Key{Date: date, Exercise: exercise}]
	return rec, ok
}

// Len returns the number of records in the current snapshot.
func (s *Store) Len() int {
	return len(s.current.Load().records)
}

// LoadedAt returns when the current snapshot was published (zero before the first load).
func (s *Store) LoadedAt() time.Time {
	return s.current.Load().loadedAt
}

// LoadFile reads the CSV at path and replaces the table.
func (s *Store) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.log.Warn("Error closing archive file", "path", path, "error", closeErr)
		}
	}()

	n, err := s.Load(f)
	if err != nil {
		return 0, fmt.Errorf("failed to load archive %s: %w", path, err)
	}
	return n, nil
}

// Load parses CSV from r and replaces the table. On error the previous
// table stays in place. An empty source yields an empty table.
func (s *Store) Load(r io.Reader) (int, error) {
	records, skipped, err := parse(r)
	if err != nil {
		return 0, err
	}

	s.current.Store(&snapshot{records: records, loadedAt: time.Now()})
	s.log.Info("Archive loaded", "records", len(records), "skipped_rows", skipped)
	return len(records), nil
}

func parse(r io.Reader) (map[Key]Record, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records := make(map[Key]Record)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return records, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "exercise"} {
		if _, ok := cols[required]; !ok {
			return nil, 0, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read row: %w", err)
		}

		exercise, err := strconv.Atoi(field(row, "exercise"))
		if err != nil {
			skipped++
			continue
		}

		rec := Record{
			Date:          field(row, "date"),
			Exercise:      exercise,
			Title:         field(row, "title"),
			ResultShort:   field(row, "result_short"),
			SolutionSteps: field(row, "solution_steps"),
			Notes:         field(row, "notes"),
			Version:       field(row, "version"),
		}
		if rec.Version == "" {
			rec.Version = DefaultVersion
		}
		records[Key{Date: rec.Date, Exercise: rec.Exercise}] = rec
	}

	return records, skipped, nil
}

// NumberedSteps returns the solution steps as a numbered list. Text that
// already starts with "1)" is returned trimmed but otherwise unchanged;
// otherwise each non-blank line becomes "N) line".
func (r Record) NumberedSteps() string {
	steps := strings.TrimSpace(r.SolutionSteps)
	if steps == "" || strings.HasPrefix(steps, "1)") {
		return steps
	}

	var b strings.Builder
	n := 0
	for _, line := range strings.Split(steps, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if n > 0 {
			b.WriteByte('\n')
		}
		n++
		fmt.Fprintf(&b, "%d) %s", n, line)
	}
	return b.String()
}
