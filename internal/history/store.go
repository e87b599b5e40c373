// Package history keeps the append-only record of prior command lines.
//
// The canonical store is a newline-delimited text file: each record is the
// command's first line followed by any embedded lines prefixed with a tab,
// so multi-line commands round-trip to their exact original text. A
// supplementary sqlite index (index.go) adds searchable metadata for the
// rich editor; the text file alone is always sufficient to rebuild state.
package history

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const continuationPrefix = "\t"

// Entry is one recorded command line. Immutable once appended.
type Entry struct {
	Seq       int64
	CreatedAt time.Time
	Command   string
	ExitCode  *int
}

// Options controls store behavior.
type Options struct {
	// Dedup drops a new entry identical to the immediately preceding one.
	Dedup bool
	// MaxEntries caps how many loaded entries are kept in memory. 0 means
	// unlimited.
	MaxEntries int
}

// FileStore is the append-only history store. Persistence failures
// downgrade it to in-memory-only for the rest of the session; they never
// abort anything.
type FileStore struct {
	logger *zap.Logger
	opts   Options

	mu       sync.Mutex
	f        *os.File
	path     string
	entries  []Entry
	seq      int64
	degraded bool
}

// NewFileStore opens (or creates) the history file at path and loads the
// persisted entries. Loaded entries are ordered strictly before anything
// appended this session. An unreadable or unwritable file degrades the
// store to memory-only.
func NewFileStore(path string, opts Options, logger *zap.Logger) *FileStore {
	s := &FileStore{logger: logger, opts: opts, path: path}

	if data, err := os.ReadFile(path); err == nil {
		s.entries = decodeRecords(string(data), logger)
		if opts.MaxEntries > 0 && len(s.entries) > opts.MaxEntries {
			s.entries = s.entries[len(s.entries)-opts.MaxEntries:]
		}
		if n := len(s.entries); n > 0 {
			s.seq = s.entries[n-1].Seq
		}
	} else if !os.IsNotExist(err) {
		logger.Warn("history file unreadable, downgrading to in-memory history",
			zap.String("path", path), zap.Error(&PersistenceError{Op: "load", Path: path, Err: err}))
		s.degraded = true
		return s
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		logger.Warn("history file unwritable, downgrading to in-memory history",
			zap.String("path", path), zap.Error(&PersistenceError{Op: "open", Path: path, Err: err}))
		s.degraded = true
		return s
	}
	s.f = f
	return s
}

// Append records a command line. The second return is false when the entry
// was collapsed into the preceding identical one under the dedup policy.
func (s *FileStore) Append(command string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.Dedup && len(s.entries) > 0 && s.entries[len(s.entries)-1].Command == command {
		return s.entries[len(s.entries)-1], false
	}

	s.seq++
	entry := Entry{Seq: s.seq, CreatedAt: time.Now(), Command: command}
	s.entries = append(s.entries, entry)

	if s.f != nil {
		if err := s.writeRecord(command); err != nil {
			s.logger.Warn("history write failed, downgrading to in-memory history",
				zap.Error(&PersistenceError{Op: "append", Path: s.path, Err: err}))
			_ = s.f.Close()
			s.f = nil
			s.degraded = true
		}
	}
	return entry, true
}

// writeRecord appends one record under an exclusive file lock so records
// from concurrent sessions never interleave mid-line.
func (s *FileStore) writeRecord(command string) error {
	if err := flockExclusive(s.f.Fd()); err != nil {
		return err
	}
	defer func() { _ = flockUnlock(s.f.Fd()) }()

	_, err := s.f.WriteString(encodeRecord(command))
	return err
}

// MarkExit attaches an exit status to an already-appended entry. The
// status lives in memory only; the on-disk record format carries text.
func (s *FileStore) MarkExit(seq int64, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Seq == seq {
			c := code
			s.entries[i].ExitCode = &c
			return
		}
	}
}

// Entries returns a snapshot of all entries, oldest first.
func (s *FileStore) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Commands returns up to limit most recent command texts, oldest first,
// the order Up/Down navigation wants.
func (s *FileStore) Commands(limit int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if limit > 0 && len(s.entries) > limit {
		start = len(s.entries) - limit
	}
	out := make([]string, 0, len(s.entries)-start)
	for _, e := range s.entries[start:] {
		out = append(out, e.Command)
	}
	return out
}

// Len returns the number of stored entries.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Degraded reports whether the store fell back to in-memory-only.
func (s *FileStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// encodeRecord writes the command as one record: embedded newlines become
// a newline plus a tab so the record boundary stays unambiguous.
func encodeRecord(command string) string {
	return strings.ReplaceAll(command, "\n", "\n"+continuationPrefix) + "\n"
}

func decodeRecords(data string, logger *zap.Logger) []Entry {
	var entries []Entry
	var seq int64

	scanner := bufio.NewScanner(strings.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, continuationPrefix) {
			if len(entries) == 0 {
				logger.Warn("history file starts with a continuation line, skipping",
					zap.Error(&PersistenceError{Op: "decode", Err: errCorruptRecord}))
				continue
			}
			entries[len(entries)-1].Command += "\n" + strings.TrimPrefix(line, continuationPrefix)
			continue
		}
		seq++
		entries = append(entries, Entry{Seq: seq, Command: line})
	}
	return entries
}
