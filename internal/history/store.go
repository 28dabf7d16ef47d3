package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fenilsonani/devsweep/internal/logging"
	"github.com/fenilsonani/devsweep/internal/metrics"
	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

const (
	// FileName is the file name of the persisted history
	FileName = "cleanup_history.json"
	// QuarantineDirName is the quarantine directory below the app dir
	QuarantineDirName = "quarantine"

	lockFileName = "cleanup_history.lock"

	// Quarantine entries younger than this may belong to a cleanup another
	// process has not recorded yet, so they are never purged as orphans
	orphanGrace = time.Hour
)

var (
	ErrRecordNotFound    = errors.New("cleanup record not found")
	ErrNotUndoable       = errors.New("this cleanup cannot be undone")
	ErrNotQuarantined    = errors.New("item is not in quarantine")
	ErrIndexOutOfRange   = errors.New("item index out of range")
	ErrNoPath            = errors.New("item has no path")
	ErrQuarantineMissing = errors.New("quarantined file no longer exists")
	ErrOriginalExists    = errors.New("original location already exists")

	errPersist = errors.New("failed to write history file")
)

// Store is the cleanup history: records newest first, plus the quarantine
// directory. It is the only reader and writer below the quarantine directory.
//
// Several processes (the CLI, the TUI, the daemon) may share one app dir.
// Every mutation re-reads the history file under an advisory lock, applies
// its change and writes the result back before releasing the lock.
type Store struct {
	mu            sync.Mutex
	records       []Record
	dir           string
	quarantineDir string
	limits        Limits
	now           func() time.Time
	log           *zap.Logger

	// seen is the history file as last read or written; dirty is set while
	// the in-memory records hold changes that failed to persist
	seen  os.FileInfo
	dirty bool
}

// New creates an empty store persisting to dir. The quarantine directory is
// created; failing to create it is fatal for the store.
func New(dir string, limits Limits) (*Store, error) {
	s := &Store{
		records:       []Record{},
		dir:           dir,
		quarantineDir: filepath.Join(dir, QuarantineDirName),
		limits:        limits,
		now:           time.Now,
		log:           logging.Named("history"),
	}
	if err := os.MkdirAll(s.quarantineDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create quarantine directory: %w", err)
	}
	return s, nil
}

// Load reads the history persisted in dir. A missing or unreadable history
// file yields an empty history; only the quarantine directory is required.
func Load(dir string, limits Limits) (*Store, error) {
	s, err := New(dir, limits)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.reload()
	count := len(s.records)
	s.mu.Unlock()

	metrics.SetHistoryRecords(count)
	return s, nil
}

// reload replaces the in-memory records with the history file when it changed
// since it was last seen. A missing, unreadable or corrupt file keeps what is
// in memory, as do unpersisted changes. Caller holds s.mu.
func (s *Store) reload() {
	if s.dirty {
		return
	}
	path := filepath.Join(s.dir, FileName)
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read history, keeping current records", logging.Err(err))
		}
		return
	}
	if s.seen != nil && os.SameFile(s.seen, info) &&
		s.seen.ModTime().Equal(info.ModTime()) && s.seen.Size() == info.Size() {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("failed to read history, keeping current records", logging.Err(err))
		return
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn("corrupt history file, keeping current records", logging.Err(err))
		return
	}
	for i := range records {
		if records[i].Items == nil {
			records[i].Items = []ItemRecord{}
		}
	}
	s.records = records
	s.seen = info
}

// update re-reads the history, applies fn and writes the result back, all
// under the history file lock. An error from fn aborts without writing.
// Caller holds s.mu.
func (s *Store) update(fn func() error) error {
	unlock, err := lockPath(filepath.Join(s.dir, lockFileName))
	if err != nil {
		s.log.Warn("failed to lock history, continuing unlocked", logging.Err(err))
		unlock = func() {}
	}
	defer unlock()

	s.reload()
	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	return s.write()
}

// write persists the in-memory records. Caller holds s.mu and the file lock.
func (s *Store) write() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}
	path := filepath.Join(s.dir, FileName)
	if err := utils.WriteFileAtomic(path, data); err != nil {
		s.dirty = true
		metrics.RecordPersistFailure(FileName)
		return fmt.Errorf("%w: %w", errPersist, err)
	}
	s.dirty = false
	if info, err := os.Stat(path); err == nil {
		s.seen = info
	}
	return nil
}

// persisted reports err unless it only says the history could not be
// written, which is logged; the change stays in memory and is retried with
// the next write
func (s *Store) persisted(err error) error {
	if err == nil || !errors.Is(err, errPersist) {
		return err
	}
	s.log.Warn("failed to save history", logging.Err(err))
	return nil
}

// WithClock replaces the time source; used by tests
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Dir returns the directory the history persists to
func (s *Store) Dir() string {
	return s.dir
}

// QuarantineDir returns the quarantine directory
func (s *Store) QuarantineDir() string {
	return s.quarantineDir
}

// Limits returns the configured bounds
func (s *Store) Limits() Limits {
	return s.limits
}

// Quarantine moves the item's path into the quarantine directory under
// "{unix_seconds}_{basename}" and returns the new location. Rename only: a
// cross-device move fails.
func (s *Store) Quarantine(item types.CleanupItem) (string, error) {
	if !item.HasPath() {
		return "", ErrNoPath
	}
	if _, err := os.Lstat(item.Path); err != nil {
		return "", fmt.Errorf("path does not exist: %s: %w", item.Path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another process may be picking a name in the same second
	if unlock, err := lockPath(filepath.Join(s.dir, lockFileName)); err == nil {
		defer unlock()
	}

	if err := os.MkdirAll(s.quarantineDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create quarantine directory: %w", err)
	}

	dest := s.uniqueName(item.Path)
	if err := os.Rename(item.Path, dest); err != nil {
		return "", fmt.Errorf("failed to move to quarantine: %w", err)
	}
	return dest, nil
}

// uniqueName picks a free quarantine name, appending _1, _2... on collision.
// Caller holds s.mu.
func (s *Store) uniqueName(original string) string {
	base := filepath.Base(original)
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "unknown"
	}
	name := strconv.FormatInt(s.now().Unix(), 10) + "_" + base

	dest := filepath.Join(s.quarantineDir, name)
	for i := 1; ; i++ {
		if _, err := os.Lstat(dest); os.IsNotExist(err) {
			return dest
		}
		dest = filepath.Join(s.quarantineDir, name+"_"+strconv.Itoa(i))
	}
}

// Restore moves a quarantined item back to its original location
func (s *Store) Restore(item ItemRecord) error {
	if !item.CanRestore() {
		return ErrNotQuarantined
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Lstat(item.QuarantinePath); err != nil {
		return ErrQuarantineMissing
	}
	if _, err := os.Lstat(item.OriginalPath); err == nil {
		return fmt.Errorf("%w: %s", ErrOriginalExists, item.OriginalPath)
	}
	if err := os.MkdirAll(filepath.Dir(item.OriginalPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.Rename(item.QuarantinePath, item.OriginalPath); err != nil {
		return fmt.Errorf("failed to restore from quarantine: %w", err)
	}
	return nil
}

// Undo restores every restorable item of the record. Undo is one-shot: the
// record stops being undoable even when some items fail to restore.
func (s *Store) Undo(recordID string) (*UndoResult, error) {
	var items []ItemRecord
	s.mu.Lock()
	err := s.persisted(s.update(func() error {
		idx := s.indexOf(recordID)
		if idx < 0 {
			return ErrRecordNotFound
		}
		if !s.records[idx].IsUndoable() {
			return ErrNotUndoable
		}
		// Claim before any I/O so a concurrent Undo cannot replay it
		s.records[idx].CanUndo = false
		items = make([]ItemRecord, len(s.records[idx].Items))
		copy(items, s.records[idx].Items)
		return nil
	}))
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	result := &UndoResult{RecordID: recordID}
	var restored []int
	for i, item := range items {
		if !item.CanRestore() {
			continue
		}
		if err := s.Restore(item); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Kind, err))
			s.log.Warn("failed to restore item",
				logging.String("kind", item.Kind),
				logging.Path(item.OriginalPath),
				logging.Err(err))
			continue
		}
		result.SuccessCount++
		restored = append(restored, i)
	}

	// Restored items no longer live in quarantine
	s.mu.Lock()
	s.persisted(s.update(func() error {
		if idx := s.indexOf(recordID); idx >= 0 {
			for _, i := range restored {
				if i < len(s.records[idx].Items) {
					s.records[idx].Items[i].QuarantinePath = ""
				}
			}
		}
		return nil
	}))
	s.mu.Unlock()

	s.log.Info("undo complete",
		logging.String("record", recordID),
		logging.Int("restored", result.SuccessCount),
		logging.Int("failed", result.ErrorCount))
	return result, nil
}

// DeleteItem permanently removes one quarantined item of a record
func (s *Store) DeleteItem(recordID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(func() error {
		idx := s.indexOf(recordID)
		if idx < 0 {
			return ErrRecordNotFound
		}
		rec := &s.records[idx]
		if index < 0 || index >= len(rec.Items) {
			return ErrIndexOutOfRange
		}
		item := &rec.Items[index]
		if item.QuarantinePath == "" {
			return ErrNotQuarantined
		}

		// A file already gone is treated as deleted
		if err := os.RemoveAll(item.QuarantinePath); err != nil {
			return fmt.Errorf("failed to delete quarantined item: %w", err)
		}
		item.DeletedPermanently = true
		item.QuarantinePath = ""
		return nil
	})
}

// ClearAll deletes the quarantine directory, recreates it empty and drops
// every record
func (s *Store) ClearAll() error {
	s.mu.Lock()
	err := s.update(func() error {
		if err := os.RemoveAll(s.quarantineDir); err != nil {
			return fmt.Errorf("failed to remove quarantine directory: %w", err)
		}
		if err := os.MkdirAll(s.quarantineDir, 0o755); err != nil {
			return fmt.Errorf("failed to create quarantine directory: %w", err)
		}
		s.records = []Record{}
		return nil
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	metrics.SetQuarantineBytes(0)
	metrics.SetHistoryRecords(0)
	return nil
}

// AddRecord prepends rec, persists the history and enforces both bounds.
// The returned error only reports a failed write; the record is kept in
// memory either way.
func (s *Store) AddRecord(rec *Record) error {
	var evicted []Record
	var count int
	s.mu.Lock()
	err := s.update(func() error {
		s.records = append([]Record{rec.clone()}, s.records...)
		for len(s.records) > s.limits.MaxHistory {
			last := len(s.records) - 1
			evicted = append(evicted, s.records[last])
			s.records = s.records[:last]
		}
		count = len(s.records)
		return nil
	})
	s.mu.Unlock()

	for _, old := range evicted {
		s.removeQuarantineFiles(old)
		metrics.RecordEviction("history")
	}
	if len(evicted) > 0 {
		s.log.Info("evicted records over history limit", logging.Int("evicted", len(evicted)))
	}
	metrics.SetHistoryRecords(count)

	s.EnforceBounds()
	return err
}

// EnforceBounds evicts the oldest records while the quarantine is over its
// limit, until it drops below the low-water mark. It returns how many
// records were evicted.
func (s *Store) EnforceBounds() int {
	size := s.QuarantineSize()
	metrics.SetQuarantineBytes(size)
	if size <= s.limits.MaxQuarantineBytes {
		return 0
	}

	target := s.limits.lowWater()
	evicted := 0
	for size >= target {
		var old Record
		found := false
		s.mu.Lock()
		s.persisted(s.update(func() error {
			if len(s.records) == 0 {
				return nil
			}
			last := len(s.records) - 1
			old = s.records[last]
			s.records = s.records[:last]
			found = true
			return nil
		}))
		s.mu.Unlock()
		if !found {
			break
		}

		s.removeQuarantineFiles(old)
		metrics.RecordEviction("quarantine")
		evicted++
		size = s.QuarantineSize()
	}

	if size >= target {
		// Nothing references what is left
		s.purgeOrphans()
		size = s.QuarantineSize()
	}

	metrics.SetQuarantineBytes(size)
	metrics.SetHistoryRecords(s.Len())

	s.log.Info("quarantine over limit, evicted oldest records",
		logging.Int("evicted", evicted),
		logging.Uint64("quarantine_bytes", size),
		logging.Uint64("limit_bytes", s.limits.MaxQuarantineBytes))
	return evicted
}

// removeQuarantineFiles deletes the quarantined files of an evicted record;
// files already gone are ignored
func (s *Store) removeQuarantineFiles(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range rec.Items {
		if item.QuarantinePath == "" {
			continue
		}
		if err := os.RemoveAll(item.QuarantinePath); err != nil {
			s.log.Warn("failed to remove quarantined file",
				logging.Path(item.QuarantinePath),
				logging.Err(err))
		}
	}
}

// purgeOrphans removes quarantine entries no record points at. Entries
// quarantined within orphanGrace are left alone.
func (s *Store) purgeOrphans() {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := lockPath(filepath.Join(s.dir, lockFileName))
	if err != nil {
		s.log.Warn("failed to lock history, skipping orphan purge", logging.Err(err))
		return
	}
	defer unlock()
	s.reload()

	referenced := make(map[string]bool)
	for _, rec := range s.records {
		for _, item := range rec.Items {
			if item.QuarantinePath != "" {
				referenced[item.QuarantinePath] = true
			}
		}
	}

	entries, err := os.ReadDir(s.quarantineDir)
	if err != nil {
		return
	}
	cutoff := s.now().Add(-orphanGrace)
	for _, e := range entries {
		p := filepath.Join(s.quarantineDir, e.Name())
		if referenced[p] {
			continue
		}
		if at, ok := quarantinedAt(e.Name()); ok && at.After(cutoff) {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			s.log.Warn("failed to remove orphaned quarantine entry", logging.Path(p), logging.Err(err))
		}
	}
}

// quarantinedAt parses the unix-seconds prefix of a quarantine entry name
func quarantinedAt(name string) (time.Time, bool) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}

// QuarantineSize returns the bytes held in quarantine
func (s *Store) QuarantineSize() uint64 {
	var size uint64
	filepath.WalkDir(s.quarantineDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				size += uint64(info.Size())
			}
		}
		return nil
	})
	return size
}

// Records returns copies of all records, newest first
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reload()

	out := make([]Record, len(s.records))
	for i := range s.records {
		out[i] = s.records[i].clone()
	}
	return out
}

// Record returns a copy of the record with the given id
func (s *Store) Record(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reload()

	idx := s.indexOf(id)
	if idx < 0 {
		return Record{}, false
	}
	return s.records[idx].clone(), true
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reload()
	return len(s.records)
}

// Stats summarises the history and measures the quarantine
func (s *Store) Stats() Stats {
	s.mu.Lock()
	s.reload()
	stats := Stats{TotalRecords: len(s.records)}
	for i := range s.records {
		if s.records[i].IsUndoable() {
			stats.UndoableRecords++
		}
		stats.TotalItemsCleaned += len(s.records[i].Items)
	}
	s.mu.Unlock()

	stats.QuarantineBytes = s.QuarantineSize()
	return stats
}

// Save writes the records back to disk. Every mutation already persists, so
// this only matters after a failed write; otherwise it picks up what other
// processes wrote and rewrites it unchanged.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(nil)
}

// indexOf finds a record by id; caller holds s.mu
func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}
