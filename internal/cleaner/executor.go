// Package cleaner executes cleanup batches: commands, trash emptying,
// quarantine moves and permanent deletes, journaled into the history.
package cleaner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fenilsonani/devsweep/internal/cache"
	"github.com/fenilsonani/devsweep/internal/config"
	"github.com/fenilsonani/devsweep/internal/history"
	"github.com/fenilsonani/devsweep/internal/logging"
	"github.com/fenilsonani/devsweep/internal/metrics"
	"github.com/fenilsonani/devsweep/internal/progress"
	"github.com/fenilsonani/devsweep/internal/security"
	"github.com/fenilsonani/devsweep/internal/types"
	"github.com/fenilsonani/devsweep/pkg/utils"
)

// Action is how an item was cleaned
type Action string

const (
	ActionCommand    Action = "command"
	ActionTrash      Action = "trash"
	ActionQuarantine Action = "quarantine"
	ActionDelete     Action = "delete"
)

// Summary is the outcome of a cleanup batch. Failed items are counted here,
// never returned as an error.
type Summary struct {
	RecordID   string
	Success    int
	Errors     int
	Messages   []string
	FreedBytes uint64
	Outcomes   []Outcome
	Failures   []*DeletionError
}

// Outcome is what happened to one item of the batch
type Outcome struct {
	Kind    string
	Action  Action
	Message string
	Err     *DeletionError
}

// OK reports whether the item was cleaned
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Err returns a *BatchError when any item failed, nil otherwise
func (s *Summary) Err() error {
	if s == nil || s.Errors == 0 {
		return nil
	}
	return &BatchError{
		RecordID:     s.RecordID,
		SuccessCount: s.Success,
		ErrorCount:   s.Errors,
		Messages:     s.Messages,
	}
}

// Executor runs cleanup batches
type Executor struct {
	store            *history.Store
	cache            *cache.ScanCache
	validator        *security.PathValidator
	shell            string
	trashDirs        []string
	progressReporter *progress.Reporter
	retryDelays      []time.Duration
	now              func() time.Time
	log              *zap.Logger
}

// NewExecutor creates an executor journaling into store. scanCache is
// cleared after every batch and may be nil; validator may be nil.
func NewExecutor(store *history.Store, scanCache *cache.ScanCache, validator *security.PathValidator, cfg *config.Config) *Executor {
	return &Executor{
		store:     store,
		cache:     scanCache,
		validator: validator,
		shell:     cfg.ResolveShell(),
		trashDirs: cfg.TrashDirs,
		retryDelays: []time.Duration{
			100 * time.Millisecond,
			500 * time.Millisecond,
		},
		now: time.Now,
		log: logging.Named("cleaner"),
	}
}

// SetProgressReporter sets the reporter cleanup progress is published to
func (e *Executor) SetProgressReporter(pr *progress.Reporter) {
	e.progressReporter = pr
}

// Store returns the history the executor journals into
func (e *Executor) Store() *history.Store {
	return e.store
}

// Execute cleans every item and records the batch. Items are classified in
// order: command, trash contents, quarantine, permanent delete. The error
// return is reserved for conditions that stop the batch from being recorded
// at all; per-item failures are reported in the Summary.
func (e *Executor) Execute(items []types.CleanupItem, useQuarantine bool) (*Summary, error) {
	if e.store == nil {
		return nil, errors.New("cleanup history is not available")
	}

	start := e.now()
	rec := history.NewRecord(history.NewID(start), start)
	summary := &Summary{RecordID: rec.ID, Messages: []string{}}

	var totalBytes uint64
	for _, item := range items {
		totalBytes += item.SizeBytes
	}
	e.reportProgress(progress.PhaseCleaning, "", 0, len(items), summary, totalBytes, start)

	for i, item := range items {
		e.reportProgress(progress.PhaseCleaning, item.Kind, i, len(items), summary, totalBytes, start)

		action := e.classify(item, useQuarantine)
		itemRecord, msg, err := e.process(item, action)
		rec.Add(itemRecord)
		metrics.RecordCleanupItem(string(action), err == nil, item.SizeBytes)

		if err != nil {
			delErr := asDeletionError(item, err)
			msg := fmt.Sprintf("%s: %s", item.Kind, itemRecord.ErrorMessage)
			summary.Errors++
			summary.Failures = append(summary.Failures, delErr)
			summary.Messages = append(summary.Messages, msg)
			summary.Outcomes = append(summary.Outcomes, Outcome{Kind: item.Kind, Action: action, Message: msg, Err: delErr})
			e.log.Warn("cleanup item failed",
				logging.String("kind", item.Kind),
				logging.String("action", string(action)),
				logging.Path(item.Path),
				logging.Err(err))
			continue
		}

		summary.Success++
		summary.FreedBytes += item.SizeBytes
		summary.Messages = append(summary.Messages, msg)
		summary.Outcomes = append(summary.Outcomes, Outcome{Kind: item.Kind, Action: action, Message: msg})
		e.log.Debug("cleanup item done",
			logging.String("kind", item.Kind),
			logging.String("action", string(action)),
			logging.Uint64("bytes", item.SizeBytes))
	}

	if err := e.store.AddRecord(rec); err != nil {
		e.log.Warn("failed to save cleanup history", logging.Err(err))
	}
	e.invalidateCache()

	e.reportProgress(progress.PhaseComplete, "", len(items), len(items), summary, totalBytes, start)
	e.log.Info("cleanup complete",
		logging.String("record", rec.ID),
		logging.Int("success", summary.Success),
		logging.Int("errors", summary.Errors),
		logging.Uint64("freed_bytes", summary.FreedBytes),
		logging.Duration("took", e.now().Sub(start)))

	return summary, nil
}

// Undo restores a cleanup record and invalidates the scan cache, since the
// restored files change what a scan would find
func (e *Executor) Undo(recordID string) (*history.UndoResult, error) {
	if e.store == nil {
		return nil, errors.New("cleanup history is not available")
	}
	result, err := e.store.Undo(recordID)
	if err != nil {
		return nil, err
	}
	e.invalidateCache()
	return result, nil
}

func (e *Executor) classify(item types.CleanupItem, useQuarantine bool) Action {
	switch {
	case item.HasCommand():
		return ActionCommand
	case item.HasPath() && e.isTrash(item.Path):
		return ActionTrash
	case useQuarantine && item.HasPath():
		return ActionQuarantine
	default:
		return ActionDelete
	}
}

// isTrash reports whether path is one of the configured trash directories
func (e *Executor) isTrash(path string) bool {
	for _, suffix := range e.trashDirs {
		if utils.HasPathSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// process performs one action and returns its history entry
func (e *Executor) process(item types.CleanupItem, action Action) (history.ItemRecord, string, error) {
	if action != ActionCommand {
		if err := e.validate(item); err != nil {
			return history.Failed(item, err), "", err
		}
	}

	switch action {
	case ActionCommand:
		out, err := e.runCommand(item.CleanupCommand)
		if err != nil {
			return history.Failed(item, err), "", err
		}
		msg := "Ran: " + item.CleanupCommand
		if out != "" {
			msg += " (" + firstLine(out) + ")"
		}
		return history.Deleted(item), msg, nil

	case ActionTrash:
		n, err := emptyTrash(item.Path)
		if err != nil {
			return history.Failed(item, err), "", err
		}
		return history.Deleted(item), fmt.Sprintf("Emptied Trash (%d items deleted)", n), nil

	case ActionQuarantine:
		dest, err := e.store.Quarantine(item)
		if err != nil {
			return history.Failed(item, err), "", err
		}
		return history.Quarantined(item, dest), "Quarantined: " + item.Kind, nil

	default:
		if !item.HasPath() {
			return history.Failed(item, types.ErrNoAction), "", types.ErrNoAction
		}
		if err := e.deleteWithRetry(item.Path); err != nil {
			return history.Failed(item, err), "", err
		}
		return history.Deleted(item), "Deleted: " + item.Path, nil
	}
}

// validate refuses protected and special paths before anything destructive
func (e *Executor) validate(item types.CleanupItem) error {
	if !item.HasPath() {
		return nil
	}
	if e.validator != nil {
		if err := e.validator.ValidatePathForDeletion(item.Path); err != nil {
			return err
		}
	}
	if isSpecial, err := IsSpecialFile(item.Path); isSpecial {
		return &DeletionError{Path: item.Path, Reason: ErrorInvalidPath, Original: err}
	}
	return nil
}

// runCommand runs command through the user's shell. Success iff exit status 0.
func (e *Executor) runCommand(command string) (string, error) {
	cmd := exec.Command(e.shell, "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &CommandError{
				Command:  command,
				ExitCode: exitErr.ExitCode(),
				Output:   stderr.String(),
			}
		}
		return "", fmt.Errorf("failed to execute command: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// deleteWithRetry removes path, retrying transient failures
func (e *Executor) deleteWithRetry(path string) error {
	var lastErr *DeletionError
	for attempt := 0; attempt <= len(e.retryDelays); attempt++ {
		err := deletePath(path)
		if err == nil {
			return nil
		}
		lastErr = CategorizeError(path, err)
		if !lastErr.Retryable || attempt == len(e.retryDelays) {
			break
		}
		time.Sleep(e.retryDelays[attempt])
	}
	return lastErr
}

// deletePath removes a file or directory tree. A missing path is an error.
func deletePath(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

// xdgTrashDirs are the fixed subdirectories of a freedesktop trash; they are
// emptied rather than removed
var xdgTrashDirs = map[string]bool{"files": true, "info": true, "expunged": true}

// emptyTrash deletes the contents of a trash directory, keeping the directory
// itself. A missing trash directory is already empty.
func emptyTrash(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read trash directory: %w", err)
	}

	deleted := 0
	var failures []string
	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		if entry.IsDir() && xdgTrashDirs[entry.Name()] {
			n, err := emptyTrash(p)
			deleted += n
			if err != nil {
				failures = append(failures, err.Error())
			}
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", p, err))
			continue
		}
		deleted++
	}

	if len(failures) > 0 {
		return deleted, fmt.Errorf("emptied %d items from trash, but %d errors occurred:\n%s",
			deleted, len(failures), strings.Join(failures, "\n"))
	}
	return deleted, nil
}

func (e *Executor) invalidateCache() {
	if e.cache == nil {
		return
	}
	e.cache.Clear()
	if err := e.cache.Save(); err != nil {
		metrics.RecordPersistFailure(cache.FileName)
		e.log.Warn("failed to save scan cache", logging.Err(err))
	}
}

func (e *Executor) reportProgress(phase progress.Phase, current string, done, total int, s *Summary, totalBytes uint64, start time.Time) {
	if e.progressReporter == nil {
		return
	}
	e.progressReporter.UpdateCleanProgress(&progress.CleanProgress{
		Phase:       phase,
		CurrentItem: current,
		ItemsDone:   done,
		ItemsTotal:  total,
		FreedBytes:  s.FreedBytes,
		TotalBytes:  totalBytes,
		ErrorCount:  s.Errors,
		StartTime:   start,
	})
}

func asDeletionError(item types.CleanupItem, err error) *DeletionError {
	var delErr *DeletionError
	if errors.As(err, &delErr) {
		return delErr
	}
	path := item.Path
	if path == "" {
		path = item.CleanupCommand
	}
	return CategorizeError(path, err)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
