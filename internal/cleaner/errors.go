package cleaner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/fenilsonani/devsweep/internal/history"
	"github.com/fenilsonani/devsweep/internal/security"
)

// ErrorReason categorizes why a cleanup action failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorNotEmpty
	ErrorCrossDevice
	ErrorProtected
	ErrorInvalidPath
	ErrorCommandFailed
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorNotEmpty:
		return "Directory not empty"
	case ErrorCrossDevice:
		return "Cross-device move"
	case ErrorProtected:
		return "Protected path"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorCommandFailed:
		return "Command failed"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// DeletionError is a categorized failure of one cleanup item
type DeletionError struct {
	Path      string
	Reason    ErrorReason
	Original  error
	Retryable bool
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

func (e *DeletionError) Unwrap() error {
	return e.Original
}

// UserMessage returns a user-friendly error message
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		return fmt.Sprintf("⚠️  Permission denied: %s", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("⚠️  File is being used: %s (close the application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("ℹ️  Path does not exist: %s", e.Path)
	case ErrorNotEmpty:
		return fmt.Sprintf("⚠️  Directory not empty: %s (it changed during cleanup)", e.Path)
	case ErrorCrossDevice:
		return fmt.Sprintf("⚠️  Cannot quarantine across filesystems: %s (clean it permanently instead)", e.Path)
	case ErrorProtected:
		return fmt.Sprintf("❌ Refusing to touch protected path: %s", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("❌ Invalid or unsafe path: %s", e.Path)
	case ErrorCommandFailed:
		return fmt.Sprintf("❌ Cleanup command failed: %v", e.Original)
	default:
		return fmt.Sprintf("❌ Error cleaning %s: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized DeletionError
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	delErr := &DeletionError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	var cmdErr *CommandError
	switch {
	case errors.As(err, &cmdErr):
		delErr.Reason = ErrorCommandFailed
		return delErr
	case errors.Is(err, security.ErrProtected):
		delErr.Reason = ErrorProtected
		return delErr
	case errors.Is(err, history.ErrNoPath):
		delErr.Reason = ErrorInvalidPath
		return delErr
	}

	// Check if file not found
	if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
		delErr.Reason = ErrorFileNotFound
		return delErr
	}

	// Check if permission error
	if os.IsPermission(err) || errors.Is(err, os.ErrPermission) {
		delErr.Reason = ErrorPermissionDenied
		return delErr
	}

	// Check syscall errors
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			delErr.Reason = ErrorPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			delErr.Reason = ErrorFileInUse
			delErr.Retryable = true
		case syscall.ENOENT:
			delErr.Reason = ErrorFileNotFound
		case syscall.ENOTEMPTY, syscall.EEXIST:
			delErr.Reason = ErrorNotEmpty
			delErr.Retryable = true
		case syscall.EXDEV:
			delErr.Reason = ErrorCrossDevice
		case syscall.EINVAL, syscall.ENAMETOOLONG:
			delErr.Reason = ErrorInvalidPath
		}
		return delErr
	}

	return delErr
}

// GroupErrors groups deletion errors by reason
func GroupErrors(errors []*DeletionError) map[ErrorReason][]*DeletionError {
	grouped := make(map[ErrorReason][]*DeletionError)
	for _, err := range errors {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}

// FormatErrorSummary creates a user-friendly summary of errors
func FormatErrorSummary(errors []*DeletionError) string {
	if len(errors) == 0 {
		return ""
	}

	grouped := GroupErrors(errors)
	var b strings.Builder
	b.WriteString("\n⚠️  Issues encountered:\n")

	if perms, ok := grouped[ErrorPermissionDenied]; ok {
		fmt.Fprintf(&b, "   ├─ Permission denied: %d items\n", len(perms))
		b.WriteString("   │  └─ Tip: Check ownership of the cache directory\n")
	}
	if busy, ok := grouped[ErrorFileInUse]; ok {
		fmt.Fprintf(&b, "   ├─ File in use: %d items\n", len(busy))
		b.WriteString("   │  └─ Tip: Close applications and retry\n")
	}
	if notFound, ok := grouped[ErrorFileNotFound]; ok {
		fmt.Fprintf(&b, "   ├─ Already gone: %d items\n", len(notFound))
	}
	if xdev, ok := grouped[ErrorCrossDevice]; ok {
		fmt.Fprintf(&b, "   ├─ On another filesystem: %d items\n", len(xdev))
		b.WriteString("   │  └─ Tip: Clean with --permanent to skip quarantine\n")
	}
	if protected, ok := grouped[ErrorProtected]; ok {
		fmt.Fprintf(&b, "   ├─ Protected paths: %d items\n", len(protected))
	}
	if cmds, ok := grouped[ErrorCommandFailed]; ok {
		fmt.Fprintf(&b, "   ├─ Failed commands: %d items\n", len(cmds))
	}

	other := len(grouped[ErrorUnknown]) + len(grouped[ErrorNotEmpty]) + len(grouped[ErrorInvalidPath])
	if other > 0 {
		fmt.Fprintf(&b, "   └─ Other errors: %d items\n", other)
	}

	return b.String()
}

// CommandError is a cleanup command that exited unsuccessfully
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q exited with status %d: %s", e.Command, e.ExitCode, out)
}

// BatchError reports a cleanup batch that finished with failed items
type BatchError struct {
	RecordID     string
	SuccessCount int
	ErrorCount   int
	Messages     []string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("cleaned %d items with %d errors", e.SuccessCount, e.ErrorCount)
}
