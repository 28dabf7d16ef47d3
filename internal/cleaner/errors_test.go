package cleaner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/fenilsonani/devsweep/internal/history"
	"github.com/fenilsonani/devsweep/internal/security"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		path      string
		reason    ErrorReason
		retryable bool
	}{
		{
			name:   "EACCES - permission denied",
			err:    syscall.EACCES,
			path:   "/protected/file.txt",
			reason: ErrorPermissionDenied,
		},
		{
			name:   "EPERM - operation not permitted",
			err:    syscall.EPERM,
			path:   "/system/file.txt",
			reason: ErrorPermissionDenied,
		},
		{
			name:   "ENOENT - file not found",
			err:    syscall.ENOENT,
			path:   "/missing/file.txt",
			reason: ErrorFileNotFound,
		},
		{
			name:      "EBUSY - resource busy",
			err:       syscall.EBUSY,
			path:      "/open/file.txt",
			reason:    ErrorFileInUse,
			retryable: true,
		},
		{
			name:      "ENOTEMPTY - directory refilled",
			err:       syscall.ENOTEMPTY,
			path:      "/some/dir",
			reason:    ErrorNotEmpty,
			retryable: true,
		},
		{
			name:   "EXDEV - rename across filesystems",
			err:    &os.LinkError{Op: "rename", Old: "/mnt/a", New: "/q/a", Err: syscall.EXDEV},
			path:   "/mnt/a",
			reason: ErrorCrossDevice,
		},
		{
			name:   "wrapped EACCES",
			err:    fmt.Errorf("failed to remove: %w", syscall.EACCES),
			path:   "/wrapped/file.txt",
			reason: ErrorPermissionDenied,
		},
		{
			name:   "os.PathError with EACCES",
			err:    &os.PathError{Op: "remove", Path: "/test/file.txt", Err: syscall.EACCES},
			path:   "/test/file.txt",
			reason: ErrorPermissionDenied,
		},
		{
			name:   "os.ErrNotExist",
			err:    os.ErrNotExist,
			path:   "/not/exist.txt",
			reason: ErrorFileNotFound,
		},
		{
			name:   "protected path",
			err:    &security.ProtectedPathError{Path: "/usr/bin"},
			path:   "/usr/bin",
			reason: ErrorProtected,
		},
		{
			name:   "command exit status",
			err:    &CommandError{Command: "false", ExitCode: 1},
			path:   "false",
			reason: ErrorCommandFailed,
		},
		{
			name:   "item without path",
			err:    history.ErrNoPath,
			path:   "",
			reason: ErrorInvalidPath,
		},
		{
			name:   "generic error",
			err:    errors.New("unknown error"),
			path:   "/some/file.txt",
			reason: ErrorUnknown,
		},
		{
			name: "nil error",
			err:  nil,
			path: "/nil/error/file.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delErr := CategorizeError(tt.path, tt.err)

			if tt.err == nil {
				if delErr != nil {
					t.Errorf("CategorizeError(nil) should return nil, got %v", delErr)
				}
				return
			}

			if delErr.Reason != tt.reason {
				t.Errorf("CategorizeError(%v) reason = %v, want %v", tt.err, delErr.Reason, tt.reason)
			}
			if delErr.Retryable != tt.retryable {
				t.Errorf("CategorizeError(%v) retryable = %v, want %v", tt.err, delErr.Retryable, tt.retryable)
			}
			if delErr.Path != tt.path {
				t.Errorf("CategorizeError(%v) path = %s, want %s", tt.err, delErr.Path, tt.path)
			}
			if !errors.Is(delErr, tt.err) {
				t.Errorf("DeletionError should unwrap to %v", tt.err)
			}
		})
	}
}

func TestDeletionError_Error(t *testing.T) {
	delErr := &DeletionError{
		Path:     "/test/file.txt",
		Reason:   ErrorPermissionDenied,
		Original: os.ErrPermission,
	}

	msg := delErr.Error()
	if !strings.Contains(msg, "/test/file.txt") || !strings.Contains(msg, "Permission denied") {
		t.Errorf("DeletionError.Error() = %s", msg)
	}
}

func TestUnwrapError(t *testing.T) {
	wrappedTwice := fmt.Errorf("level 2: %w", fmt.Errorf("level 1: %w", syscall.EACCES))

	delErr := CategorizeError("/test/file.txt", wrappedTwice)
	if delErr.Reason != ErrorPermissionDenied {
		t.Error("Expected error unwrapping to find EACCES and categorize as permission error")
	}

	pathErr := &os.PathError{Op: "remove", Path: "/test/wrapped.txt", Err: syscall.EBUSY}
	delErr = CategorizeError("/test/wrapped.txt", fmt.Errorf("failed: %w", pathErr))
	if delErr.Reason != ErrorFileInUse {
		t.Error("Expected error unwrapping through PathError to find EBUSY")
	}
	if !delErr.Retryable {
		t.Error("Expected EBUSY error to be retryable")
	}
}

func TestErrorReasonString(t *testing.T) {
	tests := []struct {
		reason   ErrorReason
		expected string
	}{
		{ErrorPermissionDenied, "Permission denied"},
		{ErrorFileNotFound, "File not found"},
		{ErrorFileInUse, "File is in use"},
		{ErrorNotEmpty, "Directory not empty"},
		{ErrorCrossDevice, "Cross-device move"},
		{ErrorProtected, "Protected path"},
		{ErrorInvalidPath, "Invalid path"},
		{ErrorCommandFailed, "Command failed"},
		{ErrorUnknown, "Unknown error"},
		{ErrorReason(99), "Unspecified error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.reason.String(); result != tt.expected {
				t.Errorf("ErrorReason(%d).String() = %s, want %s", tt.reason, result, tt.expected)
			}
		})
	}
}

func TestDeletionError_UserMessage(t *testing.T) {
	tests := []struct {
		name          string
		delErr        *DeletionError
		shouldContain string
	}{
		{
			name:          "permission denied",
			delErr:        &DeletionError{Path: "/test/file.txt", Reason: ErrorPermissionDenied, Original: os.ErrPermission},
			shouldContain: "Permission denied",
		},
		{
			name:          "file in use",
			delErr:        &DeletionError{Path: "/test/open.txt", Reason: ErrorFileInUse, Original: errors.New("busy")},
			shouldContain: "being used",
		},
		{
			name:          "cross device",
			delErr:        &DeletionError{Path: "/mnt/x", Reason: ErrorCrossDevice, Original: syscall.EXDEV},
			shouldContain: "across filesystems",
		},
		{
			name: "command failed",
			delErr: &DeletionError{
				Path:     "brew cleanup",
				Reason:   ErrorCommandFailed,
				Original: &CommandError{Command: "brew cleanup", ExitCode: 2, Output: "locked\n"},
			},
			shouldContain: "status 2: locked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.delErr.UserMessage(); !strings.Contains(result, tt.shouldContain) {
				t.Errorf("UserMessage() = %s, should contain %s", result, tt.shouldContain)
			}
		})
	}
}

func TestGroupErrors(t *testing.T) {
	delErrors := []*DeletionError{
		{Reason: ErrorPermissionDenied, Path: "/a", Original: os.ErrPermission},
		{Reason: ErrorPermissionDenied, Path: "/b", Original: os.ErrPermission},
		{Reason: ErrorFileInUse, Path: "/c", Original: errors.New("busy")},
		{Reason: ErrorFileNotFound, Path: "/d", Original: os.ErrNotExist},
		{Reason: ErrorFileInUse, Path: "/e", Original: errors.New("busy")},
	}

	grouped := GroupErrors(delErrors)

	if len(grouped[ErrorPermissionDenied]) != 2 {
		t.Errorf("Expected 2 permission errors, got %d", len(grouped[ErrorPermissionDenied]))
	}
	if len(grouped[ErrorFileInUse]) != 2 {
		t.Errorf("Expected 2 busy errors, got %d", len(grouped[ErrorFileInUse]))
	}
	if len(grouped[ErrorFileNotFound]) != 1 {
		t.Errorf("Expected 1 not found error, got %d", len(grouped[ErrorFileNotFound]))
	}
	if len(grouped[ErrorUnknown]) != 0 {
		t.Errorf("Expected 0 unknown errors, got %d", len(grouped[ErrorUnknown]))
	}
}

func TestFormatErrorSummary(t *testing.T) {
	delErrors := []*DeletionError{
		{Path: "/test/file1.txt", Reason: ErrorPermissionDenied, Original: os.ErrPermission},
		{Path: "/test/file2.txt", Reason: ErrorPermissionDenied, Original: os.ErrPermission},
		{Path: "/test/file3.txt", Reason: ErrorFileInUse, Original: errors.New("busy")},
		{Path: "/mnt/file4.txt", Reason: ErrorCrossDevice, Original: syscall.EXDEV},
		{Path: "/test/file5.txt", Reason: ErrorUnknown, Original: errors.New("unknown")},
	}

	summary := FormatErrorSummary(delErrors)

	for _, want := range []string{"Permission denied: 2 items", "File in use: 1 items", "another filesystem", "Other errors: 1 items"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, summary)
		}
	}

	if s := FormatErrorSummary(nil); s != "" {
		t.Errorf("Expected empty summary for nil errors, got: %s", s)
	}
}

func TestBatchErrorCarriesCounts(t *testing.T) {
	var s *Summary
	if s.Err() != nil {
		t.Error("nil summary should have no error")
	}

	s = &Summary{RecordID: "r", Success: 3, Errors: 1, Messages: []string{"x: failed"}}
	var batchErr *BatchError
	if !errors.As(s.Err(), &batchErr) {
		t.Fatalf("Err() = %v, want *BatchError", s.Err())
	}
	if batchErr.SuccessCount != 3 || batchErr.ErrorCount != 1 {
		t.Errorf("BatchError counts = %d/%d", batchErr.SuccessCount, batchErr.ErrorCount)
	}
	if batchErr.Error() != "cleaned 3 items with 1 errors" {
		t.Errorf("BatchError.Error() = %s", batchErr.Error())
	}

	if (&Summary{Success: 2}).Err() != nil {
		t.Error("summary without failures should have no error")
	}
}
