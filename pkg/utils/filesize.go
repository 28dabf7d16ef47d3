package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
	GB = 1024 * MB
	TB = 1024 * GB
)

// FormatBytes converts bytes to human-readable IEC format ("1.5 GiB")
func FormatBytes(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// FormatBytesSigned formats a possibly negative byte delta.
func FormatBytesSigned(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// ParseSize converts a human-readable size ("10GiB", "500 MB", "1k") to bytes
func ParseSize(size string) (uint64, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return 0, fmt.Errorf("invalid size format: empty")
	}
	n, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, fmt.Errorf("invalid size format: %s", size)
	}
	return n, nil
}

// SumSizes adds up a slice of sizes
func SumSizes(sizes []uint64) uint64 {
	var total uint64
	for _, size := range sizes {
		total += size
	}
	return total
}

// FormatAge renders how long ago t was ("3 minutes ago")
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// FormatCount adds thousands separators to a count
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
