package utils

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{10 * GB, "10 GiB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"10GiB", 10 * GB, false},
		{"500 MiB", 500 * MB, false},
		{"1KB", 1000, false},
		{"42", 42, false},
		{"", 0, true},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSumSizes(t *testing.T) {
	if got := SumSizes([]uint64{1, 2, 3}); got != 6 {
		t.Errorf("expected 6, got %d", got)
	}
}

func TestFormatAge(t *testing.T) {
	if got := FormatAge(time.Time{}); got != "never" {
		t.Errorf("expected never, got %q", got)
	}
	if got := FormatAge(time.Now().Add(-3 * time.Hour)); got != "3 hours ago" {
		t.Errorf("expected '3 hours ago', got %q", got)
	}
}

func TestFormatBytesSigned(t *testing.T) {
	if got := FormatBytesSigned(-2048); got != "-2.0 KiB" {
		t.Errorf("expected -2.0 KiB, got %q", got)
	}
}
