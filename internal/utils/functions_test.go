package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestClampWorkers(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultWorkers},
		{-2, DefaultWorkers},
		{1, 1},
		{3, 3},
		{5, 5},
		{9, 5},
	}
	for _, tt := range tests {
		if got := ClampWorkers(tt.in); got != tt.want {
			t.Errorf("ClampWorkers(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[uint64]string{
		512:             "512 B",
		1024:            "1.00 KB",
		5 * 1024 * 1024: "5.00 MB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestParseHeaderArgs(t *testing.T) {
	got := ParseHeaderArgs([]string{"Cookie: a=b", "broken", "X-Test:  value "})
	if len(got) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(got))
	}
	if got["Cookie"] != "a=b" || got["X-Test"] != "value" {
		t.Errorf("unexpected headers: %v", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection reset"), true},
		{fmt.Errorf("job: %w", ErrTransient), true},
		{fmt.Errorf("mux: %w", ErrProcessing), false},
		{fmt.Errorf("probe: %w", ErrNoFormats), false},
		{fmt.Errorf("playlist: %w", ErrEmptyList), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestProxyString(t *testing.T) {
	cfg := HTTPClientConfig{ProxyURL: "http://proxy.local:8080", ProxyUsername: "u", ProxyPassword: "p"}
	if got := cfg.ProxyString(); got != "http://u:p@proxy.local:8080" {
		t.Errorf("ProxyString() = %q", got)
	}
	if got := (HTTPClientConfig{}).ProxyString(); got != "" {
		t.Errorf("empty proxy should stay empty, got %q", got)
	}
}
