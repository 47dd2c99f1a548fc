package output

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tanq16/ytpull/internal/input"
	"github.com/tanq16/ytpull/internal/utils"
)

func TestResultsConcurrentAdd(t *testing.T) {
	results := NewResults()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
			results.Add(utils.JobResult{TargetID: fmt.Sprintf("r-%d", i+1), Index: i, Success: i%5 != 0})
		}(i)
	}
	wg.Wait()
	if results.Len() != 50 {
		t.Fatalf("expected 50 results, got %d", results.Len())
	}
	sorted := results.Sorted()
	for i, res := range sorted {
		if res.Index != i {
			t.Fatalf("result %d out of order: %+v", i, res)
		}
	}
	if results.Failed() != 10 || results.Succeeded() != 40 {
		t.Errorf("expected 40/10, got %d/%d", results.Succeeded(), results.Failed())
	}
}

func TestPrintSummary(t *testing.T) {
	results := NewResults()
	results.Add(utils.JobResult{Index: 1, URL: "https://youtube.com/watch?v=bad", Err: utils.ErrNoFormats})
	results.Add(utils.JobResult{Index: 0, URL: "https://youtube.com/watch?v=good", Success: true})
	var buf bytes.Buffer
	PrintSummary(&buf, results, []input.Rejected{{Token: "not-a-url", Reason: "unrecognized URL shape"}}, "downloads")
	out := buf.String()
	for _, want := range []string{
		"Completed 1 of 2",
		"Failed 1 of 2",
		"https://youtube.com/watch?v=bad",
		"no downloadable formats",
		"not-a-url",
		"All files saved to",
		"downloads",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "watch?v=good") {
		t.Error("successful jobs should not be listed individually")
	}
}

func TestPrintSummaryPartialCollection(t *testing.T) {
	results := NewResults()
	results.Add(utils.JobResult{URL: "https://youtube.com/playlist?list=PL1", Success: true, Skipped: 2})
	var buf bytes.Buffer
	PrintSummary(&buf, results, nil, "downloads")
	out := buf.String()
	if !strings.Contains(out, "Completed 1 of 1") || !strings.Contains(out, "playlist?list=PL1") || !strings.Contains(out, "2 entr(y/ies) could not be downloaded") {
		t.Errorf("summary should flag the skipped entries:\n%s", out)
	}
}

func TestPrintSummaryAllFailed(t *testing.T) {
	results := NewResults()
	results.Add(utils.JobResult{URL: "u", Err: errors.New("boom")})
	var buf bytes.Buffer
	PrintSummary(&buf, results, nil, "downloads")
	if strings.Contains(buf.String(), "All files saved") {
		t.Error("no save location when nothing succeeded")
	}
}

func TestManagerPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(&buf, false)
	m.Register("r-1", "https://youtube.com/watch?v=a", 0)
	m.Register("r-2", "https://youtube.com/watch?v=b", 1)
	m.StartDisplay()
	m.SetMessage("r-1", "Fetching a")
	m.AddStreamLine("r-1", " 50.0% of 10.00 MB")
	m.Complete("r-1", "")
	m.ReportError("r-2", errors.New("private video"))
	m.SetMessage("missing", "ignored")
	m.StopDisplay()
	m.StopDisplay()

	out := buf.String()
	for _, want := range []string{"Fetching a", "Completed https://youtube.com/watch?v=a", "private video"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "50.0%") {
		t.Error("stream lines are only shown by the live display")
	}
}

func TestManagerFrameOrderAndStreams(t *testing.T) {
	m := NewManager(&bytes.Buffer{}, true)
	m.Register("r-2", "b", 1)
	m.Register("r-1", "a", 0)
	m.SetMessage("r-1", "first")
	for i := 0; i < 5; i++ {
		m.AddStreamLine("r-1", fmt.Sprintf("line %d", i))
	}
	lines := m.frame(80, 40)
	if len(lines) != 1+3+1 {
		t.Fatalf("expected 5 lines (streams capped at 3), got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "r-1") || !strings.Contains(lines[4], "r-2") {
		t.Errorf("jobs not in input order: %v", lines)
	}
	if !strings.Contains(lines[3], "line 4") || strings.Contains(strings.Join(lines, "\n"), "line 1") {
		t.Errorf("expected only the latest stream lines: %v", lines)
	}
	short := m.frame(80, 5)
	if len(short) != 2 {
		t.Errorf("frame should respect terminal height, got %d lines", len(short))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Errorf("got %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Errorf("got %q", got)
	}
}
