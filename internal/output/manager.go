package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type jobOutput struct {
	ID          string
	URL         string
	Index       int
	Status      string
	Message     string
	StreamLines []string
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
}

// Manager renders one line per job plus its latest engine output. When not
// live (stdout is not a terminal) it prints each state change once instead.
type Manager struct {
	out         io.Writer
	live        bool
	jobs        map[string]*jobOutput
	mutex       sync.RWMutex
	numLines    int
	maxStreams  int
	doneCh      chan struct{}
	displayTick time.Duration
	displayWg   sync.WaitGroup
	stopOnce    sync.Once
}

func NewManager(out io.Writer, live bool) *Manager {
	return &Manager{
		out:         out,
		live:        live,
		jobs:        make(map[string]*jobOutput),
		maxStreams:  3,
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

func (m *Manager) Register(id, url string, index int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobs[id] = &jobOutput{
		ID:          id,
		URL:         url,
		Index:       index,
		Status:      "pending",
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
	}
}

func (m *Manager) SetMessage(id, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.jobs[id]; exists {
		if info.Status == "pending" {
			info.Status = "active"
			info.StartTime = time.Now()
		}
		info.Message = message
		info.LastUpdated = time.Now()
		if !m.live {
			fmt.Fprintf(m.out, "%s%s %s %s\n", indent(2), pendingStyle.Render(StyleSymbols["arrow"]), debugStyle.Render(id), message)
		}
	}
}

func (m *Manager) AddStreamLine(id, line string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.jobs[id]; exists {
		info.StreamLines = append(info.StreamLines, line)
		if len(info.StreamLines) > m.maxStreams {
			info.StreamLines = info.StreamLines[len(info.StreamLines)-m.maxStreams:]
		}
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id, message string) {
	m.finish(id, "success", message)
}

func (m *Manager) ReportError(id string, err error) {
	m.finish(id, "error", err.Error())
}

func (m *Manager) finish(id, status, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	info, exists := m.jobs[id]
	if !exists {
		return
	}
	info.StreamLines = nil
	if message == "" {
		message = fmt.Sprintf("Completed %s", info.URL)
	}
	info.Message = message
	info.Complete = true
	info.Status = status
	info.LastUpdated = time.Now()
	if !m.live {
		fmt.Fprintln(m.out, m.statusLine(info))
	}
}

func (m *Manager) GetStatusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) statusLine(info *jobOutput) string {
	elapsed := time.Since(info.StartTime).Round(time.Second)
	if info.Complete {
		elapsed = info.LastUpdated.Sub(info.StartTime).Round(time.Second)
	}
	var styled string
	switch info.Status {
	case "success":
		styled = successStyle.Render(info.Message)
	case "error":
		styled = errorStyle.Render(info.Message)
	case "pending":
		styled = pendingStyle.Render("Waiting...")
	default:
		styled = pendingStyle.Render(info.Message)
	}
	return fmt.Sprintf("%s%s %s %s %s", indent(2), m.GetStatusIndicator(info.Status), debugStyle.Render(info.ID), debugStyle.Render(elapsed.String()), styled)
}

// frame renders every job in input order, limited to the given height.
func (m *Manager) frame(width, height int) []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	jobs := make([]*jobOutput, 0, len(m.jobs))
	for _, info := range m.jobs {
		jobs = append(jobs, info)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Index < jobs[j].Index })

	available := max(height-3, 1)
	var lines []string
	for _, info := range jobs {
		if len(lines) >= available {
			lines = append(lines[:available-1], debugStyle.Render(indent(2)+"..."))
			break
		}
		lines = append(lines, m.statusLine(info))
		for _, stream := range info.StreamLines {
			lines = append(lines, indent(6)+streamStyle.Render(truncate(stream, width-8)))
		}
	}
	if len(lines) > available {
		lines = lines[:available]
	}
	return lines
}

func (m *Manager) updateDisplay() {
	width, height := getTerminalSize()
	lines := m.frame(width, height)
	var b strings.Builder
	if m.numLines > 0 {
		fmt.Fprintf(&b, "\033[%dA\033[J", m.numLines)
	}
	for _, line := range lines {
		b.WriteString(line + "\n")
	}
	fmt.Fprint(m.out, b.String())
	m.numLines = len(lines)
}

func (m *Manager) StartDisplay() {
	if !m.live {
		return
	}
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				return
			}
		}
	}()
}

// StopDisplay draws the final frame and waits for the display goroutine.
func (m *Manager) StopDisplay() {
	m.stopOnce.Do(func() {
		close(m.doneCh)
		m.displayWg.Wait()
	})
}
