// Package prompt abstracts "ask the user to pick one of N options" so that
// non-interactive runs can plug in a fixed answer.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/tanq16/ytpull/internal/output"
)

var ErrNoInput = errors.New("no input available")

type Chooser interface {
	// Choose returns the 0-based index of the picked option.
	Choose(title string, options []string, def int) (int, error)
}

// Fixed answers every question with the same index (clamped to the option
// count). Index -1 means "use the default".
type Fixed struct {
	Index int
}

func (f Fixed) Choose(title string, options []string, def int) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options for %q", title)
	}
	idx := f.Index
	if idx < 0 {
		idx = def
	}
	return max(0, min(idx, len(options)-1)), nil
}

type Terminal struct {
	mu     sync.Mutex
	reader *bufio.Reader
	out    io.Writer
}

func NewTerminal() *Terminal {
	return NewTerminalWith(os.Stdin, os.Stdout)
}

func NewTerminalWith(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{reader: bufio.NewReader(in), out: out}
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("error reading input: %v", err)
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) Choose(title string, options []string, def int) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options for %q", title)
	}
	def = max(0, min(def, len(options)-1))
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, output.FHeader(title))
	fmt.Fprintln(t.out, output.FDebug(strings.Repeat("=", 50)))
	for i, opt := range options {
		fmt.Fprintf(t.out, "  %s %s\n", output.FInfo(fmt.Sprintf("%d.", i+1)), opt)
	}
	fmt.Fprintln(t.out, output.FDebug(strings.Repeat("=", 50)))
	for {
		fmt.Fprintf(t.out, "Choose (1-%d, default=%d): ", len(options), def+1)
		line, err := t.readLine()
		if err != nil {
			return 0, err
		}
		if line == "" {
			return def, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(t.out, output.FError("Please enter a valid number"))
			continue
		}
		if n < 1 || n > len(options) {
			fmt.Fprintln(t.out, output.FError(fmt.Sprintf("Please enter a number between 1 and %d", len(options))))
			continue
		}
		fmt.Fprintln(t.out, output.FSuccess("Selected: "+options[n-1]))
		return n - 1, nil
	}
}

// Ask returns the trimmed answer, or def for an empty line.
func (t *Terminal) Ask(question, def string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, question)
	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// AskInt clamps the answer into [lo, hi]; unparsable answers yield def.
func (t *Terminal) AskInt(question string, def, lo, hi int) (int, error) {
	answer, err := t.Ask(question, "")
	if err != nil {
		return 0, err
	}
	if answer == "" {
		return def, nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		return def, nil
	}
	return max(lo, min(hi, n)), nil
}

// AskLines reads one entry per line until an empty line, the multi-line URL
// mode of the interactive session.
func (t *Terminal) AskLines(prefix string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var lines []string
	for i := 1; ; i++ {
		fmt.Fprintf(t.out, "   %s %d: ", prefix, i)
		line, err := t.readLine()
		if errors.Is(err, ErrNoInput) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			return lines, nil
		}
		lines = append(lines, line)
	}
}
