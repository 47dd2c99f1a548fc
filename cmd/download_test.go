package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestRedirectLogsRestoresStderr(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ytpull.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatal(err)
	}
	restore := redirectLogs(f)
	log.Warn().Msg("during display")
	restore()
	log.Warn().Msg("after display")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "during display") {
		t.Errorf("log file should hold messages from the live run, got %q", content)
	}
	if strings.Contains(content, "after display") {
		t.Error("logger must stop writing to the file once it is closed")
	}
	if _, err := f.Write([]byte("x")); err == nil {
		t.Error("log file should be closed by restore")
	}
}
