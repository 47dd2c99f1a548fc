package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tanq16/ytpull/internal/utils"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output != utils.DefaultOutputRoot || cfg.Workers != utils.DefaultWorkers || cfg.Retries != utils.DefaultRetries {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Backoff != utils.DefaultBackoff || cfg.S3.Prefix != "ytpull" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileEnvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := filepath.Join(dir, "custom.yaml")
	content := "output: media\nworkers: 4\nbackoff: 5s\ntools:\n  ffmpeg: /opt/ffmpeg\ns3:\n  bucket: from-file\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("YTPULL_S3_BUCKET", "from-env")
	t.Setenv("YTPULL_QUALITY", "720")

	cfg, err := Load(Overrides{ConfigFile: file, Values: map[string]any{"workers": 2}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output != "media" || cfg.Tools.FFmpeg != "/opt/ffmpeg" || cfg.Backoff != 5*time.Second {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.S3.Bucket != "from-env" || cfg.Quality != "720" {
		t.Errorf("env should beat the file: %+v", cfg)
	}
	if cfg.Workers != 2 {
		t.Errorf("flags should beat everything, got workers=%d", cfg.Workers)
	}
}

func TestLoadClampsWorkers(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(Overrides{Values: map[string]any{"workers": 12}})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != utils.MaxWorkers {
		t.Errorf("expected clamp to %d, got %d", utils.MaxWorkers, cfg.Workers)
	}
}

func TestLoadAutoDiscoversFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "ytpull.yaml"), []byte("quality: 1080\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Quality != "1080" {
		t.Errorf("expected quality from ytpull.yaml, got %q", cfg.Quality)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(Overrides{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Error("an explicit config file that does not exist should fail")
	}
}
