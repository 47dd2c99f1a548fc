package cleanup

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/utils"
)

var (
	fragmentPattern = regexp.MustCompile(`\.part-Frag\d+(\.part)?$`)
	tempPattern     = regexp.MustCompile(`\.temp\.[0-9A-Za-z]+$`)
)

type Report struct {
	Removed []string
	Failed  map[string]error
	Bytes   int64
}

// IsMarker reports whether a file name is left over from an interrupted
// download and safe to delete.
func IsMarker(name string) bool {
	switch {
	case strings.HasSuffix(name, ".part"),
		fragmentPattern.MatchString(name),
		strings.HasSuffix(name, ".ytdl"),
		tempPattern.MatchString(name),
		strings.HasPrefix(name, utils.ScratchPrefix) && !strings.HasPrefix(name, utils.ScratchPrefix+"bin"):
		return true
	}
	return false
}

// Clean walks root and removes marker files. With dryRun it only reports
// what would go. A missing root is not an error.
func Clean(root string, dryRun bool) (Report, error) {
	report := Report{Failed: make(map[string]error)}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		log.Debug().Str("op", "cleanup/clean").Msgf("Nothing to clean, %s does not exist", root)
		return report, nil
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			report.Failed[path] = walkErr
			return nil
		}
		if d.IsDir() || !IsMarker(d.Name()) {
			return nil
		}
		if info, err := d.Info(); err == nil {
			report.Bytes += info.Size()
		}
		if !dryRun {
			if err := os.Remove(path); err != nil {
				report.Failed[path] = err
				return nil
			}
		}
		log.Debug().Str("op", "cleanup/clean").Msgf("Removed %s (dry run: %v)", path, dryRun)
		report.Removed = append(report.Removed, path)
		return nil
	})
	return report, err
}
