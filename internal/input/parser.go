// Package input turns free-form user text into an ordered, deduplicated set
// of download targets.
package input

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/ytpull/internal/utils"
)

var separatorRegex = regexp.MustCompile(`[,\s]+`)

var channelPrefixes = []string{"/@", "/channel/", "/c/", "/user/"}

var videoPathPrefixes = []string{"/shorts/", "/live/", "/embed/", "/v/"}

var youtubeHosts = []string{"youtube.com", "music.youtube.com", "youtu.be"}

type Rejected struct {
	Token  string
	Reason string
}

type ParseResult struct {
	RunID      string
	Targets    []utils.Target
	Rejected   []Rejected
	Duplicates int
}

// Parse splits raw on commas and whitespace and classifies every token.
// Invalid tokens are collected in Rejected rather than failing the parse.
func Parse(raw string) ParseResult {
	return ParseWithRunID(raw, NewRunID())
}

func NewRunID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func ParseWithRunID(raw, runID string) ParseResult {
	res := ParseResult{RunID: runID}
	seen := make(map[string]bool)
	for _, token := range Split(raw) {
		normalized, kind, hint, err := Classify(token)
		if err != nil {
			log.Debug().Str("op", "input/parse").Msgf("Rejecting %q: %v", token, err)
			res.Rejected = append(res.Rejected, Rejected{Token: token, Reason: err.Error()})
			continue
		}
		key := Identity(normalized, kind)
		if seen[key] {
			res.Duplicates++
			continue
		}
		seen[key] = true
		index := len(res.Targets)
		res.Targets = append(res.Targets, utils.Target{
			ID:        fmt.Sprintf("%s-%d", runID, index+1),
			Index:     index,
			URL:       normalized,
			Kind:      kind,
			VideoHint: hint,
		})
	}
	log.Debug().Str("op", "input/parse").Msgf("Parsed %d targets, rejected %d, collapsed %d duplicates", len(res.Targets), len(res.Rejected), res.Duplicates)
	return res
}

func Split(raw string) []string {
	var tokens []string
	for _, token := range separatorRegex.Split(strings.TrimSpace(raw), -1) {
		token = strings.TrimSpace(token)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Classify normalizes a single token and decides what kind of content it
// points at. A watch URL that also carries a list id is treated as a playlist
// and the video id is returned as a hint.
func Classify(token string) (string, utils.Kind, string, error) {
	raw := strings.TrimSpace(token)
	if !strings.Contains(raw, "://") {
		if !strings.Contains(raw, ".") || !strings.Contains(raw, "/") {
			return "", "", "", fmt.Errorf("%w: not a URL", utils.ErrInvalidInput)
		}
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", "", fmt.Errorf("%w: unsupported scheme %q", utils.ErrInvalidInput, parsed.Scheme)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", "", "", fmt.Errorf("%w: missing host", utils.ErrInvalidInput)
	}
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	if port := parsed.Port(); port != "" {
		host = host + ":" + port
	}
	path := strings.TrimRight(parsed.EscapedPath(), "/")
	query := parsed.Query()
	videoID := query.Get("v")
	listID := query.Get("list")
	base := "https://" + host

	if host == "youtu.be" {
		id := strings.TrimPrefix(path, "/")
		if id == "" || strings.Contains(id, "/") {
			return "", "", "", fmt.Errorf("%w: unrecognized short URL", utils.ErrInvalidInput)
		}
		if listID != "" {
			return "https://youtube.com/watch?" + encode(id, listID), utils.KindPlaylist, id, nil
		}
		return base + "/" + id, utils.KindVideo, "", nil
	}

	switch {
	case path == "/watch":
		if videoID != "" && listID != "" {
			return base + "/watch?" + encode(videoID, listID), utils.KindPlaylist, videoID, nil
		}
		if videoID != "" {
			return base + "/watch?" + encode(videoID, ""), utils.KindVideo, "", nil
		}
		if listID != "" {
			return base + "/playlist?" + encode("", listID), utils.KindPlaylist, "", nil
		}
		return "", "", "", fmt.Errorf("%w: watch URL without video id", utils.ErrInvalidInput)
	case path == "/playlist":
		if listID == "" {
			return "", "", "", fmt.Errorf("%w: playlist URL without list id", utils.ErrInvalidInput)
		}
		return base + "/playlist?" + encode("", listID), utils.KindPlaylist, "", nil
	}
	for _, prefix := range videoPathPrefixes {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return base + path, utils.KindVideo, "", nil
		}
	}
	for _, prefix := range channelPrefixes {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return base + path, utils.KindChannel, "", nil
		}
	}
	return "", "", "", fmt.Errorf("%w: unrecognized URL shape", utils.ErrInvalidInput)
}

// Identity is the dedup key of a normalized URL. Every YouTube form of the
// same video maps to "video:<id>" and anything carrying a list id maps to
// "playlist:<id>", so two spellings never become two jobs writing the same
// files. Other hosts keep the normalized URL itself.
func Identity(normalized string, kind utils.Kind) string {
	parsed, err := url.Parse(normalized)
	if err != nil || !slices.Contains(youtubeHosts, parsed.Host) {
		return normalized
	}
	query := parsed.Query()
	if list := query.Get("list"); list != "" {
		return "playlist:" + list
	}
	path := parsed.EscapedPath()
	switch kind {
	case utils.KindVideo:
		if v := query.Get("v"); v != "" {
			return "video:" + v
		}
		if parsed.Host == "youtu.be" {
			return "video:" + strings.TrimPrefix(path, "/")
		}
		for _, prefix := range videoPathPrefixes {
			if id, ok := strings.CutPrefix(path, prefix); ok {
				return "video:" + strings.SplitN(id, "/", 2)[0]
			}
		}
	case utils.KindChannel:
		// Tabs such as /videos name the same channel; handles are case-insensitive.
		for _, prefix := range channelPrefixes {
			if name, ok := strings.CutPrefix(path, prefix); ok {
				name = strings.SplitN(name, "/", 2)[0]
				if prefix == "/@" {
					name = strings.ToLower(name)
				}
				return "channel:" + prefix + name
			}
		}
	}
	return normalized
}

func encode(videoID, listID string) string {
	q := url.Values{}
	if videoID != "" {
		q.Set("v", videoID)
	}
	if listID != "" {
		q.Set("list", listID)
	}
	return q.Encode()
}

// Summary renders "1 playlist(s) + 2 video(s)" style counts.
func (r ParseResult) Summary() string {
	counts := map[utils.Kind]int{}
	for _, t := range r.Targets {
		counts[t.Kind]++
	}
	var parts []string
	if n := counts[utils.KindPlaylist]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d playlist(s)", n))
	}
	if n := counts[utils.KindChannel]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d channel(s)", n))
	}
	if n := counts[utils.KindVideo]; n > 0 {
		parts = append(parts, fmt.Sprintf("%d video(s)", n))
	}
	return strings.Join(parts, " + ")
}
