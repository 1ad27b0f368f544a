package validate

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reUID   = regexp.MustCompile(`^[A-Za-z0-9_:.-]{1,128}$`)
	reFile  = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// UID validates an identity-provider subject id.
func UID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUID.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 80 {
		return "", false
	}
	return s, true
}

// Int parses a positive query integer, falling back to def and clamping to max.
func Int(s string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// Date accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func Date(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// FileName reduces an uploaded file name to a safe base name.
func FileName(s string) (string, bool) {
	s = filepath.Base(strings.ReplaceAll(s, `\`, "/"))
	s = reFile.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "", false
	}
	if len(s) > 100 {
		s = s[len(s)-100:]
	}
	return s, true
}
