package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests,
// so we walk up until we find it. Falls back to the working directory.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

// DateOnly truncates `t` to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateInRange reports whether the calendar date of `t` is within [start, end] (inclusive).
func DateInRange(t, start, end time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(start)) && !d.After(DateOnly(end))
}

// Page is an offset pagination request.
type Page struct {
	Index int `query:"index" json:"index" validate:"min=0"`
	Count int `query:"count" json:"count" validate:"min=0,max=100"`
}

// Limit returns the number of items to fetch (defaults to 20).
func (p Page) Limit() int {
	if p.Count <= 0 {
		return 20
	}
	return p.Count
}

// Slice applies the pagination to a slice length, returning the [lo:hi] bounds.
func (p Page) Slice(n int) (lo, hi int) {
	lo = p.Index
	if lo > n {
		lo = n
	}
	hi = lo + p.Limit()
	if hi > n {
		hi = n
	}
	return lo, hi
}
