// Package snapshot defines the naming scheme for backup snapshots.
// A snapshot directory is named by concatenating a configurable prefix
// with the creation timestamp, and that name is the only metadata the
// system keeps about a snapshot.
package snapshot

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Layout is the timestamp portion of a snapshot name (month-day-year).
const Layout = "01-02-2006-15:04:05"

// Generate builds the snapshot name for a creation time.
func Generate(prefix string, t time.Time) string {
	return prefix + t.Format(Layout)
}

// Parse recovers the creation time from a snapshot name.
func Parse(prefix, name string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimPrefix(name, prefix))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing snapshot name %q: %w", name, err)
	}
	return t, nil
}

// Pattern returns the anchored pattern a snapshot name must match.
func Pattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `\d{2}-\d{2}-\d{4}-\d{2}:\d{2}:\d{2}$`)
}

// Filter keeps only the entries that are snapshot names for prefix.
// Anything else living in the destination directory is ignored.
func Filter(prefix string, entries []string) []string {
	re := Pattern(prefix)
	var names []string
	for _, e := range entries {
		if re.MatchString(e) {
			names = append(names, e)
		}
	}
	return names
}

// SortChronological orders names in place, oldest first, by their parsed
// timestamps. Lexical order would put 12-31-2019 after 01-01-2020.
func SortChronological(prefix string, names []string) {
	sort.Slice(names, func(i, j int) bool {
		ti, _ := Parse(prefix, names[i])
		tj, _ := Parse(prefix, names[j])
		return ti.Before(tj)
	})
}

// MostRecent returns the newest name in the list, or false when the list
// is empty. The input is not modified.
func MostRecent(prefix string, names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	sorted := append([]string(nil), names...)
	SortChronological(prefix, sorted)
	return sorted[len(sorted)-1], true
}
