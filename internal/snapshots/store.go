// Package snapshots persists intruder frames.
package snapshots

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	namePrefix = "intruder_"
	nameSuffix = ".jpg"
	nameLayout = "20060102_150405"
)

// Store saves snapshots under timestamp-derived names that sort
// chronologically.
type Store interface {
	Save(ctx context.Context, at time.Time, jpeg []byte) (string, error)
	// List returns snapshot names, newest first.
	List(ctx context.Context) ([]string, error)
}

// Name returns the snapshot name for a capture time.
func Name(at time.Time) string {
	return namePrefix + at.Format(nameLayout) + nameSuffix
}

// ParseName recovers the capture time from a snapshot name.
func ParseName(name string) (time.Time, error) {
	s, ok := strings.CutPrefix(name, namePrefix)
	if !ok {
		return time.Time{}, fmt.Errorf("not a snapshot name: %q", name)
	}
	s, ok = strings.CutSuffix(s, nameSuffix)
	if !ok {
		return time.Time{}, fmt.Errorf("not a snapshot name: %q", name)
	}
	return time.Parse(nameLayout, s)
}

func isSnapshot(name string) bool {
	_, err := ParseName(name)
	return err == nil
}

func newestFirst(names []string) []string {
	slices.Sort(names)
	slices.Reverse(names)
	return names
}
