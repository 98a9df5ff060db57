package domain

import (
	"time"

	"github.com/pkg/errors"
)

// DigestPeriod is the length of the look-back window of one digest.
const DigestPeriod = 7 * 24 * time.Hour

// DigestWindow is the interval (Start, End] a merge must fall into.
type DigestWindow struct {
	Start time.Time
	End   time.Time
}

// NewDigestWindow anchors a window on now.
func NewDigestWindow(now time.Time) DigestWindow {
	return DigestWindow{Start: now.Add(-DigestPeriod), End: now}
}

// Contains reports whether t is strictly after the start of the window.
// Merges stamped after End (clock skew on the API side) still count.
func (w DigestWindow) Contains(t time.Time) bool {
	return t.After(w.Start)
}

// MergedWithin reports whether the record was merged inside w, and returns the
// parsed merge time. A record that was never merged is not an error.
func MergedWithin(r PullRequestRecord, w DigestWindow) (time.Time, bool, error) {
	if r.MergedAt == nil {
		return time.Time{}, false, nil
	}
	mergedAt, err := time.Parse(time.RFC3339, *r.MergedAt)
	if err != nil {
		return time.Time{}, false, errors.Wrapf(ErrMalformedRecord, "merged_at %q is not an RFC 3339 timestamp", *r.MergedAt)
	}
	return mergedAt, w.Contains(mergedAt), nil
}
