package domain

import (
	"time"

	"github.com/pkg/errors"
)

// ChangelogLabel is the label maintainers put on user-facing pull requests.
const ChangelogLabel = "changelog"

// Selection is the outcome of filtering one batch of records.
type Selection struct {
	Items    []DigestItem     `json:"items"`
	Rejected []RejectedRecord `json:"rejected"`
}

// HasLabel reports whether one of the record's labels is named exactly name.
// Every label is inspected so that a nameless entry is reported even when
// another label matches.
func HasLabel(r PullRequestRecord, name string) (bool, error) {
	found := false
	for i, label := range r.Labels {
		if label.Name == nil {
			return false, errors.Wrapf(ErrMalformedRecord, "label %d has no name", i)
		}
		if *label.Name == name {
			found = true
		}
	}
	return found, nil
}

// Select picks the records merged within the week before now that carry the
// changelog label. Input order is preserved and records are never modified.
// Malformed records are reported in Rejected instead of failing the batch.
func Select(records []PullRequestRecord, now time.Time) Selection {
	window := NewDigestWindow(now)
	sel := Selection{
		Items:    make([]DigestItem, 0, len(records)),
		Rejected: make([]RejectedRecord, 0),
	}

	for _, r := range records {
		if r.DecodeErr != nil {
			sel.Rejected = append(sel.Rejected, reject(r, r.DecodeErr))
			continue
		}

		mergedAt, ok, err := MergedWithin(r, window)
		if err != nil {
			sel.Rejected = append(sel.Rejected, reject(r, err))
			continue
		}
		if !ok {
			continue
		}

		ok, err = HasLabel(r, ChangelogLabel)
		if err != nil {
			sel.Rejected = append(sel.Rejected, reject(r, err))
			continue
		}
		if !ok {
			continue
		}

		if r.Title == nil || r.HTMLURL == nil {
			sel.Rejected = append(sel.Rejected, reject(r, errors.Wrap(ErrMalformedRecord, "title or html_url is missing")))
			continue
		}
		sel.Items = append(sel.Items, DigestItem{
			Title:    *r.Title,
			URL:      *r.HTMLURL,
			MergedAt: mergedAt,
		})
	}
	return sel
}
