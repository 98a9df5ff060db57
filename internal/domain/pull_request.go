// Package domain contains the core data structures and domain logic for the application.
// Nothing in this package performs I/O: the weekly digest is a pure function
// of the fetched pull requests, the star count and the reference instant.
package domain

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// ErrMalformedRecord marks a pull request record that cannot be evaluated,
// e.g. an unparseable merged_at or a label without a name.
var ErrMalformedRecord = errors.New("malformed pull request record")

// PullRequestRecord is a pull request as returned by the hosting API.
// Fields are pointers so that an absent value can be told apart from an empty one.
type PullRequestRecord struct {
	Number   int     `json:"number"`
	Title    *string `json:"title"`
	HTMLURL  *string `json:"html_url"`
	MergedAt *string `json:"merged_at"`
	Labels   []Label `json:"labels"`

	// DecodeErr is set when the raw record did not have the expected shape.
	// Select rejects such records without looking at any other field.
	DecodeErr error `json:"-"`
}

// DecodeRecord decodes one raw pull request. A record whose fields have the
// wrong JSON types is returned with DecodeErr set, keeping whatever number and
// URL could be read so the rejection can be reported.
func DecodeRecord(raw json.RawMessage) PullRequestRecord {
	var r PullRequestRecord
	err := json.Unmarshal(raw, &r)
	if err == nil {
		return r
	}

	// Identification only; a type error here leaves the field at its zero value.
	var id struct {
		Number  int     `json:"number"`
		HTMLURL *string `json:"html_url"`
	}
	_ = json.Unmarshal(raw, &id)
	return PullRequestRecord{
		Number:    id.Number,
		HTMLURL:   id.HTMLURL,
		DecodeErr: errors.Wrapf(ErrMalformedRecord, "undecodable record: %v", err),
	}
}

// Label is a single label attached to a pull request.
type Label struct {
	Name *string `json:"name"`
}

// GetTitle returns the Title field if it's non-nil, zero value otherwise.
func (r PullRequestRecord) GetTitle() string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}

// GetHTMLURL returns the HTMLURL field if it's non-nil, zero value otherwise.
func (r PullRequestRecord) GetHTMLURL() string {
	if r.HTMLURL == nil {
		return ""
	}
	return *r.HTMLURL
}

// DigestItem is a pull request selected for the digest.
type DigestItem struct {
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	MergedAt time.Time `json:"merged_at"`
}

// RejectedRecord is a record excluded from the digest because it was malformed.
type RejectedRecord struct {
	Number int    `json:"number"`
	URL    string `json:"url,omitempty"`
	Err    error  `json:"-"`
	Reason string `json:"reason"`
}

func reject(r PullRequestRecord, err error) RejectedRecord {
	return RejectedRecord{
		Number: r.Number,
		URL:    r.GetHTMLURL(),
		Err:    err,
		Reason: err.Error(),
	}
}
