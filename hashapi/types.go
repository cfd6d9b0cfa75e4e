package hashapi

import "fmt"

// StatusResult identifies the authenticated member
type StatusResult struct {
	ESPID   int64  `json:"espId" yaml:"espId"`
	ESPName string `json:"espName" yaml:"espName"`
}

// EntryType is the kind of media a fingerprint record describes
type EntryType string

const (
	// EntryTypeImage marks an image entry
	EntryTypeImage EntryType = "image"
	// EntryTypeVideo marks a video entry
	EntryTypeVideo EntryType = "video"
)

// ParseEntryType converts a wire value into an EntryType. The set is closed.
func ParseEntryType(s string) (EntryType, error) {
	switch EntryType(s) {
	case EntryTypeImage, EntryTypeVideo:
		return EntryType(s), nil
	default:
		return "", fmt.Errorf("unknown entry type %q", s)
	}
}

// String returns the wire value
func (t EntryType) String() string {
	return string(t)
}

// EntryUpdate is one fingerprint record as reported by the service. Deleted
// records were removed from the remote database.
type EntryUpdate struct {
	ID             string            `json:"id" yaml:"id"`
	MemberID       int64             `json:"memberId" yaml:"memberId"`
	EntryType      EntryType         `json:"entryType" yaml:"entryType"`
	Deleted        bool              `json:"deleted" yaml:"deleted"`
	Classification *string           `json:"classification,omitempty" yaml:"classification,omitempty"`
	Fingerprints   map[string]string `json:"fingerprints" yaml:"fingerprints"`
}

// ClassificationOrEmpty returns the classification, or "" when unset
func (u EntryUpdate) ClassificationOrEmpty() string {
	if u.Classification == nil {
		return ""
	}
	return *u.Classification
}

// EntriesPage is one batch of updates returned by the entries endpoint
type EntriesPage struct {
	Updates      []EntryUpdate `json:"updates" yaml:"updates"`
	MaxTimestamp int64         `json:"maxTimestamp" yaml:"maxTimestamp"`
	Next         string        `json:"next,omitempty" yaml:"next,omitempty"`
}

// HasMore reports whether the server issued a cursor for another page
func (p *EntriesPage) HasMore() bool {
	return p.Next != ""
}
