package hashapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/s0up4200/hashsharing/xmlnode"
)

// TimestampLayout is the date format used in query parameters and response
// attributes. Values are always UTC with whole seconds.
const TimestampLayout = "2006-01-02T15:04:05Z"

const deletedPrefix = "deleted"

// FormatTimestamp renders unix seconds in the wire format
func FormatTimestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a wire timestamp into unix seconds
func ParseTimestamp(s string) (int64, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// DecodeStatus reads the status response
func DecodeStatus(root *xmlnode.Node) (*StatusResult, error) {
	member, err := root.Child("member")
	if err != nil {
		return nil, err
	}
	id, err := member.AttrInt("id")
	if err != nil {
		return nil, err
	}
	name, err := member.Text()
	if err != nil {
		return nil, err
	}
	return &StatusResult{ESPID: id, ESPName: name}, nil
}

// ParseEntryTag splits an entry element name into its entry type and deletion
// flag. "deletedImage" is a deleted image, "video" a live video. Matching is
// case-insensitive.
func ParseEntryTag(tag string) (EntryType, bool, error) {
	name := strings.ToLower(tag)
	deleted := strings.HasPrefix(name, deletedPrefix)
	if deleted {
		name = strings.TrimPrefix(name, deletedPrefix)
	}
	entryType, err := ParseEntryType(name)
	if err != nil {
		return "", false, err
	}
	return entryType, deleted, nil
}

// DecodeEntryUpdate converts one child of an images or videos container
func DecodeEntryUpdate(n *xmlnode.Node) (EntryUpdate, error) {
	entryType, deleted, err := ParseEntryTag(n.Tag())
	if err != nil {
		return EntryUpdate{}, xmlnode.Malformed(n, "unrecognised entry element", err)
	}

	idNode, err := n.Child("id")
	if err != nil {
		return EntryUpdate{}, err
	}
	id, err := idNode.Text()
	if err != nil {
		return EntryUpdate{}, err
	}

	member, err := n.Child("member")
	if err != nil {
		return EntryUpdate{}, err
	}
	memberID, err := member.AttrInt("id")
	if err != nil {
		return EntryUpdate{}, err
	}

	update := EntryUpdate{
		ID:           id,
		MemberID:     memberID,
		EntryType:    entryType,
		Deleted:      deleted,
		Fingerprints: make(map[string]string),
	}

	if classification, ok := n.Maybe("classification").OptionalText(); ok {
		update.Classification = &classification
	}

	for fp := range n.Maybe("fingerprints").All() {
		value, _ := fp.OptionalText()
		update.Fingerprints[fp.Tag()] = value
	}

	return update, nil
}

// DecodeEntriesPage converts an entries response. fallbackMaxTimestamp is used
// when neither container holds any entries.
func DecodeEntriesPage(root *xmlnode.Node, fallbackMaxTimestamp int64) (*EntriesPage, error) {
	page := &EntriesPage{Updates: []EntryUpdate{}}
	var maxTS int64

	for _, name := range []string{"images", "videos"} {
		container := root.Maybe(name)
		// An empty container does not contribute its maxTimestamp
		if !container.Exists() || container.Len() == 0 {
			continue
		}

		raw, err := container.Attr("maxTimestamp")
		if err != nil {
			return nil, err
		}
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return nil, xmlnode.Malformed(container, "invalid maxTimestamp", err)
		}
		maxTS = max(maxTS, ts)

		for child := range container.All() {
			update, err := DecodeEntryUpdate(child)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s entry: %w", name, err)
			}
			page.Updates = append(page.Updates, update)
		}
	}

	if maxTS == 0 {
		maxTS = fallbackMaxTimestamp
	}
	page.MaxTimestamp = maxTS
	page.Next, _ = root.Maybe("paging", "next").OptionalText()

	return page, nil
}
