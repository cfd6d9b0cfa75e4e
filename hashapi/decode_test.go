package hashapi

import (
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/hashsharing/xmlnode"
)

// encodeEntryUpdate builds the wire form of an update
func encodeEntryUpdate(u EntryUpdate) *etree.Element {
	tag := string(u.EntryType)
	if u.Deleted {
		tag = "deleted" + strings.ToUpper(tag[:1]) + tag[1:]
	}
	el := etree.NewElement(tag)
	el.CreateElement("id").SetText(u.ID)
	el.CreateElement("member").CreateAttr("id", strconv.FormatInt(u.MemberID, 10))
	if u.Classification != nil {
		el.CreateElement("classification").SetText(*u.Classification)
	}
	if len(u.Fingerprints) > 0 {
		fps := el.CreateElement("fingerprints")
		algs := make([]string, 0, len(u.Fingerprints))
		for alg := range u.Fingerprints {
			algs = append(algs, alg)
		}
		slices.Sort(algs)
		for _, alg := range algs {
			fps.CreateElement(alg).SetText(u.Fingerprints[alg])
		}
	}
	return el
}

func parseXML(t *testing.T, s string) *xmlnode.Node {
	t.Helper()
	root, err := parseDocument([]byte(s))
	require.NoError(t, err)
	return root
}

func strPtr(s string) *string {
	return &s
}

func TestParseEntryTag(t *testing.T) {
	tests := []struct {
		tag         string
		wantType    EntryType
		wantDeleted bool
		wantErr     bool
	}{
		{tag: "image", wantType: EntryTypeImage},
		{tag: "video", wantType: EntryTypeVideo},
		{tag: "Image", wantType: EntryTypeImage},
		{tag: "deletedImage", wantType: EntryTypeImage, wantDeleted: true},
		{tag: "deletedVideo", wantType: EntryTypeVideo, wantDeleted: true},
		{tag: "deletedVIDEO", wantType: EntryTypeVideo, wantDeleted: true},
		{tag: "DELETEDimage", wantType: EntryTypeImage, wantDeleted: true},
		{tag: "audio", wantErr: true},
		{tag: "deleted", wantErr: true},
		{tag: "deletedAudio", wantErr: true},
		{tag: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			entryType, deleted, err := ParseEntryTag(tt.tag)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, entryType)
			assert.Equal(t, tt.wantDeleted, deleted)
		})
	}
}

func TestDecodeStatus(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		root := parseXML(t, `<status><member id="7">Example Platform</member></status>`)
		status, err := DecodeStatus(root)
		require.NoError(t, err)
		assert.Equal(t, &StatusResult{ESPID: 7, ESPName: "Example Platform"}, status)
	})

	for name, doc := range map[string]string{
		"missing member": `<status/>`,
		"missing id":     `<status><member>Example</member></status>`,
		"missing name":   `<status><member id="7"/></status>`,
		"non numeric id": `<status><member id="x">Example</member></status>`,
		"two members":    `<status><member id="1">A</member><member id="2">B</member></status>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeStatus(parseXML(t, doc))
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestDecodeEntryUpdateRoundTrip(t *testing.T) {
	updates := []EntryUpdate{
		{
			ID:             "image1",
			MemberID:       42,
			EntryType:      EntryTypeImage,
			Classification: strPtr("A1"),
			Fingerprints:   map[string]string{"MD5": "a0b1c2", "PDNA": "1,2,3", "PDQ": "facade"},
		},
		{
			ID:           "video1",
			MemberID:     1,
			EntryType:    EntryTypeVideo,
			Deleted:      true,
			Fingerprints: map[string]string{},
		},
		{
			ID:           "image2",
			MemberID:     9000,
			EntryType:    EntryTypeImage,
			Deleted:      true,
			Fingerprints: map[string]string{"SHA1": ""},
		},
		{
			ID:             "video2",
			MemberID:       3,
			EntryType:      EntryTypeVideo,
			Classification: strPtr("B2"),
			Fingerprints:   map[string]string{"TMK": "abcdef"},
		},
	}

	for _, want := range updates {
		t.Run(want.ID, func(t *testing.T) {
			got, err := DecodeEntryUpdate(xmlnode.Wrap(encodeEntryUpdate(want)))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeEntryUpdateErrors(t *testing.T) {
	tests := map[string]string{
		"unknown type":   `<audio><id>a</id><member id="1"/></audio>`,
		"missing id":     `<image><member id="1"/></image>`,
		"empty id":       `<image><id></id><member id="1"/></image>`,
		"missing member": `<image><id>a</id></image>`,
		"bad member id":  `<image><id>a</id><member id="one"/></image>`,
		"duplicate id":   `<image><id>a</id><id>b</id><member id="1"/></image>`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEntryUpdate(parseXML(t, doc))
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestDecodeEntryUpdateOptionalFields(t *testing.T) {
	update, err := DecodeEntryUpdate(parseXML(t, `<video><id>v</id><member id="5"/><classification></classification></video>`))
	require.NoError(t, err)
	assert.Nil(t, update.Classification)
	assert.NotNil(t, update.Fingerprints)
	assert.Empty(t, update.Fingerprints)
	assert.Equal(t, "", update.ClassificationOrEmpty())
}

func TestDecodeEntriesPage(t *testing.T) {
	const fallback = int64(1700000000)

	t.Run("videos only uses its maxTimestamp", func(t *testing.T) {
		root := parseXML(t, `<queryResult>
			<videos maxTimestamp="2021-01-01T00:00:00Z">
				<video><id>v1</id><member id="1"/></video>
			</videos>
		</queryResult>`)
		page, err := DecodeEntriesPage(root, fallback)
		require.NoError(t, err)
		assert.Equal(t, int64(1609459200), page.MaxTimestamp)
		require.Len(t, page.Updates, 1)
		assert.Equal(t, EntryTypeVideo, page.Updates[0].EntryType)
		assert.Equal(t, "", page.Next)
		assert.False(t, page.HasMore())
	})

	t.Run("no containers falls back", func(t *testing.T) {
		page, err := DecodeEntriesPage(parseXML(t, `<queryResult/>`), fallback)
		require.NoError(t, err)
		assert.Equal(t, fallback, page.MaxTimestamp)
		assert.Empty(t, page.Updates)
	})

	t.Run("empty containers are treated as absent", func(t *testing.T) {
		root := parseXML(t, `<queryResult>
			<images maxTimestamp="2030-01-01T00:00:00Z"/>
			<videos maxTimestamp="2030-01-01T00:00:00Z"></videos>
		</queryResult>`)
		page, err := DecodeEntriesPage(root, fallback)
		require.NoError(t, err)
		assert.Equal(t, fallback, page.MaxTimestamp)
		assert.Empty(t, page.Updates)
	})

	t.Run("empty container does not raise the maximum", func(t *testing.T) {
		root := parseXML(t, `<queryResult>
			<images maxTimestamp="2030-01-01T00:00:00Z"/>
			<videos maxTimestamp="2021-01-01T00:00:00Z">
				<deletedVideo><id>v1</id><member id="1"/></deletedVideo>
			</videos>
		</queryResult>`)
		page, err := DecodeEntriesPage(root, fallback)
		require.NoError(t, err)
		assert.Equal(t, int64(1609459200), page.MaxTimestamp)
	})

	t.Run("images before videos and maximum of both", func(t *testing.T) {
		root := parseXML(t, `<queryResult>
			<videos maxTimestamp="2021-06-01T12:00:00Z">
				<video><id>v1</id><member id="1"/></video>
				<deletedVideo><id>v2</id><member id="1"/></deletedVideo>
			</videos>
			<images maxTimestamp="2021-01-01T00:00:00Z">
				<image><id>i1</id><member id="2"/></image>
				<deletedImage><id>i2</id><member id="2"/></deletedImage>
			</images>
			<paging><next>/v2/entries?from=x&amp;next=abc</next></paging>
		</queryResult>`)
		page, err := DecodeEntriesPage(root, fallback)
		require.NoError(t, err)

		var ids []string
		for _, u := range page.Updates {
			ids = append(ids, u.ID)
		}
		assert.Equal(t, []string{"i1", "i2", "v1", "v2"}, ids)
		assert.Equal(t, int64(1622548800), page.MaxTimestamp)
		assert.Equal(t, "/v2/entries?from=x&next=abc", page.Next)
		assert.True(t, page.HasMore())
		assert.True(t, page.Updates[1].Deleted)
		assert.False(t, page.Updates[2].Deleted)
	})

	t.Run("round trip through encoded page", func(t *testing.T) {
		want := []EntryUpdate{
			{ID: "a", MemberID: 1, EntryType: EntryTypeImage, Fingerprints: map[string]string{"PDQ": "00ff"}},
			{ID: "b", MemberID: 2, EntryType: EntryTypeImage, Deleted: true, Classification: strPtr("A2"), Fingerprints: map[string]string{}},
		}
		doc := etree.NewDocument()
		images := doc.CreateElement("queryResult").CreateElement("images")
		images.CreateAttr("maxTimestamp", "2022-02-02T02:02:02Z")
		for _, u := range want {
			images.AddChild(encodeEntryUpdate(u))
		}
		body, err := doc.WriteToBytes()
		require.NoError(t, err)

		page, err := DecodeEntriesPage(parseXML(t, string(body)), fallback)
		require.NoError(t, err)
		assert.Equal(t, want, page.Updates)
		assert.Equal(t, int64(1643767322), page.MaxTimestamp)
	})

	for name, doc := range map[string]string{
		"missing maxTimestamp": `<r><images><image><id>a</id><member id="1"/></image></images></r>`,
		"bad maxTimestamp":     `<r><images maxTimestamp="yesterday"><image><id>a</id><member id="1"/></image></images></r>`,
		"bad entry":            `<r><videos maxTimestamp="2021-01-01T00:00:00Z"><audio><id>a</id><member id="1"/></audio></videos></r>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEntriesPage(parseXML(t, doc), fallback)
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestTimestamps(t *testing.T) {
	assert.Equal(t, "1970-01-01T00:00:00Z", FormatTimestamp(0))
	assert.Equal(t, "2021-01-01T00:00:00Z", FormatTimestamp(1609459200))

	ts, err := ParseTimestamp("2021-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1609459200), ts)

	_, err = ParseTimestamp("2021-01-01")
	require.Error(t, err)
}
