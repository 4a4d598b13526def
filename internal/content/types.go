// Package content defines the records that flow through the sorting pipeline:
// the pending SourceRecord, the Label assigned to it, the ProcessedContent a
// processor produces and the Properties written to the destination store.
package content

import "strings"

// ContentType is the closed set of content kinds a record can be classified as.
type ContentType string

const (
	TypeText             ContentType = "text"
	TypeVideo            ContentType = "video"
	TypeImage            ContentType = "image"
	TypeDocument         ContentType = "document"
	TypeWebsite          ContentType = "website"
	TypeManualProcessing ContentType = "manual_processing"
	TypeUnknown          ContentType = "unknown"
)

// AllTypes lists every ContentType in declaration order.
var AllTypes = []ContentType{
	TypeText,
	TypeVideo,
	TypeImage,
	TypeDocument,
	TypeWebsite,
	TypeManualProcessing,
	TypeUnknown,
}

// Platform names where a record came from. The set is open; the constants
// below are the values the classifier produces for links and quoted text.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
	PlatformWeb       Platform = "web"
	PlatformText      Platform = "text"
	PlatformUnknown   Platform = "unknown"
)

// Label is the (type, platform) pair assigned to a record once.
type Label struct {
	Type     ContentType `json:"type"`
	Platform Platform    `json:"platform"`
}

// UnknownLabel is returned when a record carries no usable signal.
var UnknownLabel = Label{Type: TypeUnknown, Platform: PlatformUnknown}

func (l Label) String() string {
	return string(l.Type) + "/" + string(l.Platform)
}

// FileRef points at a file attached to a pending record.
type FileRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// SourceRecord is one pending item read from the inbox.
type SourceRecord struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	Link         string   `json:"link,omitempty"`
	File         *FileRef `json:"file,omitempty"`
	PlatformHint string   `json:"platform_hint,omitempty"`
}

const quoteMarker = `"`

// IsQuoted reports whether the display name is wrapped in literal quotes,
// which marks the record as inline text.
func (r SourceRecord) IsQuoted() bool {
	name := strings.TrimSpace(r.DisplayName)
	return len(name) >= 2 && strings.HasPrefix(name, quoteMarker) && strings.HasSuffix(name, quoteMarker)
}

// QuotedText returns the display name without its surrounding quotes.
func (r SourceRecord) QuotedText() string {
	name := strings.TrimSpace(r.DisplayName)
	if !r.IsQuoted() {
		return name
	}
	return strings.TrimSpace(name[1 : len(name)-1])
}

// HasFile reports whether a file with a usable URL is attached.
func (r SourceRecord) HasFile() bool {
	return r.File != nil && strings.TrimSpace(r.File.URL) != ""
}

// HasLink reports whether the record carries a non-blank link.
func (r SourceRecord) HasLink() bool {
	return strings.TrimSpace(r.Link) != ""
}
