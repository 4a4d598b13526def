// Package normalize maps ProcessedContent onto the destination's fixed
// property schema.
package normalize

import (
	"strings"

	"github.com/aktagon/inbox-sorter/internal/content"
)

// Destination property names.
const (
	FieldType        = "Type of Information"
	FieldTitle       = "Title"
	FieldFileFormat  = "File Extension / Format"
	FieldContent     = "Summary/Key Points/Description/Transcript"
	FieldAuthor      = "Channel/Account/Author"
	FieldLikeCount   = "Like Count"
	FieldSize        = "View Count/Size Kb"
	FieldWebsiteName = "Website name"
	FieldPublished   = "Published Date"
	FieldDimensions  = "Dimensions"
	FieldTags        = "Resource Tags"
	// FieldError is the default name of the rich-text property that carries
	// a processor failure. The destination must define it unless disabled.
	FieldError = "Processing Error"
)

// UntitledPlaceholder is written when a processor produced no title.
const UntitledPlaceholder = "Untitled"

const bullet = "\n• "

// TagTable resolves relation ids for a label. Entries are optional.
type TagTable struct {
	Types     map[content.ContentType][]string
	Platforms map[content.Platform]string
}

// Resolve returns the type's tag ids followed by the platform's tag id.
// The table itself is never modified.
func (t TagTable) Resolve(label content.Label) []string {
	base := t.Types[label.Type]
	tags := make([]string, 0, len(base)+1)
	tags = append(tags, base...)
	if id, ok := t.Platforms[label.Platform]; ok && id != "" {
		tags = append(tags, id)
	}
	return tags
}

// contentValue is the per-type summary field, either a scalar or a list.
type contentValue struct {
	text string
	list []string
}

// contentFields selects the summary field for each content type.
var contentFields = map[content.ContentType]func(content.ProcessedContent) contentValue{
	content.TypeText:     func(p content.ProcessedContent) contentValue { return contentValue{list: p.GeneratedQuestions} },
	content.TypeVideo:    func(p content.ProcessedContent) contentValue { return contentValue{text: p.Transcript} },
	content.TypeWebsite:  func(p content.ProcessedContent) contentValue { return contentValue{text: p.Content} },
	content.TypeImage:    func(p content.ProcessedContent) contentValue { return contentValue{text: p.Description} },
	content.TypeDocument: func(p content.ProcessedContent) contentValue { return contentValue{text: p.Summary} },
}

// Normalizer builds destination properties. It holds no mutable state, so
// the same input always yields equal output.
type Normalizer struct {
	tags       TagTable
	errorField string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithErrorField renames the processing-error property. An empty name
// disables it, for destinations without such a column.
func WithErrorField(name string) Option {
	return func(n *Normalizer) { n.errorField = name }
}

func New(tags TagTable, opts ...Option) *Normalizer {
	n := &Normalizer{tags: tags, errorField: FieldError}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize maps label and processed content to properties. Only the type and
// title are unconditional; every other field is emitted when its source is present.
func (n *Normalizer) Normalize(label content.Label, pc content.ProcessedContent) content.Properties {
	props := content.Properties{
		FieldType:  content.SelectProperty(string(label.Type)),
		FieldTitle: content.TitleProperty(titleOf(pc)),
	}

	if label.Type == content.TypeDocument && pc.Metadata != nil && pc.Metadata.FileType != "" {
		props[FieldFileFormat] = content.RichTextProperty(pc.Metadata.FileType)
	}

	if sel, ok := contentFields[label.Type]; ok {
		if text, ok := render(sel(pc)); ok {
			props[FieldContent] = content.RichTextProperty(text)
		}
	}

	if author := firstNonEmpty(pc.Channel, pc.Author); author != "" {
		props[FieldAuthor] = content.RichTextProperty(author)
	}

	if pc.LikeCount != nil {
		props[FieldLikeCount] = content.NumberProperty(*pc.LikeCount)
	}
	if size := sizeOf(pc); size != nil {
		props[FieldSize] = content.NumberProperty(*size)
	}

	if pc.WebsiteName != "" {
		props[FieldWebsiteName] = content.RichTextProperty(pc.WebsiteName)
	}
	if pc.PublishedDate != "" {
		props[FieldPublished] = content.DateProperty(pc.PublishedDate)
	}
	if pc.Dimensions != "" {
		props[FieldDimensions] = content.RichTextProperty(pc.Dimensions)
	}

	if tags := n.tags.Resolve(label); len(tags) > 0 {
		props[FieldTags] = content.RelationProperty(tags)
	}

	if pc.Error != "" && n.errorField != "" {
		props[n.errorField] = content.RichTextProperty(pc.Error)
	}
	return props
}

func titleOf(pc content.ProcessedContent) string {
	if strings.TrimSpace(pc.Title) == "" {
		return UntitledPlaceholder
	}
	return pc.Title
}

// render turns a list into a bullet-joined string, each element on its own
// line, and passes scalars through. Empty values report false.
func render(v contentValue) (string, bool) {
	if len(v.list) > 0 {
		return bullet + strings.Join(v.list, bullet), true
	}
	if v.text != "" {
		return v.text, true
	}
	return "", false
}

// sizeOf picks the first present of view count, size in KB and word count.
func sizeOf(pc content.ProcessedContent) *int64 {
	switch {
	case pc.ViewCount != nil:
		return pc.ViewCount
	case pc.SizeKB != nil:
		return pc.SizeKB
	case pc.Metadata != nil && pc.Metadata.WordCount != nil:
		return pc.Metadata.WordCount
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
