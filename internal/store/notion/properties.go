package notion

import (
	"strings"

	"github.com/aktagon/inbox-sorter/internal/content"
)

// Notion limits a rich text segment to 2000 characters and a property to
// 100 segments.
const (
	maxSegmentChars = 2000
	maxSegments     = 100
)

type queryResponse struct {
	Results []page `json:"results"`
}

type page struct {
	ID         string                  `json:"id"`
	Properties map[string]pageProperty `json:"properties"`
}

type pageProperty struct {
	Type     string       `json:"type"`
	Title    []richText   `json:"title,omitempty"`
	RichText []richText   `json:"rich_text,omitempty"`
	URL      *string      `json:"url,omitempty"`
	Select   *selectValue `json:"select,omitempty"`
	Files    []fileObject `json:"files,omitempty"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type selectValue struct {
	Name string `json:"name"`
}

type fileURL struct {
	URL string `json:"url"`
}

type fileObject struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	File     *fileURL `json:"file,omitempty"`
	External *fileURL `json:"external,omitempty"`
}

func (f fileObject) url() string {
	switch {
	case f.File != nil && f.File.URL != "":
		return f.File.URL
	case f.External != nil:
		return f.External.URL
	}
	return ""
}

func plain(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

// record maps a pending page onto a SourceRecord.
func (p page) record() content.SourceRecord {
	rec := content.SourceRecord{ID: p.ID}
	if name, ok := p.Properties[PropName]; ok {
		rec.DisplayName = plain(name.Title)
	}
	if link, ok := p.Properties[PropLink]; ok && link.URL != nil {
		rec.Link = *link.URL
	}
	if files, ok := p.Properties[PropFile]; ok && len(files.Files) > 0 {
		f := files.Files[0]
		if u := f.url(); u != "" {
			rec.File = &content.FileRef{URL: u, Name: f.Name}
		}
	}
	if platform, ok := p.Properties[PropPlatform]; ok && platform.Select != nil {
		rec.PlatformHint = platform.Select.Name
	}
	return rec
}

type textContent struct {
	Content string `json:"content"`
}

type textSegment struct {
	Text textContent `json:"text"`
}

// EncodeProperties renders properties in the Notion page-update format.
func EncodeProperties(props content.Properties) map[string]any {
	out := make(map[string]any, len(props))
	for _, name := range props.Names() {
		p := props[name]
		switch p.Kind {
		case content.KindTitle:
			out[name] = map[string]any{"title": segments(p.Text)}
		case content.KindRichText:
			out[name] = map[string]any{"rich_text": segments(p.Text)}
		case content.KindSelect:
			out[name] = map[string]any{"select": map[string]string{"name": p.Text}}
		case content.KindNumber:
			out[name] = map[string]any{"number": p.Number}
		case content.KindDate:
			out[name] = map[string]any{"date": map[string]string{"start": p.Text}}
		case content.KindRelation:
			ids := make([]map[string]string, 0, len(p.IDs))
			for _, id := range p.IDs {
				ids = append(ids, map[string]string{"id": id})
			}
			out[name] = map[string]any{"relation": ids}
		}
	}
	return out
}

// segments splits text into chunks of at most maxSegmentChars runes,
// dropping anything past maxSegments chunks.
func segments(text string) []textSegment {
	runes := []rune(text)
	out := []textSegment{}
	for len(runes) > 0 && len(out) < maxSegments {
		n := min(len(runes), maxSegmentChars)
		out = append(out, textSegment{Text: textContent{Content: string(runes[:n])}})
		runes = runes[n:]
	}
	return out
}
