// Package classify assigns a content.Label to a pending record from its
// display name, attached file and link. Classification is a pure function of
// the record: it never touches the network and never fails.
package classify

import (
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/aktagon/inbox-sorter/internal/content"
)

// Result is a label together with the name of the cascade step that produced it.
type Result struct {
	Label content.Label
	Rule  string
}

// Classifier runs the record cascade:
//
//  1. quoted display name      -> text/text (even when a link is present)
//  2. neither link nor file    -> unknown/unknown
//  3. attached file            -> image or document, platform from the extension
//  4. link                     -> first matching link rule, else website/web
type Classifier struct {
	linkRules []LinkRule
}

// New creates a classifier using the given link rules, or DefaultLinkRules
// when none are supplied.
func New(rules ...LinkRule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultLinkRules
	}
	return &Classifier{linkRules: rules}
}

// Classify returns the label for a record.
func (c *Classifier) Classify(rec content.SourceRecord) content.Label {
	return c.Explain(rec).Label
}

// Explain classifies the record and reports which step decided.
func (c *Classifier) Explain(rec content.SourceRecord) Result {
	switch {
	case rec.IsQuoted():
		return Result{Label: content.Label{Type: content.TypeText, Platform: content.PlatformText}, Rule: "quoted_text"}
	case !rec.HasLink() && !rec.HasFile():
		return Result{Label: content.UnknownLabel, Rule: "no_signal"}
	case rec.HasFile():
		return Result{Label: classifyFile(*rec.File), Rule: "attached_file"}
	default:
		rule, label := matchLink(c.linkRules, rec.Link)
		return Result{Label: label, Rule: rule}
	}
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
	"bmp": true, "tif": true, "tiff": true, "svg": true, "heic": true, "avif": true,
}

// classifyFile guesses the MIME family from the file name, falling back to
// the URL path when the name has no extension.
func classifyFile(f content.FileRef) content.Label {
	ext := FileExtension(f)
	if ext == "" {
		return content.Label{Type: content.TypeDocument, Platform: content.PlatformUnknown}
	}

	label := content.Label{Type: content.TypeDocument, Platform: content.Platform(ext)}
	if imageExtensions[ext] {
		label.Type = content.TypeImage
		return label
	}
	if strings.HasPrefix(mime.TypeByExtension("."+ext), "image/") {
		label.Type = content.TypeImage
	}
	return label
}

// FileExtension returns the lower-cased extension (without the dot) of an
// attached file, taken from its name or else from its URL path.
func FileExtension(f content.FileRef) string {
	if ext := extensionOf(f.Name); ext != "" {
		return ext
	}
	if u, err := url.Parse(f.URL); err == nil {
		return extensionOf(u.Path)
	}
	return ""
}

func extensionOf(name string) string {
	ext := strings.TrimPrefix(path.Ext(strings.TrimSpace(name)), ".")
	return strings.ToLower(ext)
}
