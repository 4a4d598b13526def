package content

// DocumentMetadata carries facts about an analysed file.
type DocumentMetadata struct {
	FileType  string `json:"file_type,omitempty"`
	WordCount *int64 `json:"word_count,omitempty"`
}

// ProcessedContent is what a processor returns for a record. Which fields are
// populated depends on the content type; numeric fields are pointers so that a
// present zero can be told apart from an absent value. A degraded result has
// Error set and usually only Title and ProcessingAgent besides.
type ProcessedContent struct {
	Title           string `json:"title,omitempty"`
	ProcessingAgent string `json:"processing_agent"`
	Error           string `json:"error,omitempty"`

	// text
	GeneratedQuestions []string `json:"generated_questions,omitempty"`

	// video
	Transcript string `json:"transcript,omitempty"`
	Channel    string `json:"channel,omitempty"`
	ViewCount  *int64 `json:"view_count,omitempty"`
	LikeCount  *int64 `json:"like_count,omitempty"`

	// website and instagram
	Author        string   `json:"author,omitempty"`
	WebsiteName   string   `json:"website_name,omitempty"`
	Content       string   `json:"content,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`

	// image and document
	Description string            `json:"description,omitempty"`
	Summary     string            `json:"summary,omitempty"`
	Dimensions  string            `json:"dimensions,omitempty"`
	SizeKB      *int64            `json:"size_kb,omitempty"`
	Metadata    *DocumentMetadata `json:"metadata,omitempty"`
}

// Degraded reports whether the content carries a processing error.
func (p ProcessedContent) Degraded() bool {
	return p.Error != ""
}

// Int64 returns a pointer to v, for populating optional numeric fields.
func Int64(v int64) *int64 {
	return &v
}
