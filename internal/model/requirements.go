package model

// Requirements represents what the copy document asks of the email
type Requirements struct {
	SubjectLines []string `json:"subject_lines,omitempty"` // Accepted subject variants (A/B lines)
	PreviewText  []string `json:"preview_text,omitempty"`  // Accepted preview variants
	FromName     string   `json:"from_name,omitempty"`
	FromEmail    string   `json:"from_email,omitempty"`

	CTAs  []RequiredCTA `json:"ctas,omitempty"`  // CTA texts plus pinned destinations
	Links []string      `json:"links,omitempty"` // Every URL named by the document

	Segments       map[string]Segment `json:"segments,omitempty"`        // Per-audience blocks
	ContentModules []string           `json:"content_modules,omitempty"` // Named sections the email must carry
	SpecialNotes   []string           `json:"special_notes,omitempty"`   // NOTE:/IMPORTANT: instructions

	EncodingIssues []string `json:"encoding_issues,omitempty"` // Mojibake repairs applied to the document
	SourceFile     string   `json:"source_file,omitempty"`
}

// RequiredCTA is a CTA the copy document calls for
type RequiredCTA struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`  // Destination, when the document pins one
	Line int    `json:"line,omitempty"` // 1-based line in the source document
}

// Segment holds the requirement lines attached to a Segment: header
type Segment struct {
	Lines []string `json:"lines,omitempty"`
	Line  int      `json:"line,omitempty"` // Where the segment header appeared
}
