package model

// Email represents the parsed components of a rendered marketing email
type Email struct {
	Subject     string `json:"subject"`                // Subject header (empty for standalone HTML)
	FromName    string `json:"from_name,omitempty"`    // Sender display name
	FromEmail   string `json:"from_email,omitempty"`   // Sender address
	To          string `json:"to,omitempty"`           // To header (EML only)
	PreviewText string `json:"preview_text,omitempty"` // Hidden preheader text

	HTMLBody  string `json:"-"` // Full HTML body (omitted from reports; can be megabytes)
	PlainBody string `json:"-"` // Plain-text body

	Links  []Link  `json:"links"`  // All anchors found in the body
	CTAs   []CTA   `json:"ctas"`   // Links identified as call-to-action buttons
	Images []Image `json:"images"` // Image elements

	HasUnsubscribe     bool `json:"has_unsubscribe"`      // Unsubscribe/opt-out link present
	HasPhysicalAddress bool `json:"has_physical_address"` // Street address detected (CAN-SPAM)

	EncodingIssues []string `json:"encoding_issues,omitempty"` // Mojibake repairs applied
	SourceFile     string   `json:"source_file,omitempty"`     // Basename of the input file
}

// Link represents a single anchor extracted from the email body
type Link struct {
	URL        string            `json:"url"`
	Text       string            `json:"text,omitempty"`       // Anchor text
	Title      string            `json:"title,omitempty"`      // title attribute
	UTMParams  map[string]string `json:"utm_params,omitempty"` // utm_* query parameters
	IsTracking bool              `json:"is_tracking"`          // Redirect/tracker host prefix
}

// CTA represents a link identified as a call-to-action button
type CTA struct {
	Text    string `json:"text"`
	URL     string `json:"url"`
	Style   string `json:"style,omitempty"`   // inline style attribute
	Classes string `json:"classes,omitempty"` // class attribute (space-joined)
}

// Image represents an <img> element
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
	Title  string `json:"title,omitempty"`
}

// LinkCount returns the number of links, excluding mailto:/tel: anchors
func (e *Email) LinkCount() int {
	n := 0
	for _, l := range e.Links {
		if !isNonHTTP(l.URL) {
			n++
		}
	}
	return n
}

func isNonHTTP(url string) bool {
	for _, prefix := range []string{"mailto:", "tel:", "#"} {
		if len(url) >= len(prefix) && url[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
