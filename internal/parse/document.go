package parse

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/mailproof/mailproof/internal/model"
)

// Copy documents arrive in whatever format the copywriter exported:
// plain text, HTML, or occasionally a raw .eml forwarded as "the doc".
// ParseDocument sniffs the format and extracts the campaign requirements.

var (
	subjectRe = regexp.MustCompile(`(?i)^\s*(?:subject(?:\s+line)?|sl)\s*[:\-]\s*(.+)$`)
	previewRe = regexp.MustCompile(`(?i)^\s*(?:preview(?:\s+text)?|preheader|ph)\s*[:\-]\s*(.+)$`)
	fromRe    = regexp.MustCompile(`(?i)^\s*from(?:\s+name)?\s*[:\-]\s*(.+)$`)
	fromEmRe  = regexp.MustCompile(`(?i)^\s*from\s+email\s*[:\-]\s*(.+)$`)
	segmentRe = regexp.MustCompile(`(?i)^\s*segment\s*[:\-]\s*(.+)$`)
	moduleRe  = regexp.MustCompile(`(?i)^\s*(?:module|section)\s*\d*\s*[:\-]\s*(.+)$`)
	noteRe    = regexp.MustCompile(`(?i)^\s*(?:note|important|attention)\s*[:\-]\s*(.+)$`)
	urlRe     = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
	// Embedded From header of the form: Name <addr@example.com>
	fromPairRe = regexp.MustCompile(`^(.*?)\s*<([^>]+@[^>]+)>$`)
)

// ParseDocument reads a copy document and extracts the requirements the
// email is expected to satisfy.
func ParseDocument(path string) (*model.Requirements, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	content := string(data)

	format := sniffFormat(content)
	if format == formatText && strings.EqualFold(filepath.Ext(path), ".pdf") {
		format = formatPDF
	}

	var (
		req   *model.Requirements
		fixes []string
	)
	switch format {
	case formatPDF:
		pdfLines, err := pdfToLines(path)
		if err != nil {
			return nil, err
		}
		text, f := RepairEncoding(strings.Join(pdfLines, "\n"))
		req, fixes = parseDocumentText(strings.Split(text, "\n")), f
	case formatEML:
		header, body, isHTML, err := decodeEMLDocument(content)
		if err != nil {
			return nil, fmt.Errorf("decode eml document: %w", err)
		}
		// Repair runs on the decoded body; the raw message is still
		// quoted-printable or base64 at this point.
		body, fixes = RepairEncoding(body)
		lines := header
		if isHTML {
			lines = append(lines, htmlToLines(body)...)
		} else {
			lines = append(lines, strings.Split(body, "\n")...)
		}
		req = parseDocumentText(lines)
	case formatHTML:
		text, f := RepairEncoding(content)
		req, fixes = parseDocumentText(htmlToLines(text)), f
	default:
		text, f := RepairEncoding(content)
		req, fixes = parseDocumentText(strings.Split(text, "\n")), f
	}
	req.EncodingIssues = fixes
	req.SourceFile = path
	return req, nil
}

// decodeEMLDocument turns a forwarded .eml back into the copy doc the
// writer would have sent: Subject/From header lines followed by the
// decoded body, preferring the plain part over the HTML one.
func decodeEMLDocument(content string) (header []string, body string, isHTML bool, err error) {
	var e model.Email
	if err := parseEML(content, &e); err != nil {
		return nil, "", false, err
	}
	if e.Subject != "" {
		header = append(header, "Subject: "+e.Subject)
	}
	switch {
	case e.FromName != "" && e.FromEmail != "":
		header = append(header, fmt.Sprintf("From: %s <%s>", e.FromName, e.FromEmail))
	case e.FromEmail != "":
		header = append(header, "From email: "+e.FromEmail)
	case e.FromName != "":
		header = append(header, "From: "+e.FromName)
	}
	if e.PlainBody != "" {
		return header, e.PlainBody, false, nil
	}
	return header, e.HTMLBody, true, nil
}

type docFormat int

const (
	formatText docFormat = iota
	formatHTML
	formatEML
	formatPDF
)

// sniffFormat looks at the head of the content rather than trusting the
// file extension, which copywriters get wrong often enough to matter.
func sniffFormat(text string) docFormat {
	if strings.HasPrefix(text, "%PDF-") {
		return formatPDF
	}
	head := text
	if len(head) > 512 {
		head = head[:512]
	}
	// EML wins over HTML: an html-only message still carries RFC 5322
	// headers ahead of the markup. Plain copy docs use Subject:/From:
	// lines too, so at least one MIME header must be present before the
	// content is treated as a message.
	headers, mimeHeaders := 0, 0
	for _, line := range strings.Split(head, "\n") {
		l := strings.ToLower(line)
		for _, h := range []string{"from:", "to:", "subject:", "date:"} {
			if strings.HasPrefix(l, h) {
				headers++
				break
			}
		}
		for _, h := range []string{"mime-version:", "content-type:", "content-transfer-encoding:", "message-id:", "received:", "return-path:"} {
			if strings.HasPrefix(l, h) {
				headers++
				mimeHeaders++
				break
			}
		}
	}
	if headers >= 2 && mimeHeaders >= 1 {
		return formatEML
	}
	lower := strings.ToLower(head)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") || strings.Contains(lower, "<body") {
		return formatHTML
	}
	return formatText
}

func parseDocumentText(lines []string) *model.Requirements {
	req := &model.Requirements{
		Segments: make(map[string]model.Segment),
	}
	currentSegment := ""
	seenURL := make(map[string]bool)

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := subjectRe.FindStringSubmatch(line); m != nil {
			req.SubjectLines = append(req.SubjectLines, strings.TrimSpace(m[1]))
			addSegmentLine(req, currentSegment, "subject: "+m[1], i+1)
			continue
		}
		if m := previewRe.FindStringSubmatch(line); m != nil {
			req.PreviewText = append(req.PreviewText, strings.TrimSpace(m[1]))
			continue
		}
		if m := fromEmRe.FindStringSubmatch(line); m != nil {
			req.FromEmail = strings.TrimSpace(m[1])
			continue
		}
		if m := fromRe.FindStringSubmatch(line); m != nil {
			val := strings.TrimSpace(m[1])
			if pair := fromPairRe.FindStringSubmatch(val); pair != nil {
				req.FromName = strings.TrimSpace(pair[1])
				req.FromEmail = strings.TrimSpace(pair[2])
			} else if strings.Contains(val, "@") && !strings.Contains(val, " ") {
				req.FromEmail = val
			} else {
				req.FromName = val
			}
			continue
		}
		if m := segmentRe.FindStringSubmatch(line); m != nil {
			currentSegment = strings.TrimSpace(m[1])
			if _, ok := req.Segments[currentSegment]; !ok {
				req.Segments[currentSegment] = model.Segment{Line: i + 1}
			}
			continue
		}
		if m := moduleRe.FindStringSubmatch(line); m != nil {
			req.ContentModules = append(req.ContentModules, strings.TrimSpace(m[1]))
			continue
		}
		if m := noteRe.FindStringSubmatch(line); m != nil {
			req.SpecialNotes = append(req.SpecialNotes, strings.TrimSpace(m[1]))
			continue
		}

		if looksLikeCTA(line) {
			cta := model.RequiredCTA{Text: line, Line: i + 1}
			// Copywriters put the destination on the following line.
			if url := nextLineURL(lines, i); url != "" {
				cta.URL = url
			}
			req.CTAs = append(req.CTAs, cta)
			addSegmentLine(req, currentSegment, "cta: "+line, i+1)
			continue
		}

		for _, u := range urlRe.FindAllString(line, -1) {
			u = strings.TrimRight(u, ".,;:!?)")
			if !seenURL[u] {
				seenURL[u] = true
				req.Links = append(req.Links, u)
			}
		}
		addSegmentLine(req, currentSegment, line, i+1)
	}
	return req
}

// looksLikeCTA flags short all-caps lines, the convention copy teams use
// for button text ("SHOP NOW", "LEARN MORE").
func looksLikeCTA(line string) bool {
	if len(line) < 3 || len(line) > 30 {
		return false
	}
	if strings.Contains(line, "://") {
		return false
	}
	if line != strings.ToUpper(line) {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}
	return len(strings.Fields(line)) <= 5
}

// nextLineURL finds the destination for a CTA line. One intervening
// non-URL line is tolerated: HTML docs often place the link text between
// the button copy and the href.
func nextLineURL(lines []string, i int) string {
	seen := 0
	for j := i + 1; j < len(lines) && j <= i+3 && seen < 2; j++ {
		next := strings.TrimSpace(lines[j])
		if next == "" {
			continue
		}
		seen++
		if m := urlRe.FindString(next); m != "" {
			return strings.TrimRight(m, ".,;:!?)")
		}
	}
	return ""
}

func addSegmentLine(req *model.Requirements, segment, line string, lineNo int) {
	if segment == "" {
		return
	}
	seg := req.Segments[segment]
	seg.Lines = append(seg.Lines, line)
	if seg.Line == 0 {
		seg.Line = lineNo
	}
	req.Segments[segment] = seg
}

// htmlToLines flattens an HTML copy doc into text lines, preserving href
// targets so URL extraction still works after tags are stripped.
func htmlToLines(src string) []string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return strings.Split(src, "\n")
	}
	var lines []string
	var buf strings.Builder

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			lines = append(lines, s)
		}
		buf.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br", "p", "div", "tr", "li", "h1", "h2", "h3", "h4", "td":
				flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "tr", "li", "h1", "h2", "h3", "h4", "td":
				flush()
			case "a":
				// Emit the href as its own line so the next-line URL
				// convention holds after tags are stripped. Anchor text
				// buffered so far must land before the URL, not after.
				for _, a := range n.Attr {
					if a.Key == "href" && strings.HasPrefix(a.Val, "http") {
						flush()
						lines = append(lines, a.Val)
					}
				}
			}
		}
	}
	walk(doc)
	flush()
	return lines
}
