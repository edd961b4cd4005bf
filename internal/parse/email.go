package parse

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/mailproof/mailproof/internal/model"
)

// trackingHosts marks redirectors used by ESPs. A link through one of these
// cannot be compared to the copy doc until its final URL is resolved.
var trackingHosts = []string{
	"click.", "clicks.", "links.", "link.", "email.", "track.", "go.", "redirect.",
	"list-manage.com", "sendgrid.net", "exacttarget.com", "mktomail.com",
	"braze.com", "cmail", "rs6.net",
}

var addressRe = regexp.MustCompile(`(?i)\b\d{1,5}\s+[A-Za-z0-9.\- ]+\b(street|st\.?|avenue|ave\.?|boulevard|blvd\.?|road|rd\.?|drive|dr\.?|lane|ln\.?|way|suite|ste\.?|floor)\b|\bP\.?O\.?\s*Box\s+\d+`)

// ParseEmail loads a rendered email from a .eml file or a raw HTML export
// and extracts everything the checks need from it.
func ParseEmail(path string) (*model.Email, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read email: %w", err)
	}

	e := &model.Email{SourceFile: path}
	content := string(data)

	if isEML(path, content) {
		if err := parseEML(content, e); err != nil {
			return nil, fmt.Errorf("parse eml: %w", err)
		}
	} else {
		e.HTMLBody = content
	}

	if e.HTMLBody != "" {
		repaired, fixes := RepairEncoding(e.HTMLBody)
		e.HTMLBody = repaired
		e.EncodingIssues = append(e.EncodingIssues, fixes...)
		if err := extractFromHTML(e); err != nil {
			return nil, fmt.Errorf("parse html body: %w", err)
		}
	}

	if s, fixes := RepairEncoding(e.Subject); len(fixes) > 0 {
		e.Subject = s
		e.EncodingIssues = append(e.EncodingIssues, fixes...)
	}
	return e, nil
}

func isEML(path, content string) bool {
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".eml" || ext == ".msg" {
		return true
	}
	return sniffFormat(content) == formatEML
}

func parseEML(content string, e *model.Email) error {
	msg, err := mail.ReadMessage(strings.NewReader(content))
	if err != nil {
		return err
	}

	dec := new(mime.WordDecoder)
	if subj, err := dec.DecodeHeader(msg.Header.Get("Subject")); err == nil {
		e.Subject = subj
	} else {
		e.Subject = msg.Header.Get("Subject")
	}
	e.To = msg.Header.Get("To")

	if from := msg.Header.Get("From"); from != "" {
		if addr, err := mail.ParseAddress(from); err == nil {
			e.FromName = addr.Name
			e.FromEmail = addr.Address
		} else {
			e.FromName = from
		}
	}

	ct := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = "text/html"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return walkMultipart(msg.Body, params["boundary"], e)
	}

	body, err := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return err
	}
	if strings.HasPrefix(mediaType, "text/plain") {
		e.PlainBody = body
	} else {
		e.HTMLBody = body
	}
	return nil
}

func walkMultipart(r io.Reader, boundary string, e *model.Email) error {
	if boundary == "" {
		return fmt.Errorf("multipart message without boundary")
	}
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		ct := part.Header.Get("Content-Type")
		mediaType, params, perr := mime.ParseMediaType(ct)
		if perr != nil {
			continue
		}
		switch {
		case strings.HasPrefix(mediaType, "multipart/"):
			if err := walkMultipart(part, params["boundary"], e); err != nil {
				return err
			}
		case strings.HasPrefix(mediaType, "text/html"):
			body, derr := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
			if derr != nil {
				return derr
			}
			e.HTMLBody = body
		case strings.HasPrefix(mediaType, "text/plain"):
			body, derr := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
			if derr != nil {
				return derr
			}
			e.PlainBody = body
		}
	}
}

func decodeBody(r io.Reader, cte string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(cte)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		cleaned := strings.Map(func(r rune) rune {
			if r == '\r' || r == '\n' || r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, string(raw))
		b, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// extractFromHTML walks the HTML body collecting links, CTAs, images and
// the structural facts the compliance checks look at.
func extractFromHTML(e *model.Email) error {
	doc, err := html.Parse(strings.NewReader(e.HTMLBody))
	if err != nil {
		return err
	}

	var textParts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "title":
				if e.Subject == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					e.Subject = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				handleAnchor(n, e)
			case "img":
				handleImage(n, e)
			case "div", "span":
				if e.PreviewText == "" && isHiddenPreheader(n) {
					// Real preheaders run a sentence or so; short hidden
					// spans are usually spacer hacks.
					if t := strings.TrimSpace(nodeText(n)); len(t) > 10 {
						e.PreviewText = t
					}
				}
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				textParts = append(textParts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	fullText := strings.Join(textParts, "\n")
	if e.PlainBody == "" {
		e.PlainBody = fullText
	}

	lower := strings.ToLower(fullText + " " + e.HTMLBody)
	if strings.Contains(lower, "unsubscribe") || strings.Contains(lower, "opt out") || strings.Contains(lower, "opt-out") {
		e.HasUnsubscribe = true
	}
	if addressRe.MatchString(fullText) {
		e.HasPhysicalAddress = true
	}
	return nil
}

func handleAnchor(n *html.Node, e *model.Email) {
	attrs := attrMap(n)
	href := strings.TrimSpace(attrs["href"])
	if href == "" {
		return
	}
	text := strings.TrimSpace(nodeText(n))

	link := model.Link{
		URL:        href,
		Text:       text,
		Title:      attrs["title"],
		UTMParams:  utmParams(href),
		IsTracking: isTrackingURL(href),
	}
	e.Links = append(e.Links, link)

	if isCTAAnchor(attrs, text) {
		e.CTAs = append(e.CTAs, model.CTA{
			Text:    text,
			URL:     href,
			Style:   attrs["style"],
			Classes: attrs["class"],
		})
	}
}

func handleImage(n *html.Node, e *model.Email) {
	attrs := attrMap(n)
	if attrs["src"] == "" {
		return
	}
	e.Images = append(e.Images, model.Image{
		Src:    attrs["src"],
		Alt:    attrs["alt"],
		Width:  attrs["width"],
		Height: attrs["height"],
		Title:  attrs["title"],
	})
}

// isCTAAnchor decides whether an anchor renders as a button. Email HTML
// signals this with btn/button classes, bulletproof-button inline styles,
// or the short all-caps text convention.
func isCTAAnchor(attrs map[string]string, text string) bool {
	class := strings.ToLower(attrs["class"])
	for _, c := range []string{"btn", "button", "cta"} {
		if strings.Contains(class, c) {
			return true
		}
	}
	style := strings.ToLower(attrs["style"])
	if strings.Contains(style, "background-color") && strings.Contains(style, "padding") {
		return true
	}
	if strings.Contains(style, "display:inline-block") || strings.Contains(style, "display: inline-block") {
		return true
	}
	return looksLikeCTA(text) || startsWithActionVerb(text)
}

var ctaVerbs = []string{"shop", "buy", "get", "start", "learn", "explore", "claim", "join"}

func startsWithActionVerb(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 || len(words) > 5 {
		return false
	}
	for _, v := range ctaVerbs {
		if words[0] == v {
			return true
		}
	}
	return false
}

func isHiddenPreheader(n *html.Node) bool {
	class := strings.ToLower(attrValue(n, "class"))
	if strings.Contains(class, "preheader") || strings.Contains(class, "preview") {
		return true
	}
	style := strings.ToLower(attrValue(n, "style"))
	if style == "" {
		return false
	}
	return strings.Contains(style, "display:none") || strings.Contains(style, "display: none") ||
		strings.Contains(style, "max-height:0") || strings.Contains(style, "max-height: 0") ||
		strings.Contains(style, "font-size:0") || strings.Contains(style, "font-size: 0") ||
		strings.Contains(style, "visibility:hidden") || strings.Contains(style, "visibility: hidden") ||
		strings.Contains(style, "opacity:0") || strings.Contains(style, "opacity: 0")
}

func isTrackingURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, t := range trackingHosts {
		if strings.HasSuffix(t, ".") {
			if strings.HasPrefix(host, t) {
				return true
			}
		} else if strings.Contains(host, t) {
			return true
		}
	}
	return false
}

func utmParams(raw string) map[string]string {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	var params map[string]string
	for key, vals := range u.Query() {
		if !strings.HasPrefix(key, "utm_") || len(vals) == 0 {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[key] = vals[0]
	}
	return params
}

func attrMap(n *html.Node) map[string]string {
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[strings.ToLower(a.Key)] = a.Val
	}
	return m
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
