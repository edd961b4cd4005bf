package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mailproof/mailproof/internal/model"
)

// Engine loads client rules files and applies them to parsed emails.
// Loaded rules are cached for the lifetime of the engine, which matters
// in batch runs where every pair for the same client would otherwise
// re-read and re-lint the same file.
type Engine struct {
	dir string
	log *zap.Logger

	mu    sync.RWMutex
	cache map[string]*ClientRules
}

func NewEngine(dir string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		dir:   dir,
		log:   log,
		cache: make(map[string]*ClientRules),
	}
}

// NormalizeClient maps a display name to the rules file key:
// "Acme Stores" -> "acme_stores".
func NormalizeClient(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}

// Load reads and validates the rules file for a client. A missing file
// is reported with os.ErrNotExist wrapped so callers can degrade to
// generic checks instead of failing the run.
func (e *Engine) Load(client string) (*ClientRules, error) {
	key := NormalizeClient(client)
	if key == "" {
		return nil, fmt.Errorf("empty client name")
	}

	e.mu.RLock()
	if r, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return r, nil
	}
	e.mu.RUnlock()

	path := filepath.Join(e.dir, key+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rules for %q: %w", client, err)
	}

	problems, err := Lint(raw)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("rules file %s is invalid: %s", path, strings.Join(problems, "; "))
	}

	var r ClientRules
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if r.Client == "" {
		r.Client = key
	}

	e.mu.Lock()
	e.cache[key] = &r
	e.mu.Unlock()

	e.log.Debug("loaded client rules",
		zap.String("client", key),
		zap.Int("version", r.Version),
		zap.Int("modules", len(r.Modules)))
	return &r, nil
}

// List returns the clients that have a rules file, sorted.
func (e *Engine) List() ([]string, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list rules dir: %w", err)
	}
	var clients []string
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".json") {
			continue
		}
		clients = append(clients, strings.TrimSuffix(ent.Name(), ".json"))
	}
	sort.Strings(clients)
	return clients, nil
}

// Save writes a rules file, creating the rules directory if needed.
// Refuses to overwrite an existing file.
func (e *Engine) Save(r *ClientRules) (string, error) {
	key := NormalizeClient(r.Client)
	if key == "" {
		return "", fmt.Errorf("rules have no client name")
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create rules dir: %w", err)
	}
	path := filepath.Join(e.dir, key+".json")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("rules file already exists: %s", path)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write rules file: %w", err)
	}
	return path, nil
}

// DefaultRules is the starter template for a new client.
func DefaultRules(client string) *ClientRules {
	return &ClientRules{
		Client:      NormalizeClient(client),
		DisplayName: client,
		Version:     1,
		Segmentation: &Segmentation{
			Required: false,
		},
		Compliance: &Compliance{
			RequireUnsubscribe:     true,
			RequirePhysicalAddress: true,
			RequireAltText:         true,
		},
		UTM: &UTMRules{
			RequiredParams: []string{"utm_source", "utm_medium", "utm_campaign"},
		},
	}
}

// Validate applies the client rules to a parsed email. Required rules
// produce issues, advisory rules produce warnings.
func (e *Engine) Validate(r *ClientRules, email *model.Email, req *model.Requirements) *model.RuleValidation {
	rv := &model.RuleValidation{
		Client:   r.Client,
		Sections: make(map[string]model.Section),
	}

	body := strings.ToLower(email.PlainBody + "\n" + email.Subject + "\n" + email.PreviewText)

	if r.Segmentation != nil && r.Segmentation.Required {
		rv.Sections["segmentation"] = e.checkSegmentation(r, req, rv)
	}
	if len(r.Modules) > 0 {
		rv.Sections["content_modules"] = e.checkModules(r, body, rv)
	}
	if r.Brand != nil {
		rv.Sections["brand"] = e.checkBrand(r, body, rv)
	}
	if r.DosAndDonts != nil {
		rv.Sections["copywriting"] = e.checkDosAndDonts(r, body, rv)
	}
	if len(r.CTAs) > 0 {
		rv.Sections["ctas"] = e.checkCTAs(r, email, rv)
	}
	if r.Compliance != nil {
		rv.Sections["compliance"] = e.checkCompliance(r, email, rv)
	}

	rv.Passed = len(rv.Issues) == 0
	return rv
}

func (e *Engine) checkSegmentation(r *ClientRules, req *model.Requirements, rv *model.RuleValidation) model.Section {
	sec := model.Section{Checks: make(map[string]bool)}
	if req == nil || len(req.Segments) == 0 {
		sec.Checks["segments_in_document"] = false
		rv.Warnings = append(rv.Warnings,
			fmt.Sprintf("client %s campaigns are segmented but the copy document names no segments", r.Client))
		return sec
	}
	sec.Checks["segments_in_document"] = true
	for _, want := range r.Segmentation.Segments {
		found := false
		for got := range req.Segments {
			if strings.EqualFold(strings.TrimSpace(got), want) {
				found = true
				break
			}
		}
		if found {
			sec.Found = append(sec.Found, want)
		} else {
			sec.Missing = append(sec.Missing, want)
			rv.Warnings = append(rv.Warnings, fmt.Sprintf("expected segment %q not in copy document", want))
		}
	}
	return sec
}

func (e *Engine) checkModules(r *ClientRules, body string, rv *model.RuleValidation) model.Section {
	sec := model.Section{Checks: make(map[string]bool)}
	for _, m := range r.Modules {
		present := moduleKeywordsPresent(m, body)
		sec.Checks[m.Name] = present
		if present {
			sec.Found = append(sec.Found, m.Name)
			continue
		}
		sec.Missing = append(sec.Missing, m.Name)
		msg := fmt.Sprintf("content module %q not found in email", m.Name)
		if m.Required {
			rv.Issues = append(rv.Issues, msg)
		} else {
			rv.Warnings = append(rv.Warnings, msg)
		}
	}
	return sec
}

func moduleKeywordsPresent(m ContentRule, body string) bool {
	if len(m.Keywords) == 0 {
		return strings.Contains(body, strings.ToLower(m.Name))
	}
	for _, kw := range m.Keywords {
		if strings.Contains(body, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (e *Engine) checkBrand(r *ClientRules, body string, rv *model.RuleValidation) model.Section {
	sec := model.Section{Checks: make(map[string]bool)}
	for _, p := range r.Brand.RequiredPhrases {
		ok := strings.Contains(body, strings.ToLower(p))
		sec.Checks["requires: "+p] = ok
		if !ok {
			sec.Missing = append(sec.Missing, p)
			rv.Warnings = append(rv.Warnings, fmt.Sprintf("required brand phrase %q not found", p))
		}
	}
	for _, p := range r.Brand.BannedPhrases {
		hit := strings.Contains(body, strings.ToLower(p))
		sec.Checks["bans: "+p] = !hit
		if hit {
			sec.Found = append(sec.Found, p)
			rv.Issues = append(rv.Issues, fmt.Sprintf("banned phrase %q appears in email", p))
		}
	}
	return sec
}

func (e *Engine) checkDosAndDonts(r *ClientRules, body string, rv *model.RuleValidation) model.Section {
	sec := model.Section{}
	for _, d := range r.DosAndDonts.Donts {
		if strings.Contains(body, strings.ToLower(d)) {
			sec.Found = append(sec.Found, d)
			rv.Warnings = append(rv.Warnings, fmt.Sprintf("copy guideline: avoid %q", d))
		}
	}
	// Dos are aspirational; surface them in details for the reviewer.
	sec.Details = append(sec.Details, r.DosAndDonts.Dos...)
	return sec
}

// checkCTAs verifies the CTAs the rules file pins: the text must appear
// on a button or link in the email, and url_pattern, when set, must be a
// substring of where that CTA points.
func (e *Engine) checkCTAs(r *ClientRules, email *model.Email, rv *model.RuleValidation) model.Section {
	sec := model.Section{Checks: make(map[string]bool)}
	for _, c := range r.CTAs {
		want := normalizeCTAText(c.Text)
		var match *model.CTA
		for i := range email.CTAs {
			if normalizeCTAText(email.CTAs[i].Text) == want {
				match = &email.CTAs[i]
				break
			}
		}
		if match == nil {
			// Plain links count too; the rule pins the copy, not the
			// button styling.
			for _, l := range email.Links {
				if normalizeCTAText(l.Text) == want {
					match = &model.CTA{Text: l.Text, URL: l.URL}
					break
				}
			}
		}
		if match == nil {
			sec.Checks[c.Text] = false
			sec.Missing = append(sec.Missing, c.Text)
			msg := fmt.Sprintf("CTA %q not found in email", c.Text)
			if c.Required {
				rv.Issues = append(rv.Issues, msg)
			} else {
				rv.Warnings = append(rv.Warnings, msg)
			}
			continue
		}
		ok := c.URLPattern == "" ||
			strings.Contains(strings.ToLower(match.URL), strings.ToLower(c.URLPattern))
		sec.Checks[c.Text] = ok
		if ok {
			sec.Found = append(sec.Found, c.Text)
			continue
		}
		msg := fmt.Sprintf("CTA %q points at %s, want a URL containing %q", c.Text, match.URL, c.URLPattern)
		if c.Required {
			rv.Issues = append(rv.Issues, msg)
		} else {
			rv.Warnings = append(rv.Warnings, msg)
		}
	}
	return sec
}

func normalizeCTAText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func (e *Engine) checkCompliance(r *ClientRules, email *model.Email, rv *model.RuleValidation) model.Section {
	sec := model.Section{Checks: make(map[string]bool)}
	if r.Compliance.RequireUnsubscribe {
		sec.Checks["unsubscribe"] = email.HasUnsubscribe
		if !email.HasUnsubscribe {
			rv.Issues = append(rv.Issues, "no unsubscribe link found (CAN-SPAM)")
		}
	}
	if r.Compliance.RequirePhysicalAddress {
		sec.Checks["physical_address"] = email.HasPhysicalAddress
		if !email.HasPhysicalAddress {
			rv.Issues = append(rv.Issues, "no physical mailing address found (CAN-SPAM)")
		}
	}
	if r.Compliance.RequireAltText {
		missing := 0
		for _, img := range email.Images {
			if strings.TrimSpace(img.Alt) == "" {
				missing++
			}
		}
		sec.Checks["alt_text"] = missing == 0
		if missing > 0 {
			rv.Warnings = append(rv.Warnings, fmt.Sprintf("%d image(s) missing alt text", missing))
		}
	}
	return sec
}

// RequiredCTAs merges CTA requirements from the rules file into the set
// extracted from the copy document.
func (r *ClientRules) RequiredCTAs() []model.RequiredCTA {
	out := make([]model.RequiredCTA, 0, len(r.CTAs))
	for _, c := range r.CTAs {
		if !c.Required {
			continue
		}
		out = append(out, model.RequiredCTA{Text: c.Text, URL: c.URLPattern})
	}
	return out
}
