// Package validate checks campaign links: presence against the copy
// document, liveness on the network, tracking parameters, and the
// client's phone and social requirements.
package validate

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/mailproof/mailproof/internal/cache"
	"github.com/mailproof/mailproof/internal/model"
	"github.com/mailproof/mailproof/internal/rules"
)

// Validator runs every link-level check for one campaign.
type Validator struct {
	checker *LinkChecker
	cfg     *model.Config
	log     *zap.Logger
}

func NewValidator(cfg *model.Config, store cache.Store, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{
		checker: NewLinkChecker(cfg, store, log),
		cfg:     cfg,
		log:     log,
	}
}

// Validate compares the email's links against the copy document and the
// client rules, then probes them for liveness unless checking is off.
func (v *Validator) Validate(ctx context.Context, email *model.Email, req *model.Requirements, r *rules.ClientRules) *model.LinkValidation {
	lv := &model.LinkValidation{
		TotalLinks: email.LinkCount(),
	}

	required := requiredURLs(req, r)
	lv.RequiredLinks = len(required)
	matchPresence(lv, email, required)

	var utmRules *rules.UTMRules
	if r != nil {
		utmRules = r.UTM
	}
	lv.UTM = ValidateUTM(email.Links, utmRules)

	if r != nil {
		lv.Phone = ValidatePhones(email, r.PhoneNumbers)
		lv.Social = ValidateSocial(email.Links, r.Social)
	}

	if v.cfg.HTTP.CheckLinks {
		lv.Checked = v.checker.CheckAll(ctx, email.Links)
	} else {
		lv.Skipped = true
		v.log.Debug("link liveness checking disabled")
	}

	lv.Passed = v.passed(lv)
	return lv
}

func (v *Validator) passed(lv *model.LinkValidation) bool {
	if len(lv.MissingLinks) > 0 || !lv.UTM.Passed {
		return false
	}
	if lv.Phone != nil && !lv.Phone.Passed {
		return false
	}
	if lv.Social != nil && !lv.Social.Passed {
		return false
	}
	for _, st := range lv.Checked {
		if st.IsDead {
			return false
		}
	}
	return true
}

// requiredURLs merges the destinations the copy document and the client
// rules expect to see in the email.
func requiredURLs(req *model.Requirements, r *rules.ClientRules) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		if u == "" || !strings.HasPrefix(u, "http") {
			return
		}
		key := normalizeURL(u)
		if !seen[key] {
			seen[key] = true
			out = append(out, u)
		}
	}
	if req != nil {
		for _, u := range req.Links {
			add(u)
		}
		for _, cta := range req.CTAs {
			add(cta.URL)
		}
	}
	if r != nil {
		for _, cta := range r.RequiredCTAs() {
			add(cta.URL)
		}
	}
	return out
}

// matchPresence fills MatchedLinks, MissingLinks and ExtraLinks.
// Comparison ignores UTM params, fragments and trailing slashes: the
// copy doc says where a link goes, the ESP decorates it.
func matchPresence(lv *model.LinkValidation, email *model.Email, required []string) {
	inEmail := make(map[string]bool)
	for _, l := range email.Links {
		if !strings.HasPrefix(l.URL, "http") {
			continue
		}
		inEmail[normalizeURL(l.URL)] = true
	}

	requiredSet := make(map[string]bool, len(required))
	for _, want := range required {
		key := normalizeURL(want)
		requiredSet[key] = true
		if inEmail[key] {
			lv.MatchedLinks++
		} else {
			lv.MissingLinks = append(lv.MissingLinks, want)
		}
	}

	for _, l := range email.Links {
		if !strings.HasPrefix(l.URL, "http") || l.IsTracking {
			continue
		}
		if requiredSet[normalizeURL(l.URL)] || isExemptFromUTM(l.URL) {
			continue
		}
		lv.ExtraLinks = appendOnce(lv.ExtraLinks, l.URL)
	}
}

// normalizeURL canonicalizes a URL for presence comparison.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if strings.HasPrefix(key, "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	s := u.String()
	return strings.TrimRight(s, "/")
}
