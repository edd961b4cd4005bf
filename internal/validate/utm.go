package validate

import (
	"strings"

	"github.com/mailproof/mailproof/internal/model"
	"github.com/mailproof/mailproof/internal/rules"
)

// ValidateUTM checks that marketing links carry the client's required
// tracking parameters with the expected values. Tracking redirectors
// and unsubscribe links are exempt: the former get their params at the
// destination, the latter never carry them.
func ValidateUTM(links []model.Link, r *rules.UTMRules) model.UTMValidation {
	v := model.UTMValidation{Passed: true}
	if r == nil || (len(r.RequiredParams) == 0 && len(r.ExpectedValues) == 0) {
		return v
	}

	for _, l := range links {
		if !strings.HasPrefix(l.URL, "http") || l.IsTracking || isExemptFromUTM(l.URL) {
			continue
		}
		for _, param := range r.RequiredParams {
			if _, ok := l.UTMParams[param]; !ok {
				v.MissingOn = appendOnce(v.MissingOn, l.URL)
				v.Passed = false
			}
		}
		for param, want := range r.ExpectedValues {
			got, ok := l.UTMParams[param]
			if !ok {
				continue // Already reported as missing if required.
			}
			if !strings.EqualFold(got, want) {
				v.ValueErrors = append(v.ValueErrors, model.UTMError{
					URL:      l.URL,
					Param:    param,
					Expected: want,
					Actual:   got,
				})
				v.Passed = false
			}
		}
	}
	return v
}

func isExemptFromUTM(url string) bool {
	lower := strings.ToLower(url)
	for _, frag := range []string{"unsubscribe", "preferences", "privacy", "terms", "mailto:", "tel:"} {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

func appendOnce(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
