package validate

import (
	"regexp"
	"strings"

	"github.com/mailproof/mailproof/internal/model"
)

var phoneRe = regexp.MustCompile(`\+?1?[-.\s(]*\d{3}[-.\s)]*\d{3}[-.\s]*\d{4}`)

// NormalizePhone reduces a phone number to its significant digits so
// "+1 (800) 555-0101", "1-800-555-0101" and "tel:18005550101" all
// compare equal.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// ValidatePhones checks that every phone number the client requires
// appears in the email, in tel: links or in the visible copy.
func ValidatePhones(email *model.Email, required []string) *model.PhoneValidation {
	if len(required) == 0 {
		return nil
	}

	found := make(map[string]bool)
	var foundList []string
	record := func(raw string) {
		n := NormalizePhone(raw)
		if len(n) >= 10 && !found[n] {
			found[n] = true
			foundList = append(foundList, n)
		}
	}

	for _, l := range email.Links {
		if strings.HasPrefix(strings.ToLower(l.URL), "tel:") {
			record(strings.TrimPrefix(l.URL, "tel:"))
		}
	}
	for _, m := range phoneRe.FindAllString(email.PlainBody, -1) {
		record(m)
	}

	pv := &model.PhoneValidation{
		Required: strings.Join(required, ", "),
		Found:    foundList,
		Passed:   true,
	}
	for _, want := range required {
		if !found[NormalizePhone(want)] {
			pv.Passed = false
		}
	}
	return pv
}
