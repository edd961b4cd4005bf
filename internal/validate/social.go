package validate

import (
	"net/url"
	"strings"

	"github.com/mailproof/mailproof/internal/model"
)

// socialPlatforms maps host fragments to platform names.
var socialPlatforms = map[string]string{
	"facebook.com":  "facebook",
	"instagram.com": "instagram",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"linkedin.com":  "linkedin",
	"youtube.com":   "youtube",
	"tiktok.com":    "tiktok",
	"pinterest.com": "pinterest",
}

// ValidateSocial collects social-platform links from the email and
// checks the handles against the ones the client owns.
func ValidateSocial(links []model.Link, expected map[string]string) *model.SocialValidation {
	if len(expected) == 0 {
		return nil
	}

	sv := &model.SocialValidation{Passed: true}
	handles := make(map[string]string)

	for _, l := range links {
		platform, handle := socialHandle(l.URL)
		if platform == "" {
			continue
		}
		sv.Found = append(sv.Found, model.SocialLink{Platform: platform, Handle: handle, URL: l.URL})
		if _, ok := handles[platform]; !ok {
			handles[platform] = handle
		}
	}

	for platform, want := range expected {
		got, ok := handles[strings.ToLower(platform)]
		if !ok || !strings.EqualFold(normalizeHandle(got), normalizeHandle(want)) {
			sv.Passed = false
		}
	}
	return sv
}

// socialHandle extracts the platform and account from a profile URL:
// https://www.instagram.com/acmestores -> ("instagram", "acmestores").
func socialHandle(raw string) (string, string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ""
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	platform := ""
	for frag, name := range socialPlatforms {
		if host == frag || strings.HasSuffix(host, "."+frag) {
			platform = name
			break
		}
	}
	if platform == "" {
		return "", ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	handle := ""
	if len(segs) > 0 {
		handle = segs[0]
	}
	return platform, handle
}

func normalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}
