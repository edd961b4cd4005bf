package parse

import (
	"fmt"
	"strings"
)

// encodingFixes maps common mojibake sequences (UTF-8 bytes decoded as
// Windows-1252) and stray HTML entities to their intended characters.
// Order matters: longer sequences first so substrings don't clobber them.
var encodingFixes = []struct {
	broken string
	fixed  string
}{
	{"â€™", "'"},
	{"â€˜", "'"},
	{"â€œ", "\""},
	{"â€", "\""},
	{"â€¦", "..."},
	{"â€“", "-"},
	{"â€”", "-"},
	{"Â®", "®"},
	{"Â©", "©"},
	{"Â£", "£"},
	{"Â ", " "},
	{"Ã©", "é"},
	{"Ã¨", "è"},
	{"Ã¡", "á"},
	{"Ã³", "ó"},
	{"Ã±", "ñ"},
	{"&amp;", "&"},
	{"&nbsp;", " "},
	{"&quot;", "\""},
	{"&#39;", "'"},
	{"&rsquo;", "'"},
	{"&lsquo;", "'"},
	{"&rdquo;", "\""},
	{"&ldquo;", "\""},
	{"&hellip;", "..."},
	{"&ndash;", "-"},
	{"&mdash;", "-"},
	{" ", " "},
}

// RepairEncoding replaces known mojibake sequences and returns the cleaned
// text plus a description of each fix applied, for reporting.
func RepairEncoding(s string) (string, []string) {
	if s == "" {
		return s, nil
	}
	var applied []string
	for _, f := range encodingFixes {
		if !strings.Contains(s, f.broken) {
			continue
		}
		n := strings.Count(s, f.broken)
		s = strings.ReplaceAll(s, f.broken, f.fixed)
		applied = append(applied, fixDescription(f.broken, f.fixed, n))
	}
	return s, applied
}

func fixDescription(broken, fixed string, count int) string {
	if count > 1 {
		return fmt.Sprintf("replaced %q with %q (%dx)", broken, fixed, count)
	}
	return fmt.Sprintf("replaced %q with %q", broken, fixed)
}
