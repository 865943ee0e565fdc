package paginator

import (
	"strconv"
	"strings"
)

// FragmentPrefix precedes the page number in an address fragment.
const FragmentPrefix = "page-"

// ParseFragment extracts the page number from a fragment of the form
// "#page-N". The leading '#' is optional. Anything else, including zero,
// signs or trailing characters, reports ok=false.
func ParseFragment(fragment string) (page int, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimPrefix(fragment, "#"), FragmentPrefix)
	if !found || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// FormatFragment encodes page as "#page-N".
func FormatFragment(page int) string {
	return "#" + FragmentPrefix + strconv.Itoa(page)
}
