package content

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// DefaultTruncateLength is the rune limit Truncate applies for n < 1.
const DefaultTruncateLength = 180

const ellipsis = "..."

// Truncate shortens s to at most n runes plus an ellipsis, cutting at the
// last whitespace at or before n. Without whitespace the cut is hard.
func Truncate(s string, n int) string {
	if n < 1 {
		n = DefaultTruncateLength
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	cut := n
	for i := n; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}

	head := strings.TrimRightFunc(string(runes[:cut]), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if head == "" {
		head = string(runes[:n])
	}
	return head + ellipsis
}

// PlainText returns the text content of an HTML fragment with whitespace
// runs collapsed to single spaces.
func PlainText(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			tt := tokenizer.Token()
			if isRawText(tt.Data) {
				switch tt.Type {
				case html.StartTagToken:
					skip++
				case html.EndTagToken:
					skip = max(0, skip-1)
				}
			}
			if blockTags[tt.Data] {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

func isRawText(tag string) bool {
	return tag == "script" || tag == "style"
}
