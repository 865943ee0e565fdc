// Package content loads markdown book reviews with YAML front matter and
// provides the text helpers the layouts use.
package content

import (
	"encoding/hex"
	"html/template"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/zeebo/blake3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Book is one review.
type Book struct {
	Slug        string        `json:"slug" yaml:"slug"`
	Title       string        `json:"title" yaml:"title"`
	Subtitle    string        `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Author      string        `json:"author,omitempty" yaml:"author,omitempty"`
	Rating      int           `json:"rating,omitempty" yaml:"rating,omitempty"`
	Date        time.Time     `json:"date,omitzero" yaml:"date,omitempty"`
	Cover       string        `json:"cover,omitempty" yaml:"cover,omitempty"`
	Tags        []string      `json:"tags" yaml:"tags"`
	Description string        `json:"description" yaml:"description"`
	Layout      string        `json:"layout" yaml:"layout"`
	Body        template.HTML `json:"-" yaml:"-"`
	SourcePath  string        `json:"source_path" yaml:"source_path"`
	Permalink   string        `json:"permalink" yaml:"permalink"`
}

// HasTag reports whether the book carries tag.
func (b *Book) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Dated reports whether the book has a date.
func (b *Book) Dated() bool {
	return !b.Date.IsZero()
}

// Byline returns the subtitle, falling back to the author.
func (b *Book) Byline() string {
	if b.Subtitle != "" {
		return b.Subtitle
	}
	return b.Author
}

// Slugify lowercases s, strips accents and joins its runs of letters and
// digits with dashes. Letters of any script are kept, so "Война и мир"
// becomes "война-и-мир". The result is empty when s has no letters or
// digits at all.
func Slugify(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			gap = true
			continue
		}
		if gap && b.Len() > 0 {
			b.WriteByte('-')
		}
		gap = false
		b.WriteRune(r)
	}
	return b.String()
}

// FallbackSlug names a book whose title and file name have nothing to
// slugify. It is derived from the source path so rebuilds keep the URL.
func FallbackSlug(path string) string {
	sum := blake3.Sum256([]byte(filepath.ToSlash(path)))
	return "book-" + hex.EncodeToString(sum[:4])
}
