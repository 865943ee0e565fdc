package content

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

// frontMatter is the YAML header of a review.
type frontMatter struct {
	Title       string   `yaml:"title"`
	Subtitle    string   `yaml:"subtitle"`
	Author      string   `yaml:"author"`
	Rating      int      `yaml:"rating"`
	Date        string   `yaml:"date"`
	Cover       string   `yaml:"cover"`
	Tags        []string `yaml:"tags"`
	Description string   `yaml:"description"`
	Layout      string   `yaml:"layout"`
	Slug        string   `yaml:"slug"`
}

// splitFrontMatter separates a leading --- delimited block from the body.
// It returns the 1-based line the body starts on. Sources without a header
// are all body.
func splitFrontMatter(source []byte) (header, body []byte, bodyLine int, err error) {
	source = bytes.TrimPrefix(source, []byte("\uFEFF"))
	lines := bytes.SplitAfter(source, []byte("\n"))
	if len(lines) == 0 || strings.TrimRight(string(lines[0]), "\r\n") != frontMatterDelim {
		return nil, source, 1, nil
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(string(lines[i]), "\r\n") == frontMatterDelim {
			header = bytes.Join(lines[1:i], nil)
			body = bytes.Join(lines[i+1:], nil)
			return header, body, i + 2, nil
		}
	}
	return nil, nil, 0, fmt.Errorf("front matter is not closed by %q", frontMatterDelim)
}

func parseFrontMatter(header []byte) (frontMatter, error) {
	var fm frontMatter
	if len(bytes.TrimSpace(header)) == 0 {
		return fm, nil
	}
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return fm, err
	}
	return fm, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate accepts the date forms reviews use. The empty string is the zero
// time.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
