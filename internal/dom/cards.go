// Package dom reads the book cards back out of a rendered index page.
package dom

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/conneroisu/bookshelf/internal/paginator"
	"github.com/conneroisu/bookshelf/internal/views"
)

// ErrNoContainer means the page has no element with the container id. Hosts
// treat it as "nothing to paginate" and stop quietly.
var ErrNoContainer = errors.New("item container not found")

// Card is one article inside the container.
type Card struct {
	Index       int    `json:"index" yaml:"index"`
	Title       string `json:"title" yaml:"title"`
	Subtitle    string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Href        string `json:"href,omitempty" yaml:"href,omitempty"`
}

// Page is what ParseCards found.
type Page struct {
	Cards []Card
	// PageSize is the container's data-page-size, or 0.
	PageSize      int
	HasSearch     bool
	HasControls   bool
	HasEmptyState bool
}

// CardFields is the paginator.Extractor for cards.
func CardFields(c Card) paginator.Fields {
	return paginator.Fields{
		Title:       c.Title,
		Subtitle:    c.Subtitle,
		Description: c.Description,
	}
}

// ParseCards parses an HTML document and collects every article under the
// container named by ids.Container, in document order.
func ParseCards(r io.Reader, ids views.ElementIDs) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	container := findByID(doc, ids.Container)
	if container == nil {
		return nil, ErrNoContainer
	}

	page := &Page{
		HasSearch:     findByID(doc, ids.Search) != nil,
		HasControls:   findByID(doc, ids.Controls) != nil,
		HasEmptyState: findByID(doc, ids.EmptyState) != nil,
	}
	if size, err := strconv.Atoi(attr(container, views.PageSizeAttr)); err == nil && size > 0 {
		page.PageSize = size
	}

	walk(container, func(n *html.Node) bool {
		if n == container || !isElement(n, "article") {
			return true
		}
		page.Cards = append(page.Cards, Card{
			Index:       len(page.Cards),
			Title:       textOf(findByClass(n, views.ClassTitle)),
			Subtitle:    textOf(findByClass(n, views.ClassSubtitle)),
			Description: textOf(findByClass(n, views.ClassDescription)),
			Href:        attr(findElement(n, "a"), "href"),
		})
		return false
	})

	return page, nil
}

// walk visits n and its descendants depth first. fn returning false skips
// the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func find(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func findByID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	return find(root, func(n *html.Node) bool { return attr(n, "id") == id })
}

func findByClass(root *html.Node, class string) *html.Node {
	return find(root, func(n *html.Node) bool {
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	})
}

func findElement(root *html.Node, tag string) *html.Node {
	return find(root, func(n *html.Node) bool { return n.Data == tag })
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textOf returns the whitespace-collapsed text content of n.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
