// Package page reads a Datasette table page, extracts the chronicle values
// injected into it and inserts the change banner.
package page

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// DefaultBannerClass is the class the page stylesheet styles the banner with.
const DefaultBannerClass = "chronicle-notification-banner"

// ErrNoInsertionPoint is returned when no strategy accepted the banner.
var ErrNoInsertionPoint = errors.New("no insertion point for banner")

var (
	reMaxVersion = regexp.MustCompile(`(?:window\.)?datasette_chronicle_max_version\s*=\s*(-?\d+)`)
	reDatabase   = regexp.MustCompile(`(?:window\.)?datasette_chronicle_database_name\s*=\s*("(?:[^"\\]|\\.)*")`)
	reTable      = regexp.MustCompile(`(?:window\.)?datasette_chronicle_table_name\s*=\s*("(?:[^"\\]|\\.)*")`)
)

// Document is a parsed HTML page. It is safe for concurrent use.
type Document struct {
	mu         sync.Mutex
	root       *html.Node
	className  string
	strategies []Strategy
	inserted   string
}

// Parse reads an HTML page. An empty className selects DefaultBannerClass;
// nil strategies select the default chain.
func Parse(r io.Reader, className string, strategies []Strategy) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if className == "" {
		className = DefaultBannerClass
	}
	if strategies == nil {
		strategies, err = Strategies(DefaultContainers)
		if err != nil {
			return nil, err
		}
	}
	return &Document{root: root, className: className, strategies: strategies}, nil
}

// ShowBanner inserts a banner element carrying text.
func (d *Document) ShowBanner(text string) error {
	banner := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: d.className}},
	}
	banner.AppendChild(&html.Node{Type: html.TextNode, Data: text})

	d.mu.Lock()
	defer d.mu.Unlock()

	name := apply(d.root, banner, d.strategies)
	if name == "" {
		return ErrNoInsertionPoint
	}
	d.inserted = name
	return nil
}

// InsertedAt returns the name of the strategy that placed the banner, or ""
// when no banner was inserted.
func (d *Document) InsertedAt() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inserted
}

// Render writes the page as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// Globals extracts the chronicle values assigned in inline scripts. Values
// that are not assigned, or not assigned a literal, stay nil.
func (d *Document) Globals() visit.Inputs {
	d.mu.Lock()
	src := inlineScripts(d.root)
	d.mu.Unlock()

	var in visit.Inputs
	if m := reMaxVersion.FindStringSubmatch(src); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			in.MaxVersion = &v
		}
	}
	in.DatabaseName = jsonString(reDatabase, src)
	in.TableName = jsonString(reTable, src)
	return in
}

// AlternateBase returns the database URL derived from the page's
// <link rel="alternate" type="application/json+datasette"> element, or ""
// when the page has no absolute alternate link.
func (d *Document) AlternateBase() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	link := findAlternate(d.root)
	if link == nil {
		return ""
	}
	u, err := url.Parse(attr(link, "href"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	u.Path = path.Dir(u.Path)
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

func findAlternate(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Link &&
		attr(n, "rel") == "alternate" && attr(n, "type") == "application/json+datasette" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findAlternate(c); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func jsonString(re *regexp.Regexp, src string) *string {
	m := re.FindStringSubmatch(src)
	if m == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal([]byte(m[1]), &s); err != nil {
		return nil
	}
	return &s
}

// inlineScripts concatenates the text of every <script> without a src.
func inlineScripts(root *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script && !hasAttr(n, "src") {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
					b.WriteByte('\n')
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String()
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
