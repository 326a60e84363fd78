package page

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Placement says where a banner goes inside a strategy's target.
type Placement int

const (
	// FirstChild inserts before the target's first child. A target with no
	// children does not qualify.
	FirstChild Placement = iota
	// LastChild appends to the target.
	LastChild
)

// Strategy is one candidate insertion point for the banner.
type Strategy struct {
	Name      string
	Target    func(root *html.Node) *html.Node
	Placement Placement
	// Container marks a content container. Only the first container present
	// in the page is considered; when it is empty the body fallbacks follow.
	Container bool
}

// DefaultContainers are the Datasette content containers tried first.
var DefaultContainers = []string{
	".table-wrapper",
	`div[role="main"]`,
	"#main-content",
}

// ContainerStrategy targets the first element matching selector.
func ContainerStrategy(selector string) (Strategy, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return Strategy{}, fmt.Errorf("parse selector %q: %w", selector, err)
	}
	return Strategy{
		Name:      selector,
		Target:    func(root *html.Node) *html.Node { return cascadia.Query(root, sel) },
		Placement: FirstChild,
		Container: true,
	}, nil
}

// BodyPrepend inserts at the top of <body> when it already has content.
var BodyPrepend = Strategy{Name: "body:prepend", Target: findBody, Placement: FirstChild}

// BodyAppend appends to <body>.
var BodyAppend = Strategy{Name: "body:append", Target: findBody, Placement: LastChild}

// Strategies builds the full ordered chain: the container selectors in
// order, then the two body fallbacks.
func Strategies(containers []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(containers)+2)
	for _, c := range containers {
		s, err := ContainerStrategy(c)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return append(out, BodyPrepend, BodyAppend), nil
}

// apply inserts node according to the first qualifying strategy and returns
// its name, or "" when none qualified.
func apply(root, node *html.Node, strategies []Strategy) string {
	containerSeen := false
	for _, s := range strategies {
		if s.Container && containerSeen {
			continue
		}
		target := s.Target(root)
		if target == nil {
			continue
		}
		if s.Container {
			containerSeen = true
		}
		switch s.Placement {
		case FirstChild:
			if target.FirstChild == nil {
				continue
			}
			target.InsertBefore(node, target.FirstChild)
		case LastChild:
			target.AppendChild(node)
		}
		return s.Name
	}
	return ""
}

func findBody(root *html.Node) *html.Node {
	return findElement(root, atom.Body)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
