package elements

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/devtether/tether/internal/domain"
)

// androidNode is one node of the uiautomator dump hierarchy.
type androidNode struct {
	class      string
	text       string
	desc       string
	resourceID string
	bounds     string
	enabled    bool
	clickable  bool
	focusable  bool
	checked    bool
	selected   bool
	scrollable bool
	displayed  bool
	children   []*androidNode
}

// NormalizeAndroid parses a uiautomator XML dump into the common element
// schema. Traversal is pre-order and filtering never prunes subtrees: a
// skipped container's children are still visited and may be kept. Malformed
// input yields an empty sequence.
func NormalizeAndroid(raw string, assignRefs bool, cfg FilterConfig) []domain.Element {
	roots, err := parseHierarchy(raw)
	if err != nil {
		return nil
	}

	var out []domain.Element
	ref := 0
	var walk func(n *androidNode)
	walk = func(n *androidNode) {
		if el, keep := buildAndroidElement(n, cfg); keep {
			if assignRefs {
				ref++
				el.Ref = fmt.Sprintf("@e%d", ref)
			}
			out = append(out, el)
		}
		for _, child := range n.children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return out
}

// parseHierarchy decodes the XML into a node tree. Both dump formats are
// supported: <node class="..."> elements and class names used as tags.
func parseHierarchy(raw string) ([]*androidNode, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))

	var roots []*androidNode
	var stack []*androidNode

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "hierarchy" {
				continue
			}
			n := &androidNode{class: t.Name.Local, enabled: true, displayed: true}
			for _, attr := range t.Attr {
				switch attr.Name.Local {
				case "class":
					n.class = attr.Value
				case "text":
					n.text = attr.Value
				case "content-desc":
					n.desc = attr.Value
				case "resource-id":
					n.resourceID = attr.Value
				case "bounds":
					n.bounds = attr.Value
				case "enabled":
					n.enabled = attr.Value == "true"
				case "clickable":
					n.clickable = attr.Value == "true"
				case "focusable":
					n.focusable = attr.Value == "true"
				case "checked":
					n.checked = attr.Value == "true"
				case "selected":
					n.selected = attr.Value == "true"
				case "scrollable":
					n.scrollable = attr.Value == "true"
				case "displayed":
					n.displayed = attr.Value != "false"
				}
			}
			if len(stack) == 0 {
				roots = append(roots, n)
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			if t.Name.Local == "hierarchy" {
				continue
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("truncated hierarchy: %d unclosed elements", len(stack))
	}
	return roots, nil
}

// buildAndroidElement applies both filter stages and converts a surviving
// node to an Element.
func buildAndroidElement(n *androidNode, cfg FilterConfig) (domain.Element, bool) {
	hasContent := n.text != "" || n.desc != "" || n.resourceID != ""
	interactive := n.clickable || n.scrollable

	// Stage 1: class-based noise filter.
	if cfg.NoiseClasses[n.class] && !hasContent && !interactive {
		return domain.Element{}, false
	}

	// Stage 2: attribute-based filters.
	if cfg.SystemResourceIDs[n.resourceID] {
		return domain.Element{}, false
	}
	if !n.displayed {
		return domain.Element{}, false
	}
	x1, y1, x2, y2, boundsOK := ParseBounds(n.bounds)
	if boundsOK && (x2 <= x1 || y2 <= y1) {
		return domain.Element{}, false
	}
	if !hasContent && !interactive {
		return domain.Element{}, false
	}

	el := domain.Element{Type: shortClass(n.class)}

	// Compound widgets expose a composed name; simple ones keep plain text.
	name, parts := composeName(n)
	if parts > 1 && name != n.text {
		el.Name = name
	} else if n.text != "" {
		el.Text = n.text
	}

	if n.desc != "" {
		el.ID = n.desc
	}
	if n.resourceID != "" {
		el.ResourceID = n.resourceID
	}
	if n.clickable {
		el.Clickable = true
	}
	if !n.enabled {
		f := false
		el.Enabled = &f
	}
	if n.checked {
		el.Checked = true
	}
	if n.selected {
		el.Selected = true
	}
	if n.scrollable {
		el.Scrollable = true
	}
	if boundsOK {
		el.Bounds = FormatBounds(x1, y1, x2, y2)
	}
	return el, true
}

// composeName joins the node's text with descendant texts in document order,
// skipping duplicates. Clickable descendants are independent actionable
// elements, not part of this node's label, so their subtrees are not
// descended into. Returns the joined string and the number of parts.
func composeName(n *androidNode) (string, int) {
	var parts []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			parts = append(parts, s)
		}
	}

	add(n.text)
	var collect func(*androidNode)
	collect = func(node *androidNode) {
		for _, child := range node.children {
			if child.clickable {
				continue
			}
			add(child.text)
			collect(child)
		}
	}
	collect(n)

	return strings.Join(parts, " | "), len(parts)
}

func shortClass(class string) string {
	if i := strings.LastIndex(class, "."); i >= 0 {
		return class[i+1:]
	}
	return class
}
