package elements

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/devtether/tether/internal/domain"
)

// NormalizeApple parses an accessibility describe-ui JSON tree into the
// common element schema. The document is either a single root object or an
// array of roots. Traversal and filtering follow the same rules as the
// Android side: pre-order, no subtree pruning, malformed input yields an
// empty sequence.
func NormalizeApple(raw string, assignRefs bool, cfg FilterConfig) []domain.Element {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return nil
	}

	parsed := gjson.Parse(trimmed)
	var roots []gjson.Result
	switch {
	case parsed.IsArray():
		roots = parsed.Array()
	case parsed.IsObject():
		roots = []gjson.Result{parsed}
	default:
		return nil
	}

	var out []domain.Element
	ref := 0
	var walk func(node gjson.Result)
	walk = func(node gjson.Result) {
		if !node.IsObject() {
			return
		}
		if el, keep := buildAppleElement(node, cfg); keep {
			if assignRefs {
				ref++
				el.Ref = fmt.Sprintf("@e%d", ref)
			}
			out = append(out, el)
		}
		node.Get("children").ForEach(func(_, child gjson.Result) bool {
			walk(child)
			return true
		})
	}
	for _, root := range roots {
		walk(root)
	}
	return out
}

// buildAppleElement filters one accessibility node and converts survivors.
// Field names vary between tool versions, so each attribute is read from its
// known aliases.
func buildAppleElement(node gjson.Result, cfg FilterConfig) (domain.Element, bool) {
	elType := node.Get("type").String()
	label := strings.TrimSpace(node.Get("AXLabel").String())
	uniqueID := strings.TrimSpace(node.Get("AXUniqueId").String())
	title := strings.TrimSpace(node.Get("title").String())

	role := node.Get("role").String()
	if role == "" {
		role = node.Get("role_description").String()
	}
	value := strings.TrimSpace(node.Get("value").String())
	if value == "" {
		value = strings.TrimSpace(node.Get("AXValue").String())
	}

	hasContent := label != "" || uniqueID != "" || title != "" || value != ""
	interactive := strings.Contains(elType, "Button") || strings.Contains(role, "Button") ||
		strings.Contains(elType, "TextField") || strings.Contains(elType, "SecureTextField")

	if cfg.NoiseRoles[elType] && !hasContent && !interactive {
		return domain.Element{}, false
	}

	frame := node.Get("frame")
	var x, y, w, h int
	if frame.Exists() {
		x = int(frame.Get("x").Int())
		y = int(frame.Get("y").Int())
		w = int(frame.Get("width").Int())
		h = int(frame.Get("height").Int())
		if w <= 0 || h <= 0 {
			return domain.Element{}, false
		}
	}
	if !hasContent && !interactive {
		return domain.Element{}, false
	}

	el := domain.Element{Type: strings.TrimPrefix(elType, "AX")}
	if label != "" {
		el.Text = label
	}
	if title != "" && title != label {
		el.Title = title
	}
	if uniqueID != "" {
		el.ID = uniqueID
	}
	if value != "" {
		el.Value = value
	}
	if interactive {
		el.Clickable = true
	}
	if v := node.Get("enabled"); v.Exists() && !v.Bool() {
		f := false
		el.Enabled = &f
	}
	if frame.Exists() {
		el.Bounds = FormatBounds(x, y, x+w, y+h)
	}
	return el, true
}
