package domain

// Element is one on-screen UI node after filtering. Field order is fixed:
// snapshot fingerprints hash the serialized form, so two identical element
// sets must serialize identically.
type Element struct {
	Ref        string `json:"ref,omitempty"`
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	ID         string `json:"id,omitempty"`
	ResourceID string `json:"resourceId,omitempty"`
	Value      string `json:"value,omitempty"`
	Clickable  bool   `json:"clickable,omitempty"`
	Enabled    *bool  `json:"enabled,omitempty"` // present only when false
	Checked    bool   `json:"checked,omitempty"`
	Selected   bool   `json:"selected,omitempty"`
	Scrollable bool   `json:"scrollable,omitempty"`
	Bounds     string `json:"bounds,omitempty"` // "[x1,y1][x2,y2]"
}

// HasContent reports whether the element carries any textual content.
func (e *Element) HasContent() bool {
	return e.Text != "" || e.Name != "" || e.Title != "" || e.ID != "" || e.ResourceID != "" || e.Value != ""
}

// Interactive reports whether the element has at least one interactive flag.
func (e *Element) Interactive() bool {
	return e.Clickable || e.Scrollable
}
