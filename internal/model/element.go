package model

// Element represents a UI element in the accessibility tree. Elements are
// ephemeral: each snapshot rebuilds the tree, and IDs are only stable within
// a single snapshot.
type Element struct {
	ID          int       `json:"i"`           // Sequential integer ID
	Role        string    `json:"r"`           // Abbreviated role code
	Title       string    `json:"t,omitempty"` // Visible label / title
	Value       string    `json:"v,omitempty"` // Current value
	Description string    `json:"d,omitempty"` // Accessibility description
	Bounds      [4]int    `json:"b"`           // [x, y, width, height]
	Focused     bool      `json:"f,omitempty"` // Has keyboard focus
	Enabled     *bool     `json:"e,omitempty"` // nil or true = enabled (omit); false = disabled (include)
	App         string    `json:"app,omitempty"`
	Children    []Element `json:"c,omitempty"` // Child elements
	Actions     []string  `json:"a,omitempty"` // Available actions
}

// Center returns the element's bounding-box center in screen coordinates.
func (e *Element) Center() (x, y int) {
	return e.Bounds[0] + e.Bounds[2]/2, e.Bounds[1] + e.Bounds[3]/2
}

// IsEnabled reports whether the element accepts interaction. A nil Enabled
// pointer means the provider omitted the attribute, which is treated as
// enabled.
func (e *Element) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// Walk visits every element in the tree depth-first, passing the tree depth
// of each node (roots are depth 0). Returning false from fn stops the walk.
func Walk(elements []Element, fn func(el *Element, depth int) bool) {
	walk(elements, 0, fn)
}

func walk(elements []Element, depth int, fn func(el *Element, depth int) bool) bool {
	for i := range elements {
		if !fn(&elements[i], depth) {
			return false
		}
		if !walk(elements[i].Children, depth+1, fn) {
			return false
		}
	}
	return true
}

// FindByID searches the element tree recursively for an element with the given ID.
func FindByID(elements []Element, id int) *Element {
	for i := range elements {
		if elements[i].ID == id {
			return &elements[i]
		}
		if found := FindByID(elements[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}
