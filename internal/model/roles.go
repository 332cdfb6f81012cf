package model

// RoleMap maps raw accessibility role names (macOS AX* values) to compact
// role codes. Platform providers apply this before handing trees to the core.
var RoleMap = map[string]string{
	"AXButton":      "btn",
	"AXStaticText":  "txt",
	"AXLink":        "lnk",
	"AXImage":       "img",
	"AXTextField":   "input",
	"AXTextArea":    "input",
	"AXCheckBox":    "chk",
	"AXSwitch":      "toggle",
	"AXRadioButton": "radio",
	"AXMenu":        "menu",
	"AXMenuBar":     "menu",
	"AXMenuItem":    "menuitem",
	"AXTabGroup":    "tab",
	"AXList":        "list",
	"AXTable":       "list",
	"AXRow":         "row",
	"AXCell":        "cell",
	"AXGroup":       "group",
	"AXSplitGroup":  "group",
	"AXScrollArea":  "scroll",
	"AXToolbar":     "toolbar",
	"AXWebArea":     "web",
	"AXWindow":      "window",
}

// MetaRoles maps meta-role names to the concrete roles they expand to.
// "interactive" is the default search role set: everything a user could
// plausibly click or type into, including web-app fields that browsers
// expose as "other".
var MetaRoles = map[string][]string{
	"interactive": {"btn", "lnk", "input", "chk", "toggle", "radio", "menuitem", "tab", "cell", "other"},
}

// staticRoles are display-only roles excluded from interactive searches.
var staticRoles = map[string]bool{
	"txt":   true,
	"img":   true,
	"group": true,
}

// IsStaticRole reports whether the role is display-only.
func IsStaticRole(role string) bool {
	return staticRoles[role]
}

// ExpandRoles expands any meta-roles in the given list to their concrete
// roles. Non-meta roles are passed through unchanged. Duplicates are removed.
// An empty input expands to the "interactive" set, so callers never search
// with an empty role set by accident.
func ExpandRoles(roles []string) []string {
	if len(roles) == 0 {
		roles = []string{"interactive"}
	}
	seen := make(map[string]bool, len(roles))
	var expanded []string
	for _, r := range roles {
		if concrete, ok := MetaRoles[r]; ok {
			for _, c := range concrete {
				if !seen[c] {
					seen[c] = true
					expanded = append(expanded, c)
				}
			}
		} else if !seen[r] {
			seen[r] = true
			expanded = append(expanded, r)
		}
	}
	return expanded
}

// MapRole converts a raw accessibility role to a compact code.
func MapRole(axRole string) string {
	if short, ok := RoleMap[axRole]; ok {
		return short
	}
	return "other"
}
