package model

import "strings"

// isDisplayElement returns true if the element is read-only display text
// (role "txt" with a value and no "press" action).
func isDisplayElement(el *Element) bool {
	if el.Role != "txt" || (el.Value == "" && el.Title == "") {
		return false
	}
	for _, a := range el.Actions {
		if a == "press" {
			return false
		}
	}
	return true
}

// CollectDisplayText gathers the visible text of all display elements in the
// tree, capped at max entries (0 = unlimited). Used to give the reasoning
// model on-screen context when answering questions.
func CollectDisplayText(elements []Element, max int) []string {
	var lines []string
	Walk(elements, func(el *Element, _ int) bool {
		if !isDisplayElement(el) {
			return true
		}
		text := el.Value
		if text == "" {
			text = el.Title
		}
		text = strings.TrimSpace(text)
		if text != "" {
			lines = append(lines, text)
		}
		return max == 0 || len(lines) < max
	})
	return lines
}
