package resume

import "fmt"

// Target addresses either a whole section or one element of a
// list-shaped section. The zero value addresses the whole section.
type Target struct {
	isItem bool
	index  int
}

// WholeSection returns a target addressing the entire section value.
func WholeSection() Target {
	return Target{}
}

// ItemAt returns a target addressing the element at index i. Negative
// indices produce an item target that fails validation rather than
// silently degrading to a whole-section target.
func ItemAt(i int) Target {
	return Target{isItem: true, index: i}
}

// IsItem reports whether the target addresses a single list element.
func (t Target) IsItem() bool {
	return t.isItem
}

// Index returns the element index for an item target. It is only
// meaningful when IsItem is true.
func (t Target) Index() int {
	return t.index
}

func (t Target) String() string {
	if t.IsItem() {
		return fmt.Sprintf("item %d", t.Index())
	}
	return "whole section"
}
