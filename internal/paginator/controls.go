package paginator

import "strconv"

// ControlKind distinguishes the three sorts of pagination control.
type ControlKind int

const (
	ControlPrevious ControlKind = iota
	ControlPage
	ControlNext
)

// String returns the string representation of the ControlKind
func (k ControlKind) String() string {
	switch k {
	case ControlPrevious:
		return "previous"
	case ControlPage:
		return "page"
	case ControlNext:
		return "next"
	default:
		return "unknown"
	}
}

// Control is a single pagination link. Disabled controls still carry a
// target, clamped to the boundary they sit on, so activating one is a no-op.
type Control struct {
	Kind     ControlKind
	Page     int
	Label    string
	Disabled bool
	Active   bool
}

// Href is the fragment the control links to.
func (c Control) Href() string {
	return FormatFragment(c.Page)
}

// Controls describes the pagination bar for one page of results.
type Controls struct {
	Current  int
	Total    int
	Previous Control
	Pages    []Control
	Next     Control
}

// Empty reports whether no controls should be shown.
func (c Controls) Empty() bool {
	return len(c.Pages) == 0
}

// All returns the controls in display order: previous, pages, next.
func (c Controls) All() []Control {
	if c.Empty() {
		return nil
	}
	all := make([]Control, 0, len(c.Pages)+2)
	all = append(all, c.Previous)
	all = append(all, c.Pages...)
	return append(all, c.Next)
}

// BuildControls lays out the controls for current out of total pages. A
// single page needs no controls.
func BuildControls(current, total int) Controls {
	if total <= 1 {
		return Controls{Current: Clamp(current, total), Total: total}
	}
	current = Clamp(current, total)

	pages := make([]Control, total)
	for i := range pages {
		n := i + 1
		pages[i] = Control{
			Kind:   ControlPage,
			Page:   n,
			Label:  strconv.Itoa(n),
			Active: n == current,
		}
	}

	return Controls{
		Current: current,
		Total:   total,
		Previous: Control{
			Kind:     ControlPrevious,
			Page:     max(1, current-1),
			Label:    "«",
			Disabled: current == 1,
		},
		Pages: pages,
		Next: Control{
			Kind:     ControlNext,
			Page:     min(total, current+1),
			Label:    "»",
			Disabled: current == total,
		},
	}
}
