package views

// ElementIDs are the ids of the page elements the paginator binds to.
type ElementIDs struct {
	Container  string `mapstructure:"container" yaml:"container" json:"container"`
	Controls   string `mapstructure:"controls" yaml:"controls" json:"controls"`
	EmptyState string `mapstructure:"empty_state" yaml:"empty_state" json:"empty_state"`
	Search     string `mapstructure:"search" yaml:"search" json:"search"`
}

// DefaultIDs returns the element ids used by the default layouts.
func DefaultIDs() ElementIDs {
	return ElementIDs{
		Container:  "books-grid",
		Controls:   "pagination",
		EmptyState: "no-results",
		Search:     "book-search",
	}
}

// Card class names inside the container.
const (
	ClassTitle       = "card-title"
	ClassSubtitle    = "card-subtitle"
	ClassDescription = "card-text"
)

// PageSizeAttr carries the page size on the container element.
const PageSizeAttr = "data-page-size"
