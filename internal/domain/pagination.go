package domain

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page selects a window of a list, 1-based
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page into valid bounds
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Limit
}

// ListResult is one page of items plus the total matching count
type ListResult[T any] struct {
	Items []T
	Total int
	Page  Page
}
