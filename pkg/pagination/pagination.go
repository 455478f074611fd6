package pagination

const (
	// DefaultPageSize is the standard page size when none is provided.
	DefaultPageSize = 25
	// MaxPageSize caps how many rows any list query can request.
	MaxPageSize = 100
)

// Params holds page-based pagination inputs from controllers or services.
// The document store is queried with simple offset pagination; page numbers
// start at 1.
type Params struct {
	Page     int
	PageSize int
}

// Normalize enforces the configured defaults and maximums.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.PageSize
}

// Limit returns the row limit for the normalized params.
func (p Params) Limit() int {
	return Normalize(p).PageSize
}
