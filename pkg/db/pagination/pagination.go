// Package pagination carries limit/offset page parameters between the HTTP
// layer and repositories.
package pagination

// Page is a limit/offset window over an ordered collection.
type Page struct {
	Limit  int `form:"limit,default=10"`
	Offset int `form:"offset,default=0"`
}

const (
	DefaultLimit = 10
	MaxLimit     = 250
)

// Normalize clamps the page to valid bounds, applying defaults.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
