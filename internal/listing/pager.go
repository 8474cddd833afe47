// Package listing holds the UI-independent state behind the paginated,
// filterable lists: query state, load bookkeeping and delete confirmation.
package listing

// Pager tracks the current page. TotalPages comes from the last response.
type Pager struct {
	Page       int
	Limit      int
	TotalPages int
}

func NewPager(limit int) Pager {
	return Pager{Page: 1, Limit: limit, TotalPages: 1}
}

func (p *Pager) Reset() {
	p.Page = 1
}

// SetLimit changes the page size and returns to page 1. Non-positive
// limits are ignored.
func (p *Pager) SetLimit(limit int) {
	if limit <= 0 {
		return
	}
	p.Limit = limit
	p.Reset()
}

// SetTotal records the server's page count and pulls Page back in range.
func (p *Pager) SetTotal(total int) {
	if total < 1 {
		total = 1
	}
	p.TotalPages = total
	if p.Page > total {
		p.Page = total
	}
}

// Next advances one page. It reports false at the last page.
func (p *Pager) Next() bool {
	if p.Page >= p.TotalPages {
		return false
	}
	p.Page++
	return true
}

// Prev goes back one page. It reports false at page 1.
func (p *Pager) Prev() bool {
	if p.Page <= 1 {
		return false
	}
	p.Page--
	return true
}
