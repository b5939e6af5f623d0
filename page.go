package datagrid

// PageState describes the page being shown. PerPage zero means unlimited.
type PageState struct {
	Page    int
	PerPage int
	Total   int
}

// PageCount returns the number of pages, at least 1.
func (p PageState) PageCount() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Offset returns the zero-based index of the first record on the page.
func (p PageState) Offset() int {
	if p.PerPage <= 0 || p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// FirstRecord returns the 1-based number of the first record on the page,
// or 0 when there are no records.
func (p PageState) FirstRecord() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Offset() + 1
}

// LastRecord returns the 1-based number of the last record on the page,
// or 0 when there are no records.
func (p PageState) LastRecord() int {
	if p.Total <= 0 {
		return 0
	}
	if p.PerPage <= 0 {
		return p.Total
	}
	return min(p.Page*p.PerPage, p.Total)
}

// Clamp returns p with Page moved into [1, PageCount()].
func (p PageState) Clamp() PageState {
	if p.Page < 1 {
		p.Page = 1
	}
	if n := p.PageCount(); p.Page > n {
		p.Page = n
	}
	return p
}

// HasPrev reports whether a previous page exists.
func (p PageState) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p PageState) HasNext() bool { return p.Page < p.PageCount() }
