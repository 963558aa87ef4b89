// Package pagination normalises listing parameters shared by the mark and attendance listings.
package pagination

import "strings"

// Mode selects how a name filter and a sort order combine.
type Mode int

const (
	// ModeOrthogonal applies the filter and the sort independently.
	ModeOrthogonal Mode = iota
	// ModeLegacy reproduces the two-mode listing: a filtered listing keeps insertion order and an
	// unfiltered listing is sorted as requested.
	ModeLegacy
)

const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// Params carries caller-supplied paging input. Page is 0-based.
type Params struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	Search    string `form:"search"`
	SortOrder string `form:"sort"`
}

// Normalize clamps the page and page size and trims the search string.
func (p Params) Normalize(defaultSize, maxSize int) Params {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if maxSize > 0 && p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

// Skip is the number of rows preceding the page.
func (p Params) Skip() int {
	return p.Page * p.PageSize
}

// Take is the number of rows on the page.
func (p Params) Take() int {
	return p.PageSize
}

// SearchActive reports whether the search string is longer than min characters.
func (p Params) SearchActive(min int) bool {
	return len([]rune(p.Search)) > min
}

// Order resolves the requested direction, defaulting to DESC for empty or unknown values.
func (p Params) Order() string {
	if strings.EqualFold(strings.TrimSpace(p.SortOrder), "asc") {
		return OrderAsc
	}
	return OrderDesc
}

// Plan is the resolved listing strategy consumed by repositories.
type Plan struct {
	// Filter is the lower-cased substring to match, empty when no filter applies.
	Filter string
	// ApplySort is false when rows must be returned in a stable id order instead of by name.
	ApplySort bool
	Order     string
	Offset    int
	Limit     int
}

// Resolve derives the listing strategy for p under mode.
func Resolve(p Params, mode Mode, minSearchLength int) Plan {
	plan := Plan{
		ApplySort: true,
		Order:     p.Order(),
		Offset:    p.Skip(),
		Limit:     p.Take(),
	}
	if p.SearchActive(minSearchLength) {
		plan.Filter = strings.ToLower(p.Search)
		if mode == ModeLegacy {
			plan.ApplySort = false
		}
	}
	return plan
}

// Pattern renders the filter as a LIKE pattern with wildcards escaped.
func (p Plan) Pattern() string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(p.Filter)
	return "%" + escaped + "%"
}

// Filtered reports whether a name filter applies.
func (p Plan) Filtered() bool {
	return p.Filter != ""
}
