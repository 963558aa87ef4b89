package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	p := Params{Page: -2, PageSize: 0, Search: "  budi "}.Normalize(10, 50)
	assert.Equal(t, 0, p.Page)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, "budi", p.Search)

	p = Params{Page: 3, PageSize: 500}.Normalize(10, 50)
	assert.Equal(t, 50, p.PageSize)
	assert.Equal(t, 150, p.Skip())
	assert.Equal(t, 50, p.Take())
}

func TestSkipIsZeroBased(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 0, PageSize: 20}.Skip())
	assert.Equal(t, 40, Params{Page: 2, PageSize: 20}.Skip())
}

func TestSearchActiveNeedsMoreThanMinimum(t *testing.T) {
	assert.False(t, Params{Search: "ab"}.SearchActive(3))
	assert.False(t, Params{Search: "abc"}.SearchActive(3))
	assert.True(t, Params{Search: "abcd"}.SearchActive(3))
	assert.False(t, Params{Search: "ñññ"}.SearchActive(3))
}

func TestOrderDefaultsToDesc(t *testing.T) {
	assert.Equal(t, OrderDesc, Params{}.Order())
	assert.Equal(t, OrderDesc, Params{SortOrder: "sideways"}.Order())
	assert.Equal(t, OrderAsc, Params{SortOrder: "ASC"}.Order())
	assert.Equal(t, OrderDesc, Params{SortOrder: "desc"}.Order())
}

func TestResolveOrthogonal(t *testing.T) {
	short := Resolve(Params{Search: "ani", SortOrder: "asc", PageSize: 10}, ModeOrthogonal, 3)
	assert.False(t, short.Filtered())
	assert.True(t, short.ApplySort)
	assert.Equal(t, OrderAsc, short.Order)

	long := Resolve(Params{Search: "Budiman", SortOrder: "asc", PageSize: 10, Page: 1}, ModeOrthogonal, 3)
	assert.Equal(t, "budiman", long.Filter)
	assert.True(t, long.ApplySort)
	assert.Equal(t, OrderAsc, long.Order)
	assert.Equal(t, 10, long.Offset)
	assert.Equal(t, 10, long.Limit)
}

func TestResolveLegacyDropsSortWhileFiltering(t *testing.T) {
	filtered := Resolve(Params{Search: "Budiman", SortOrder: "asc"}, ModeLegacy, 3)
	assert.True(t, filtered.Filtered())
	assert.False(t, filtered.ApplySort)

	unfiltered := Resolve(Params{Search: "bud", SortOrder: "asc"}, ModeLegacy, 3)
	assert.False(t, unfiltered.Filtered())
	assert.True(t, unfiltered.ApplySort)
	assert.Equal(t, OrderAsc, unfiltered.Order)
}

func TestPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, Plan{Filter: "50%_off"}.Pattern())
}
