package datagrid_test

import (
	"testing"

	"github.com/bjaus/datagrid"
	"github.com/stretchr/testify/assert"
)

func TestPageState(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		state     datagrid.PageState
		pageCount int
		first     int
		last      int
		offset    int
	}{
		"empty":        {state: datagrid.PageState{Page: 1, PerPage: 10}, pageCount: 1, first: 0, last: 0, offset: 0},
		"unlimited":    {state: datagrid.PageState{Page: 1, Total: 42}, pageCount: 1, first: 1, last: 42, offset: 0},
		"exact":        {state: datagrid.PageState{Page: 2, PerPage: 10, Total: 20}, pageCount: 2, first: 11, last: 20, offset: 10},
		"partial last": {state: datagrid.PageState{Page: 3, PerPage: 10, Total: 25}, pageCount: 3, first: 21, last: 25, offset: 20},
		"single":       {state: datagrid.PageState{Page: 1, PerPage: 10, Total: 1}, pageCount: 1, first: 1, last: 1, offset: 0},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.pageCount, tt.state.PageCount())
			assert.Equal(t, tt.first, tt.state.FirstRecord())
			assert.Equal(t, tt.last, tt.state.LastRecord())
			assert.Equal(t, tt.offset, tt.state.Offset())
		})
	}
}

func TestPageStateClamp(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		page int
		want int
	}{
		"below":  {page: -3, want: 1},
		"zero":   {page: 0, want: 1},
		"inside": {page: 2, want: 2},
		"beyond": {page: 9, want: 3},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			st := datagrid.PageState{Page: tt.page, PerPage: 10, Total: 25}.Clamp()
			assert.Equal(t, tt.want, st.Page)
		})
	}
}

func TestPageStatePrevNext(t *testing.T) {
	t.Parallel()
	st := datagrid.PageState{Page: 1, PerPage: 10, Total: 25}
	assert.False(t, st.HasPrev())
	assert.True(t, st.HasNext())
	st.Page = 3
	assert.True(t, st.HasPrev())
	assert.False(t, st.HasNext())
}
