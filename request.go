package datagrid

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
)

// Request carries the parameter maps a grid reads its paging and sorting
// state from. Values are looked up per key in POST, GET, cookie order.
type Request struct {
	Post   url.Values
	Get    url.Values
	Cookie url.Values
}

// RequestFromHTTP collects the form, query and cookie values of r.
func RequestFromHTTP(r *http.Request) Request {
	req := Request{Get: r.URL.Query(), Cookie: url.Values{}}
	if err := r.ParseForm(); err == nil {
		req.Post = r.PostForm
	}
	for _, c := range r.Cookies() {
		req.Cookie.Add(c.Name, c.Value)
	}
	return req
}

// Lookup returns the values of key from the first map that has it.
func (r Request) Lookup(key string) ([]string, bool) {
	for _, m := range []url.Values{r.Post, r.Get, r.Cookie} {
		if v, ok := m[key]; ok && len(v) > 0 {
			return v, true
		}
	}
	return nil, false
}

// RequestState is the paging and sorting state decoded from a request.
type RequestState struct {
	Page    int
	Sort    SortSpec
	HasPage bool
	HasSort bool
}

type requestParams struct {
	Page      int      `schema:"page"`
	OrderBy   []string `schema:"orderBy"`
	Direction []string `schema:"direction"`
}

var requestDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// ParseRequest decodes the page, orderBy and direction parameters, each
// name preceded by prefix. Repeated orderBy values give a multi-field
// sort, paired with direction values by position. A missing or invalid
// direction means ascending. A page that is not a number is ignored.
func ParseRequest(r Request, prefix string) RequestState {
	values := url.Values{}
	for _, key := range []string{"page", "orderBy", "direction"} {
		if v, ok := r.Lookup(prefix + key); ok {
			values[key] = v
		}
	}

	var p requestParams
	err := requestDecoder.Decode(&p, values)
	var st RequestState
	if _, ok := values["page"]; ok {
		st.HasPage = true
		var multi schema.MultiError
		if errors.As(err, &multi) {
			if _, bad := multi["page"]; bad {
				st.HasPage = false
			}
		}
		if st.HasPage {
			st.Page = p.Page
		}
	}

	for i, field := range p.OrderBy {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		dir := Ascending
		if i < len(p.Direction) {
			if d, err := ParseDirection(p.Direction[i]); err == nil {
				dir = d
			}
		}
		st.Sort = st.Sort.With(field, dir)
	}
	st.HasSort = len(st.Sort) > 0
	return st
}
