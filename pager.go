package datagrid

import (
	"fmt"
	"html"
	"io"
	"strings"
)

type pagerOptions struct {
	// Delta is the number of page links shown on each side of the
	// current page.
	Delta      int               `yaml:"delta"`
	PrevLabel  string            `yaml:"prev_label"`
	NextLabel  string            `yaml:"next_label"`
	Separator  string            `yaml:"separator"`
	HideSingle bool              `yaml:"hide_single"`
	BaseURL    string            `yaml:"base_url"`
	ExtraVars  map[string]string `yaml:"extra_vars"`
}

// pagerRenderer renders previous, numbered and next page links. Links
// keep the current sort.
type pagerRenderer struct {
	rendererBase
	opts pagerOptions
}

func newPagerRenderer() *pagerRenderer {
	return &pagerRenderer{
		rendererBase: rendererBase{name: string(PagerRenderer)},
		opts: pagerOptions{
			Delta:      5,
			PrevLabel:  "« Prev",
			NextLabel:  "Next »",
			Separator:  " ",
			HideSingle: true,
		},
	}
}

func (r *pagerRenderer) SetOptions(opts Options) error {
	o := r.opts
	if err := decodeOptions(r.name, opts, &o); err != nil {
		return err
	}
	if o.Delta < 0 {
		return fmt.Errorf("%w: %s option \"delta\" must not be negative, got %d", ErrValidation, r.name, o.Delta)
	}
	r.opts = o
	r.built = false
	return nil
}

func (r *pagerRenderer) Build() error { return r.build(r.write) }

func (r *pagerRenderer) Render(w io.Writer) error {
	if err := r.Build(); err != nil {
		return err
	}
	_, err := w.Write(r.out)
	return err
}

func (r *pagerRenderer) Flatten() (any, error) {
	if err := r.Build(); err != nil {
		return nil, err
	}
	return string(r.out), nil
}

func (r *pagerRenderer) write(w io.Writer) error {
	st := r.page.Clamp()
	pages, current := st.PageCount(), st.Page
	if pages <= 1 && r.opts.HideSingle {
		return nil
	}
	links := r.links(r.opts.BaseURL, r.opts.ExtraVars)

	var parts []string
	if st.HasPrev() {
		parts = append(parts, pageLink(links.href(current-1, r.sort), r.opts.PrevLabel, "prev"))
	}
	first, last := max(1, current-r.opts.Delta), min(pages, current+r.opts.Delta)
	for p := first; p <= last; p++ {
		if p == current {
			parts = append(parts, fmt.Sprintf(`<span class="current">%d</span>`, p))
			continue
		}
		parts = append(parts, pageLink(links.href(p, r.sort), fmt.Sprint(p), ""))
	}
	if st.HasNext() {
		parts = append(parts, pageLink(links.href(current+1, r.sort), r.opts.NextLabel, "next"))
	}
	_, err := fmt.Fprintf(w, "<div class=\"pager\">%s</div>\n", strings.Join(parts, r.opts.Separator))
	return err
}

func pageLink(href, label, class string) string {
	if class != "" {
		class = fmt.Sprintf(` class="%s"`, class)
	}
	return fmt.Sprintf(`<a href="%s"%s>%s</a>`, html.EscapeString(href), class, html.EscapeString(label))
}
