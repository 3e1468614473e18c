// Package diagnose checks that the remote book API still honours the contract
// the shell relies on.
package diagnose

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/xeipuuv/gojsonschema"
)

// API is the raw access the checks need; *lookup.Client provides it.
type API interface {
	DoJSON(ctx context.Context, method, target string, payload any) ([]byte, int, error)
	SearchURL() string
	AuthorURL(id int) string
}

type Check struct {
	Name   string
	OK     bool
	Detail string
}

type Report struct {
	Checks []Check
}

func (r *Report) add(name string, err error, detail string) {
	c := Check{Name: name, OK: err == nil, Detail: detail}
	if err != nil {
		c.Detail = err.Error()
	}
	r.Checks = append(r.Checks, c)
}

func (r *Report) Failed() int {
	n := 0
	for _, c := range r.Checks {
		if !c.OK {
			n++
		}
	}
	return n
}

// WriteTo prints one line per check followed by a summary.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, c := range r.Checks {
		mark := "✅ PASS"
		if !c.OK {
			mark = "❌ FAIL"
		}
		fmt.Fprintf(&b, "%s %-28s %s\n", mark, c.Name, c.Detail)
	}
	fmt.Fprintf(&b, "\n%d/%d checks passed\n", len(r.Checks)-r.Failed(), len(r.Checks))
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

type Checker struct {
	API API
	// Progress receives the author check progress bar; nil hides it.
	Progress io.Writer

	book   *gojsonschema.Schema
	author *gojsonschema.Schema
}

func NewChecker(api API, progress io.Writer) (*Checker, error) {
	book, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(bookSchema))
	if err != nil {
		return nil, fmt.Errorf("book schema: %w", err)
	}
	author, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(authorSchema))
	if err != nil {
		return nil, fmt.Errorf("author schema: %w", err)
	}
	return &Checker{API: api, Progress: progress, book: book, author: author}, nil
}

// Run searches title and then checks author IDs 1..authors, or the IDs the
// search returned when authors is 0.
func (p *Checker) Run(ctx context.Context, title string, authors int) *Report {
	rep := &Report{}

	ids, err := p.checkSearch(ctx, title)
	rep.add(fmt.Sprintf("search %q", title), err, fmt.Sprintf("%d author id(s)", len(ids)))

	if authors > 0 {
		ids = make([]int, authors)
		for i := range ids {
			ids[i] = i + 1
		}
	}
	if len(ids) == 0 {
		return rep
	}

	bar := p.newBar(len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			rep.add("authors", ctx.Err(), "")
			break
		}
		name, err := p.checkAuthor(ctx, id)
		rep.add(fmt.Sprintf("author %d", id), err, name)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return rep
}

func (p *Checker) newBar(n int) *progressbar.ProgressBar {
	if p.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(p.Progress),
		progressbar.OptionSetDescription("probing authors"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *Checker) checkSearch(ctx context.Context, title string) ([]int, error) {
	data, err := p.fetch(ctx, http.MethodPost, p.API.SearchURL(), map[string]string{"title": title})
	if err != nil {
		return nil, err
	}
	if err := validate(p.book, data); err != nil {
		return nil, err
	}
	var doc struct {
		Authors []int `json:"authors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Authors, nil
}

func (p *Checker) checkAuthor(ctx context.Context, id int) (string, error) {
	data, err := p.fetch(ctx, http.MethodGet, p.API.AuthorURL(id), nil)
	if err != nil {
		return "", err
	}
	if err := validate(p.author, data); err != nil {
		return "", err
	}
	var doc struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	_ = json.Unmarshal(data, &doc)
	return doc.FirstName + " " + doc.LastName, nil
}

func (p *Checker) fetch(ctx context.Context, method, target string, payload any) ([]byte, error) {
	data, code, err := p.API.DoJSON(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}
	if code < 200 || code >= 300 {
		return nil, fmt.Errorf("HTTP %d", code)
	}
	return data, nil
}

func validate(s *gojsonschema.Schema, data []byte) error {
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("not json: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema: %s", strings.Join(msgs, "; "))
}
