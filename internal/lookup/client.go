package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"booklookup/internal/config"
	"booklookup/internal/logger"
	"booklookup/internal/metrics"
	"booklookup/internal/middleware"
)

// Metric labels for the two remote endpoints.
const (
	EndpointSearch = "books_search"
	EndpointAuthor = "authors_get"
)

// Client talks to the remote book/author API.
type Client struct {
	cfg       config.APIConfig
	client    *http.Client
	log       *logrus.Logger
	limiter   *rate.Limiter
	policy    *bluemonday.Policy
	searchURL string
}

func New(cfg config.APIConfig, log *logrus.Logger) (*Client, error) {
	searchURL, err := url.JoinPath(cfg.BaseURL, "books", "search")
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}

	c := &Client{
		cfg:       cfg,
		log:       log,
		client:    newHTTPClient(log),
		searchURL: searchURL,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	if cfg.StripHTML {
		c.policy = bluemonday.StrictPolicy()
	}
	return c, nil
}

func newHTTPClient(log *logrus.Logger) *http.Client {
	t := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
		ForceAttemptHTTP2: true,
	}
	// per-request timeouts come from the context, see DoJSON
	return &http.Client{Transport: middleware.Transport(t, log, endpointLabel)}
}

func endpointLabel(r *http.Request) string {
	switch p := r.URL.Path; {
	case strings.HasSuffix(p, "/books/search"):
		return EndpointSearch
	case strings.Contains(p, "/authors/"):
		return EndpointAuthor
	}
	return "other"
}

func (c *Client) SearchURL() string { return c.searchURL }

func (c *Client) AuthorURL(id int) string {
	u, _ := url.JoinPath(c.cfg.BaseURL, "authors", strconv.Itoa(id))
	return u
}

// SearchBookByTitle posts title verbatim to the search endpoint. Every failure
// matches ErrBookNotFound; use KindOf to tell the causes apart.
func (c *Client) SearchBookByTitle(ctx context.Context, title string) (*BookRecord, error) {
	defer logger.Track(ctx, "lookup: book search")()

	var book BookRecord
	if err := c.call(ctx, OpSearchBook, http.MethodPost, c.searchURL, searchRequest{Title: title}, &book); err != nil {
		c.entry(ctx).WithError(err).WithField("title", title).Debug("book.search.failed")
		return nil, err
	}
	if book.AuthorIDs == nil {
		book.AuthorIDs = []int{}
	}
	book.Title = stripControl(book.Title)
	book.Description = c.cleanText(book.Description)
	return &book, nil
}

// FetchAuthor resolves one author ID.
func (c *Client) FetchAuthor(ctx context.Context, id int) (*AuthorRecord, error) {
	var a AuthorRecord
	if err := c.call(ctx, OpFetchAuthor, http.MethodGet, c.AuthorURL(id), nil, &a); err != nil {
		return nil, err
	}
	a.FirstName = stripControl(a.FirstName)
	a.MiddleInitial = stripControl(a.MiddleInitial)
	a.LastName = stripControl(a.LastName)
	return &a, nil
}

// FetchAuthorNames resolves ids one after another and returns their display
// names in the same order. An author whose fetch fails is left out and
// reported through *AuthorFetchError; the names slice is valid either way.
// A cancelled ctx stops the batch and returns ctx.Err().
func (c *Client) FetchAuthorNames(ctx context.Context, ids []int) ([]string, error) {
	defer logger.Track(ctx, "lookup: author names")()

	names := make([]string, 0, len(ids))
	var failures []AuthorFailure
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return names, err
		}
		a, err := c.FetchAuthor(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return names, ctx.Err()
			}
			c.entry(ctx).WithError(err).WithField("author_id", id).Warn("author.fetch.failed, skipping")
			metrics.AuthorsSkipped.Inc()
			failures = append(failures, AuthorFailure{ID: id, Err: err})
			continue
		}
		names = append(names, a.DisplayName())
	}
	if len(failures) > 0 {
		return names, &AuthorFetchError{Failures: failures}
	}
	return names, nil
}

// DoJSON sends payload (if any) as JSON and returns the charset-decoded body
// and status code. It does not interpret the status.
func (c *Client) DoJSON(ctx context.Context, method, target string, payload any) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("rate limit: %w", err)
		}
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("upstream do: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(charsetReader(res.Header.Get("Content-Type"), res.Body))
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return data, res.StatusCode, nil
}

func (c *Client) call(ctx context.Context, op Op, method, target string, payload, out any) error {
	data, code, err := c.DoJSON(ctx, method, target, payload)
	if err != nil {
		return &LookupError{Op: op, Kind: KindTransport, Status: code, Err: err}
	}
	switch {
	case code == http.StatusNotFound:
		return &LookupError{Op: op, Kind: KindNoMatch, Status: code, Err: errors.New(snippet(data))}
	case code < 200 || code >= 300:
		return &LookupError{Op: op, Kind: KindStatus, Status: code, Err: errors.New(snippet(data))}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &LookupError{Op: op, Kind: KindDecode, Status: code, Err: err}
	}
	return nil
}

// cleanText removes terminal control sequences and, with api.strip_html,
// HTML markup. Plain text like "a<b" survives unless strip_html is on.
func (c *Client) cleanText(s string) string {
	if c.policy != nil {
		s = html.UnescapeString(c.policy.Sanitize(s))
	}
	return stripControl(s)
}

// stripControl drops control characters (ESC included) except newline and tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, s)
}

func (c *Client) entry(ctx context.Context) *logrus.Entry {
	e := logrus.NewEntry(c.log)
	if id := logger.RequestID(ctx); id != "" {
		e = e.WithField("request_id", id)
	}
	return e
}

// charsetReader decodes non-UTF-8 bodies using the charset from Content-Type.
// Unknown charsets are passed through untouched.
func charsetReader(contentType string, r io.Reader) io.Reader {
	if contentType == "" {
		return r
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r
	}
	cs := params["charset"]
	if cs == "" || strings.EqualFold(cs, "utf-8") || strings.EqualFold(cs, "utf8") {
		return r
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		return r
	}
	return enc.NewDecoder().Reader(r)
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "empty body"
	}
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
