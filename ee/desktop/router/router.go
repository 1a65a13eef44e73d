// Package router opens application routes in the desktop shell.
package router

import (
	"net/url"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// BrowserRouter navigates by handing baseURL+path to the user's default URL handler, which
// is the application shell when baseURL uses its custom scheme.
type BrowserRouter struct {
	logger  log.Logger
	baseURL string
	open    func(url string) error
}

type Option func(*BrowserRouter)

func WithLogger(logger log.Logger) Option {
	return func(r *BrowserRouter) {
		r.logger = log.With(logger, "component", "router")
	}
}

// WithOpener replaces the OS URL opener.
func WithOpener(open func(url string) error) Option {
	return func(r *BrowserRouter) {
		r.open = open
	}
}

func New(baseURL string, opts ...Option) *BrowserRouter {
	r := &BrowserRouter{
		logger:  log.NewNopLogger(),
		baseURL: strings.TrimRight(baseURL, "/"),
		open:    open,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// URL is the absolute location of path. Each path segment is escaped, so the route
// reaches the shell intact and the result never carries a query or fragment.
func (r *BrowserRouter) URL(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = escapeSegment(segment)
	}

	return r.baseURL + "/" + strings.Join(segments, "/")
}

// escapeSegment is stricter than url.PathEscape, which leaves shell metacharacters
// such as & untouched.
func escapeSegment(segment string) string {
	return strings.ReplaceAll(url.QueryEscape(segment), "+", "%20")
}

// Goto is fire-and-forget; failures are logged.
func (r *BrowserRouter) Goto(path string) {
	target := r.URL(path)
	level.Debug(r.logger).Log("msg", "navigating", "url", target)

	if err := r.open(target); err != nil {
		level.Error(r.logger).Log(
			"msg", "failed to navigate",
			"url", target,
			"err", err)
	}
}
