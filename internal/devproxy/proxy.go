// Package devproxy forwards development server requests to upstream APIs.
package devproxy

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/419921017/ph-fe-template/internal/buildconfig"
)

// ErrInvalidRule indicates a proxy rule that cannot be mounted
var ErrInvalidRule = errors.New("invalid proxy rule")

type rewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

// Proxy forwards requests whose path matches its context pattern.
type Proxy struct {
	context      *regexp.Regexp
	target       *url.URL
	changeOrigin bool
	headers      map[string]string
	rewrites     []rewrite
	rp           *httputil.ReverseProxy
}

// New compiles a proxy rule mounted at the context pattern.
func New(context string, rule buildconfig.ProxyRule) (*Proxy, error) {
	ctxRe, err := regexp.Compile(context)
	if err != nil {
		return nil, fmt.Errorf("%w: context %s: %w", ErrInvalidRule, context, err)
	}

	target, err := url.Parse(rule.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: target %s: %w", ErrInvalidRule, rule.Target, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%w: target %s must be an absolute URL", ErrInvalidRule, rule.Target)
	}

	p := &Proxy{
		context:      ctxRe,
		target:       target,
		changeOrigin: rule.ChangeOrigin,
		headers:      rule.Headers,
	}
	for _, rw := range rule.PathRewrite {
		re, err := regexp.Compile(rw.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: rewrite %s: %w", ErrInvalidRule, rw.Pattern, err)
		}
		p.rewrites = append(p.rewrites, rewrite{pattern: re, replacement: rw.Replacement})
	}

	p.rp = &httputil.ReverseProxy{
		Rewrite: p.rewrite,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error().Err(err).Str("path", r.URL.Path).Str("target", p.target.String()).Msg("Proxy error")
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}
	return p, nil
}

// Match reports whether the request path belongs to this proxy.
func (p *Proxy) Match(path string) bool {
	return p.context.MatchString(path)
}

// RewritePath applies the path rewrites in order.
func (p *Proxy) RewritePath(path string) string {
	for _, rw := range p.rewrites {
		path = rw.pattern.ReplaceAllString(path, rw.replacement)
	}
	if path == "" {
		path = "/"
	}
	return path
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.Out.URL.Path = p.RewritePath(pr.In.URL.Path)
	pr.Out.URL.RawPath = ""
	pr.SetURL(p.target)
	pr.SetXForwarded()

	// SetURL points the Host header at the target; keep the browser's host
	// unless the rule asks for the upstream origin.
	if !p.changeOrigin {
		pr.Out.Host = pr.In.Host
	}
	for k, v := range p.headers {
		pr.Out.Header.Set(k, v)
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

// Table is an ordered list of proxies; the first match wins.
type Table []*Proxy

// NewTable compiles every rule of the registry, keeping its order.
func NewTable(rules *buildconfig.Registry[buildconfig.ProxyRule]) (Table, error) {
	var t Table
	for context, rule := range rules.All() {
		p, err := New(context, rule)
		if err != nil {
			return nil, err
		}
		t = append(t, p)
	}
	return t, nil
}

// Lookup returns the first proxy matching path.
func (t Table) Lookup(path string) (*Proxy, bool) {
	for _, p := range t {
		if p.Match(path) {
			return p, true
		}
	}
	return nil, false
}

// Handler routes matching requests to their proxy and everything else to next.
func (t Table) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := t.Lookup(r.URL.Path); ok {
			p.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
