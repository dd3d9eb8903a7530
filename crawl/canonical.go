package crawl

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/fwojciec/sitecrawl"
)

// ErrMalformedURL is returned by Normalize when a candidate cannot be
// resolved to an absolute hierarchical URL.
var ErrMalformedURL = errors.New("malformed URL")

// nonHTMLExtensions lists final path segment extensions that are never
// fetched as pages.
var nonHTMLExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "svg": true, "ico": true,
	"css": true, "js": true,
	"woff": true, "woff2": true, "ttf": true, "eot": true,
	"pdf": true, "zip": true, "rar": true, "exe": true,
	"mp3": true, "mp4": true, "avi": true, "mkv": true,
}

// Origin is the scheme, host and port of a crawl's seed URL.
// It is immutable once created.
type Origin struct {
	base *url.URL

	// Domain is the lower-cased hostname used for same-domain filtering.
	Domain string
}

// NewOrigin parses a seed URL and returns its origin.
// Returns EINVALID unless seedURL is an absolute http or https URL with a host.
func NewOrigin(seedURL string) (*Origin, error) {
	u, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid seed URL %q: %v", seedURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid seed URL %q: scheme must be http or https", seedURL)
	}
	if u.Hostname() == "" {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid seed URL %q: missing host", seedURL)
	}

	host := canonicalHost(scheme, u.Host)
	return &Origin{
		base:   &url.URL{Scheme: scheme, Host: host},
		Domain: strings.ToLower(u.Hostname()),
	}, nil
}

// String returns the origin as scheme://host[:port].
func (o *Origin) String() string {
	return o.base.String()
}

// Normalize resolves rawURL against the origin and returns its canonical
// form: fragment and query removed, scheme and host lower-cased, default
// port dropped, and a trailing slash appended when the final path segment
// has no dot. URLs that differ only in those respects map to the same value.
func Normalize(rawURL string, origin *Origin) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}

	u := origin.base.ResolveReference(ref)
	if u.Opaque != "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrMalformedURL, rawURL)
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = ""
	u.ForceQuery = false
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = canonicalHost(u.Scheme, u.Host)

	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	if !strings.HasSuffix(u.Path, "/") && !strings.Contains(lastSegment(u.Path), ".") {
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
	}

	return u.String(), nil
}

// IsCrawlable reports whether a canonical URL should be fetched as a page
// of the crawl: it must be http(s), its hostname must equal domain exactly,
// and its final path segment must not carry a known non-HTML extension.
func IsCrawlable(canonicalURL string, domain string) bool {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Hostname() != domain {
		return false
	}

	seg := lastSegment(u.Path)
	if i := strings.LastIndex(seg, "."); i >= 0 {
		if nonHTMLExtensions[strings.ToLower(seg[i+1:])] {
			return false
		}
	}
	return true
}

// lastSegment returns the part of p after its final slash.
func lastSegment(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}

// canonicalHost lower-cases host and drops the scheme's default port.
func canonicalHost(scheme, host string) string {
	host = strings.ToLower(host)
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}
