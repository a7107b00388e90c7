package cookiestore

import (
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Cookie is the serializable form of a stored cookie.
type Cookie struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain"`
	Path     string     `json:"path"`
	Expires  *time.Time `json:"expires,omitempty"`
	Secure   bool       `json:"secure,omitempty"`
	HTTPOnly bool       `json:"http_only,omitempty"`
	HostOnly bool       `json:"host_only,omitempty"`
}

func (c Cookie) key() string {
	return c.Domain + ";" + c.Path + ";" + c.Name
}

func (c Cookie) expired(now time.Time) bool {
	return c.Expires != nil && !c.Expires.After(now)
}

func (c Cookie) domainMatch(host string) bool {
	if c.HostOnly {
		return host == c.Domain
	}
	return host == c.Domain || strings.HasSuffix(host, "."+c.Domain)
}

func (c Cookie) pathMatch(path string) bool {
	if path == "" {
		path = "/"
	}
	if c.Path == "/" || path == c.Path {
		return true
	}
	return strings.HasPrefix(path, c.Path) &&
		(strings.HasSuffix(c.Path, "/") || path[len(c.Path)] == '/')
}

// Jar is an http.CookieJar whose contents can be exported and restored.
// The standard library jar cannot enumerate its cookies, which persistence
// requires.
type Jar struct {
	mu      sync.Mutex
	cookies map[string]Cookie
	dirty   bool
	now     func() time.Time
}

// NewJar creates an empty jar.
func NewJar() *Jar {
	return &Jar{
		cookies: make(map[string]Cookie),
		now:     time.Now,
	}
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if u == nil || len(cookies) == 0 {
		return
	}
	host := canonicalHost(u)
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, hc := range cookies {
		c := Cookie{
			Name:     hc.Name,
			Value:    hc.Value,
			Path:     hc.Path,
			Secure:   hc.Secure,
			HTTPOnly: hc.HttpOnly,
		}

		domain := strings.TrimPrefix(strings.ToLower(hc.Domain), ".")
		switch {
		case domain == "":
			c.Domain = host
			c.HostOnly = true
		case isPublicSuffix(domain):
			// A public suffix may only name the host itself.
			if host != domain {
				continue
			}
			c.Domain = host
			c.HostOnly = true
		case host == domain || strings.HasSuffix(host, "."+domain):
			c.Domain = domain
		default:
			// Foreign domain.
			continue
		}

		if c.Path == "" || c.Path[0] != '/' {
			c.Path = defaultPath(u.Path)
		}

		switch {
		case hc.MaxAge < 0:
			delete(j.cookies, c.key())
			j.dirty = true
			continue
		case hc.MaxAge > 0:
			exp := now.Add(time.Duration(hc.MaxAge) * time.Second)
			c.Expires = &exp
		case !hc.Expires.IsZero():
			exp := hc.Expires.UTC()
			c.Expires = &exp
		}

		if c.expired(now) {
			delete(j.cookies, c.key())
		} else {
			j.cookies[c.key()] = c
		}
		j.dirty = true
	}
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	if u == nil {
		return nil
	}
	matched := j.matching(u)
	out := make([]*http.Cookie, 0, len(matched))
	for _, c := range matched {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// Lookup returns the live cookie named name that would be sent to u.
func (j *Jar) Lookup(u *url.URL, name string) (Cookie, bool) {
	for _, c := range j.matching(u) {
		if c.Name == name {
			return c, true
		}
	}
	return Cookie{}, false
}

// matching returns live cookies for u, longest path first.
func (j *Jar) matching(u *url.URL) []Cookie {
	host := canonicalHost(u)
	now := j.now()
	secure := u.Scheme == "https"

	j.mu.Lock()
	defer j.mu.Unlock()

	var out []Cookie
	for k, c := range j.cookies {
		if c.expired(now) {
			delete(j.cookies, k)
			j.dirty = true
			continue
		}
		if !c.domainMatch(host) || !c.pathMatch(u.Path) || (c.Secure && !secure) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if len(out[a].Path) != len(out[b].Path) {
			return len(out[a].Path) > len(out[b].Path)
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// Export returns every live cookie, sorted for stable output.
func (j *Jar) Export() []Cookie {
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		if !c.expired(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].key() < out[b].key() })
	return out
}

// Restore replaces the jar contents. Expired cookies are dropped.
func (j *Jar) Restore(cookies []Cookie) {
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	j.cookies = make(map[string]Cookie, len(cookies))
	for _, c := range cookies {
		if c.Name == "" || c.expired(now) {
			continue
		}
		if c.Path == "" {
			c.Path = "/"
		}
		j.cookies[c.key()] = c
	}
	j.dirty = false
}

// Clear removes every cookie.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies = make(map[string]Cookie)
	j.dirty = true
}

// Len returns the number of stored cookies, including expired ones not yet evicted.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

func (j *Jar) markDirty() {
	j.mu.Lock()
	j.dirty = true
	j.mu.Unlock()
}

// takeDirty reports whether the jar changed since the last call.
func (j *Jar) takeDirty() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	d := j.dirty
	j.dirty = false
	return d
}

func canonicalHost(u *url.URL) string {
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

// isPublicSuffix reports whether domain is a registry suffix such as
// "com" or "co.uk", which no cookie may be scoped to.
func isPublicSuffix(domain string) bool {
	if net.ParseIP(domain) != nil {
		return false
	}
	ps, _ := publicsuffix.PublicSuffix(domain)
	return ps == domain
}

func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
