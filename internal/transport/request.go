package transport

import (
	"maps"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// Request describes one platform API call. Build it with NewRequest and
// the chainable setters, then pass it to Client.Do.
type Request struct {
	method   string
	resource string
	params   map[string]string
	absURL   string
	query    url.Values
	data     map[string]any
	signed   bool
	uuid     string
}

// NewRequest creates a request for a named resource.
func NewRequest(method, resource string) *Request {
	return &Request{
		method:   method,
		resource: resource,
		params:   make(map[string]string),
		query:    url.Values{},
		data:     make(map[string]any),
	}
}

// Get is shorthand for NewRequest(http.MethodGet, resource).
func Get(resource string) *Request { return NewRequest(http.MethodGet, resource) }

// Post is shorthand for NewRequest(http.MethodPost, resource).
func Post(resource string) *Request { return NewRequest(http.MethodPost, resource) }

// Param fills a "{name}" placeholder of the resource path.
func (r *Request) Param(name, value string) *Request {
	r.params[name] = value
	return r
}

// AbsoluteURL bypasses the resource table and targets u directly.
func (r *Request) AbsoluteURL(u string) *Request {
	r.absURL = u
	return r
}

// Query adds a query string parameter.
func (r *Request) Query(key, value string) *Request {
	r.query.Set(key, value)
	return r
}

// Set adds one body field.
func (r *Request) Set(key string, value any) *Request {
	r.data[key] = value
	return r
}

// Data merges body fields.
func (r *Request) Data(fields map[string]any) *Request {
	maps.Copy(r.data, fields)
	return r
}

// GenerateUUID attaches a fresh correlation id as the "_uuid" body field.
func (r *Request) GenerateUUID() *Request {
	r.uuid = uuid.NewString()
	r.data["_uuid"] = r.uuid
	return r
}

// SignPayload sends the body as a signed JSON document.
func (r *Request) SignPayload() *Request {
	r.signed = true
	return r
}

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// Resource returns the resource name, used as the metrics label.
func (r *Request) Resource() string {
	if r.resource == "" {
		return "custom"
	}
	return r.resource
}

// UUID returns the correlation id, or "" if none was generated.
func (r *Request) UUID() string { return r.uuid }

// Signed reports whether the payload will be signed.
func (r *Request) Signed() bool { return r.signed }

// Payload returns a copy of the body fields.
func (r *Request) Payload() map[string]any { return maps.Clone(r.data) }

// Params returns a copy of the path parameters.
func (r *Request) Params() map[string]string { return maps.Clone(r.params) }

// QueryValues returns a copy of the query parameters.
func (r *Request) QueryValues() url.Values {
	out := url.Values{}
	for k, v := range r.query {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// resolve computes the target URL against base.
func (r *Request) resolve(base *url.URL) (*url.URL, error) {
	var u *url.URL
	if r.absURL != "" {
		parsed, err := url.Parse(r.absURL)
		if err != nil {
			return nil, err
		}
		u = parsed
	} else {
		tmpl, ok := resources[r.resource]
		if !ok {
			return nil, errUnknownResource(r.resource)
		}
		path, ok := expand(tmpl, r.params)
		if !ok {
			return nil, errMissingParam(r.resource)
		}
		rel, err := url.Parse(path)
		if err != nil {
			return nil, err
		}
		u = base.ResolveReference(rel)
	}

	if len(r.query) > 0 {
		q := u.Query()
		for k, v := range r.query {
			q[k] = v
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}
