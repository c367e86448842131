package core

import (
	"net/url"
)

// Params carries operation-specific arguments into a request builder.
type Params map[string]any

// Request is an exchange request before it is signed and sent.
// Query may hold repeated keys.
type Request struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Query       url.Values        `json:"query,omitempty"`
	Body        any               `json:"body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Bucket      string            `json:"bucket,omitempty"`
	RequireAuth bool              `json:"require_auth"`
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Query:   make(url.Values),
		Headers: make(map[string]string),
	}
}

// SetQuery replaces every value of key.
func (r *Request) SetQuery(key, value string) *Request {
	if r.Query == nil {
		r.Query = make(url.Values)
	}
	r.Query.Set(key, value)
	return r
}

// AddQuery appends a value to key, keeping earlier ones.
func (r *Request) AddQuery(key, value string) *Request {
	if r.Query == nil {
		r.Query = make(url.Values)
	}
	r.Query.Add(key, value)
	return r
}

func (r *Request) SetBody(body any) *Request {
	r.Body = body
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// SetBucket names the rate limit bucket the request is charged to.
func (r *Request) SetBucket(bucket string) *Request {
	r.Bucket = bucket
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}

// QueryString returns the encoded query, sorted by key.
func (r *Request) QueryString() string {
	if len(r.Query) == 0 {
		return ""
	}
	return r.Query.Encode()
}

// RequestPath returns the path followed by the encoded query, if any.
// This is the form covered by request signatures.
func (r *Request) RequestPath() string {
	if qs := r.QueryString(); qs != "" {
		return r.Path + "?" + qs
	}
	return r.Path
}
