package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of query parameters. Order is preserved on the wire.
type Params []Param

// Add appends key=value. Booleans are encoded as "true"/"false", nil values
// are skipped.
func (p Params) Add(key string, value any) Params {
	if value == nil {
		return p
	}
	return append(p, Param{Key: key, Value: formatParam(value)})
}

// Get returns the first value stored under key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Encode renders the parameters in insertion order.
func (p Params) Encode() string {
	var sb strings.Builder
	for i, kv := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv.Value))
	}
	return sb.String()
}

func formatParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case *int:
		if val == nil {
			return ""
		}
		return strconv.Itoa(*val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Request describes one API call. Body is JSON-encoded; Form, when set,
// takes precedence and is sent url-encoded.
type Request struct {
	Method string
	Path   string
	Query  Params
	Body   any
	Form   url.Values
	Header http.Header
}

// clone returns a deep copy so authenticators can decorate it freely.
func (r *Request) clone() *Request {
	c := &Request{
		Method: r.Method,
		Path:   r.Path,
		Body:   r.Body,
		Header: r.Header.Clone(),
	}
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if r.Query != nil {
		c.Query = append(Params(nil), r.Query...)
	}
	if r.Form != nil {
		c.Form = make(url.Values, len(r.Form))
		for k, v := range r.Form {
			c.Form[k] = append([]string(nil), v...)
		}
	}
	return c
}

// encodeBody serializes the payload once; each attempt reads from a fresh reader.
func (r *Request) encodeBody() ([]byte, string, error) {
	if r.Form != nil {
		return []byte(r.Form.Encode()), "application/x-www-form-urlencoded", nil
	}
	if r.Body == nil {
		return nil, "", nil
	}
	if raw, ok := r.Body.(json.RawMessage); ok {
		return raw, "application/json", nil
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", NewConfigurationError("failed to encode request body", err)
	}
	return data, "application/json", nil
}

// Response is a successful (2xx) reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
	Attempts   int
}

// IsJSON reports whether the server declared a JSON payload.
func (r *Response) IsJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(bytes.TrimSpace(r.Body))
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return NewValidationError("", "empty response body", nil)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return NewValidationError("", "response is not valid JSON for the expected type", err)
	}
	return nil
}
