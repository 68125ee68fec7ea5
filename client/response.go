package client

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

const headerSeparator = "\r\n\r\n"

var statusLine = regexp.MustCompile(`^HTTP/\d\.\d\s+(\d{3})`)

// Response is the parsed result of a completed exchange. Non-2xx statuses
// are not errors; check OK or use [Response.Expect].
type Response struct {
	// OK is true iff 200 <= Status < 300.
	OK bool
	// Status is the code from the status line, or 0 if it could not be read.
	Status int
	// HeadersRaw is everything before the blank line, status line included.
	HeadersRaw string

	body string
	xml  XMLOptions
}

// parseResponse splits a raw stream into headers and body, undoing chunked
// transfer-encoding when the headers announce it.
func parseResponse(raw string, xo XMLOptions) (*Response, error) {
	head, body, found := strings.Cut(raw, headerSeparator)
	if !found {
		return nil, newError(KindMalformedResponse, "", errors.New("no header terminator in response"))
	}

	if isChunked(head) {
		decoded, err := Dechunk(body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	status := statusCode(head)
	resp := Response{
		OK:         status >= 200 && status < 300,
		Status:     status,
		HeadersRaw: head,
		body:       body,
		xml:        xo,
	}

	return &resp, nil
}

func statusCode(head string) int {
	m := statusLine.FindStringSubmatch(head)
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])

	return code
}

func isChunked(head string) bool {
	for _, line := range headerLines(head) {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Transfer-Encoding") &&
			strings.EqualFold(strings.TrimSpace(value), "chunked") {
			return true
		}
	}

	return false
}

// headerLines returns the header field lines, skipping the status line.
func headerLines(head string) []string {
	lines := strings.Split(head, crlf)
	if len(lines) <= 1 {
		return nil
	}

	return lines[1:]
}

// Text returns the body, already de-chunked where applicable.
func (r *Response) Text() string {
	return r.body
}

// Header returns the value of the first header field named name,
// compared case-insensitively, or "" if there is none.
func (r *Response) Header(name string) string {
	for _, line := range headerLines(r.HeadersRaw) {
		k, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), name) {
			return strings.TrimSpace(v)
		}
	}

	return ""
}

// Structured parses the body as XML into nested maps using the options of
// the fetch that produced r. Each call parses afresh and returns a new map.
func (r *Response) Structured() (map[string]any, error) {
	m, err := parseXML(r.body, r.xml)
	if err != nil {
		return nil, bodyParseError(err)
	}

	return m, nil
}

// Decode parses the body of r as XML and decodes it into a T, using
// mapstructure tags on T. Decoding is weakly typed: numeric strings fill
// numeric fields and a single element fills a slice.
func Decode[T any](r *Response) (T, error) {
	var out T

	m, err := r.Structured()
	if err != nil {
		return out, err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, fmt.Errorf("building decoder: %w", err)
	}

	if err := dec.Decode(m); err != nil {
		return out, newError(KindBodyParse, "", fmt.Errorf("decoding structured body: %w", err))
	}

	return out, nil
}

// Expect returns an [*UnexpectedStatusError] if the status is not code.
func (r *Response) Expect(code int) error {
	if r.Status == code {
		return nil
	}

	return r.statusError()
}

// ExpectOK returns an [*UnexpectedStatusError] unless r.OK is true.
func (r *Response) ExpectOK() error {
	if r.OK {
		return nil
	}

	return r.statusError()
}

func (r *Response) statusError() error {
	body := r.body
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	err := ErrUnexpectedStatusCode
	if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden {
		err = errors.Join(ErrAuthFailure, ErrUnexpectedStatusCode)
	}

	return &UnexpectedStatusError{
		StatusCode: r.Status,
		Body:       body,
		Err:        err,
	}
}
