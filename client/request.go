package client

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// request describes one GET against the device. It is built once from a
// parsed URL and the effective options and never modified afterwards.
type request struct {
	host     string
	port     int
	target   string
	username string
	password string
	timeout  time.Duration
}

// newRequest resolves host, port and path+query from u. The scheme is
// ignored: the exchange always runs over plain TCP.
func newRequest(u *url.URL, username, password string, timeout time.Duration) (request, error) {
	if u == nil {
		return request{}, errors.New("url must not be nil")
	}

	host := u.Hostname()
	if host == "" {
		return request{}, fmt.Errorf("url[%s] has no host", u.Redacted())
	}

	port := defaultPort
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return request{}, fmt.Errorf("url[%s] has invalid port %q", u.Redacted(), p)
		}
		port = n
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	r := request{
		host:     host,
		port:     port,
		target:   target,
		username: username,
		password: password,
		timeout:  timeout,
	}

	return r, nil
}

func (r request) address() string {
	return net.JoinHostPort(r.host, strconv.Itoa(r.port))
}

// String identifies the request in errors and logs without credentials.
func (r request) String() string {
	return r.address() + r.target
}

func (r request) authorization() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(r.username+":"+r.password))
}

// wire renders the complete HTTP/1.0 request. No body is ever sent.
func (r request) wire(userAgent string) []byte {
	var b strings.Builder
	b.Grow(128 + len(r.target) + len(r.host))

	b.WriteString("GET " + r.target + " HTTP/1.0\r\n")
	b.WriteString("Host: " + r.host + "\r\n")
	b.WriteString("Authorization: " + r.authorization() + "\r\n")
	b.WriteString("User-Agent: " + userAgent + "\r\n")
	b.WriteString("Accept: */*\r\n")
	b.WriteString("Connection: close\r\n")
	b.WriteString("\r\n")

	return []byte(b.String())
}
