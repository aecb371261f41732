package repository

import (
	"bytes"
	"io"
	"net/http"
)

// RoundTripperFunc stubs the odds service transport in tests.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// NewStubHTTPClient answers every request with the given status and body.
func NewStubHTTPClient(status int, body string) *http.Client {
	return &http.Client{Transport: RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Request:    req,
		}, nil
	})}
}
