package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/richinsley/cmfy/internal/xjson"
)

// transport performs JSON-over-HTTP requests against one server.
type transport struct {
	hostname   string
	port       int
	httpclient *http.Client
}

func (t *transport) url(route string) string {
	return fmt.Sprintf("http://%s:%d/%s", t.hostname, t.port, strings.TrimPrefix(route, "/"))
}

func (t *transport) do(ctx context.Context, method, route string, body []byte) ([]byte, error) {
	u := t.url(route)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, &ParseError{What: "url " + u, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return t.send(req)
}

// send performs req and returns the body of a 2xx response.
func (t *transport) send(req *http.Request) ([]byte, error) {
	u := req.URL.String()
	slog.Debug("http request", "method", req.Method, "url", u)
	resp, err := t.httpclient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: req.Method, URL: u, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: req.Method, URL: u, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Op:         req.Method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}
	return data, nil
}

// get decodes the JSON body of GET /route into v.
func (t *transport) get(ctx context.Context, route string, v interface{}) error {
	data, err := t.do(ctx, http.MethodGet, route, nil)
	if err != nil {
		return err
	}
	if err := xjson.Unmarshal(data, v); err != nil {
		return &ParseError{What: "response of " + route, Err: err}
	}
	return nil
}

// post sends payload as JSON and decodes the response into v. It reports
// false when the server answered with an empty body, leaving v untouched.
func (t *transport) post(ctx context.Context, route string, payload interface{}, v interface{}) (bool, error) {
	body, err := xjson.Marshal(payload)
	if err != nil {
		return false, &ParseError{What: "payload for " + route, Err: err}
	}

	data, err := t.do(ctx, http.MethodPost, route, body)
	if err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if v == nil {
		return true, nil
	}
	if err := xjson.Unmarshal(data, v); err != nil {
		return true, &ParseError{What: "response of " + route, Err: err}
	}
	return true, nil
}

// errorMessage digs the human readable message out of an error body:
//
//	{"error": {"type": "prompt_no_outputs", "message": "Prompt has no outputs", ...}, "node_errors": []}
func errorMessage(body []byte) string {
	var structured struct {
		Error struct {
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
	}
	if err := xjson.Unmarshal(body, &structured); err == nil && structured.Error.Message != "" {
		if structured.Error.Details != "" {
			return structured.Error.Message + ": " + structured.Error.Details
		}
		return structured.Error.Message
	}

	var plain struct {
		Error string `json:"error"`
	}
	if err := xjson.Unmarshal(body, &plain); err == nil && plain.Error != "" {
		return plain.Error
	}
	return strings.TrimSpace(string(body))
}
