// Package gateway talks to the app management API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rzbill/nak/pkg/log"
)

const (
	// DefaultBaseURL is the production accounts API.
	DefaultBaseURL = "https://accounts.29next.com"
	// DefaultTimeout bounds a whole upload request.
	DefaultTimeout = 5 * time.Minute

	// RequestIDHeader carries a per-request id for support lookups.
	RequestIDHeader = "X-Request-ID"
)

// File is one multipart file part.
type File struct {
	Name   string
	Reader io.Reader
}

// Response is the outcome of an API call that reached the server.
type Response struct {
	OK         bool
	StatusCode int
	Body       []byte
	RequestID  string
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Email      string
	Password   string
	ClientID   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client uploads artifacts for a single app using basic authentication.
type Client struct {
	baseURL  string
	email    string
	password string
	clientID string
	http     *http.Client
	logger   log.Logger
}

// New creates a Client.
func New(opts Options, logger log.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		email:    opts.Email,
		password: opts.Password,
		clientID: opts.ClientID,
		http:     httpClient,
		logger:   logger.WithComponent("gateway"),
	}
}

// AppURL returns the endpoint of the configured app.
func (c *Client) AppURL() string {
	return fmt.Sprintf("%s/api/apps/%s/", c.baseURL, url.PathEscape(c.clientID))
}

// UpdateApp uploads files to the app. A non-ok response is returned together
// with an *UploadError; transport failures return only the error.
func (c *Client) UpdateApp(ctx context.Context, files map[string]File) (*Response, error) {
	resp, err := c.request(ctx, http.MethodPatch, c.AppURL(), map[string]string{}, files)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return resp, newUploadError(resp)
	}
	return resp, nil
}

// request sends payload fields and files as one multipart form.
func (c *Client) request(ctx context.Context, method, target string, payload map[string]string, files map[string]File) (*Response, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for _, key := range sortedKeys(payload) {
		if err := mw.WriteField(key, payload[key]); err != nil {
			return nil, err
		}
	}
	for _, field := range sortedKeys(files) {
		file := files[field]
		part, err := mw.CreateFormFile(field, file.Name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(RequestIDHeader, requestID)
	req.SetBasicAuth(c.email, c.password)

	logger := c.logger.With(log.Str("method", method), log.Str("url", target), log.Str("request_id", requestID))
	logger.Debug("Sending request", log.Int("bytes", body.Len()))

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logger.Debug("Received response", log.Int("status", httpResp.StatusCode))
	return &Response{
		OK:         httpResp.StatusCode < http.StatusBadRequest,
		StatusCode: httpResp.StatusCode,
		Body:       data,
		RequestID:  requestID,
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UploadError is a rejected upload.
type UploadError struct {
	StatusCode int
	Messages   []string
}

func (e *UploadError) Error() string {
	var b strings.Builder
	b.WriteString("Uploading file to server failed.")
	for _, msg := range e.Messages {
		b.WriteString(" -> ")
		b.WriteString(msg)
	}
	return b.String()
}

// newUploadError flattens a JSON error body whose values are strings or lists
// of strings. Bodies that are not such an object are reported verbatim.
func newUploadError(resp *Response) *UploadError {
	e := &UploadError{StatusCode: resp.StatusCode}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &fields); err != nil {
		if text := strings.TrimSpace(string(resp.Body)); text != "" {
			e.Messages = append(e.Messages, text)
		} else {
			e.Messages = append(e.Messages, http.StatusText(resp.StatusCode))
		}
		return e
	}

	for _, key := range sortedKeys(fields) {
		raw := fields[key]

		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			e.Messages = append(e.Messages, text)
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			e.Messages = append(e.Messages, strings.Join(list, ", "))
			continue
		}
		e.Messages = append(e.Messages, fmt.Sprintf("%s: %s", key, string(raw)))
	}
	return e
}
