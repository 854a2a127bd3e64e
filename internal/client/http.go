package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/alfredjeanlab/formrec/internal/model"
)

// Operation names carried by RemoteError.
const (
	OpList   = "list"
	OpCreate = "create"
	OpRemove = "remove"
)

// Generic messages used when the store gives no reason of its own.
var genericMessages = map[string]string{
	OpList:   "could not load records from the store",
	OpCreate: "could not add the record to the store",
	OpRemove: "could not delete the record from the store",
}

// maxPages bounds how many offset pages List follows.
const maxPages = 1000

// HTTPClient implements RecordStore against a single remote collection.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// CollectionURL builds the collection endpoint
// https://{host}/v0/{baseID}/{collection}. A host that already carries a
// scheme (e.g. "http://localhost:8080") is used as is.
func CollectionURL(host, baseID, collection string) string {
	host = strings.TrimRight(host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + "/v0/" + url.PathEscape(baseID) + "/" + url.PathEscape(collection)
}

// NewHTTPClient creates a client for the collection at collectionURL. When
// token is non-empty, an Authorization header is set on every request. A
// zero timeout leaves requests bounded only by their context.
func NewHTTPClient(collectionURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(collectionURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// List fetches every record of the collection, following offset pages.
func (c *HTTPClient) List(ctx context.Context) ([]*model.Record, error) {
	var (
		out    []*model.Record
		offset string
	)
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, &RemoteError{Op: OpList, Message: "too many pages in listing"}
		}
		path := ""
		if offset != "" {
			path = "?offset=" + url.QueryEscape(offset)
		}
		var resp listResponse
		if err := c.doJSON(ctx, OpList, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		for _, w := range resp.Records {
			out = append(out, toRecord(w))
		}
		if resp.Offset == "" || resp.Offset == offset {
			break
		}
		offset = resp.Offset
	}
	if out == nil {
		out = []*model.Record{}
	}
	return out, nil
}

// Create sends fields to the store and returns the stored record with its
// server-issued id and creation time. No business validation is done here.
func (c *HTTPClient) Create(ctx context.Context, fields map[string]string) (*model.Record, error) {
	var w wireRecord
	if err := c.doJSON(ctx, OpCreate, http.MethodPost, "", createRequest{Fields: toWireFields(fields)}, &w); err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, &RemoteError{Op: OpCreate, Message: "store returned a record without an id"}
	}
	return toRecord(w), nil
}

// Remove deletes the record with the given id. Deleting an id the store no
// longer has is reported as a failure.
func (c *HTTPClient) Remove(ctx context.Context, id string) error {
	var resp deleteResponse
	return c.doJSON(ctx, OpRemove, http.MethodDelete, "/"+url.PathEscape(id), nil, &resp)
}

// --- internal helpers ---

// RemoteError is returned for every failed store operation: non-2xx
// responses (StatusCode set) and transport failures (Err set).
type RemoteError struct {
	Op         string
	StatusCode int
	Type       string // store error type, e.g. NOT_FOUND
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a RemoteError for a missing record.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && (re.StatusCode == http.StatusNotFound || re.Type == "NOT_FOUND")
}

// parseErrorBody extracts the store's error type and message from either
// {"error": {"type": ..., "message": ...}} or {"error": "TYPE"}.
func parseErrorBody(body []byte) (typ, msg string) {
	if !gjson.ValidBytes(body) {
		return "", ""
	}
	e := gjson.GetBytes(body, "error")
	switch {
	case e.IsObject():
		typ, msg = e.Get("type").String(), e.Get("message").String()
		if msg == "" {
			msg = typ
		}
		return typ, msg
	case e.Type == gjson.String:
		return e.Str, e.Str
	}
	return "", ""
}

// doJSON performs an HTTP request against the collection with an optional
// JSON body and decodes the JSON response into result. Every failure is
// returned as a *RemoteError tagged with op.
func (c *HTTPClient) doJSON(ctx context.Context, op, method, path string, body any, result any) error {
	generic := genericMessages[op]

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Op: op, Message: "marshaling request body", Err: err}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &RemoteError{Op: op, Message: generic, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Message: generic, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Op: op, Message: generic, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		typ, msg := parseErrorBody(respBody)
		if msg == "" {
			msg = "unknown error"
		}
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Type: typ, Message: msg}
	}

	// 204 No Content: success with no body.
	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &RemoteError{Op: op, Message: "invalid response from the store", Err: err}
		}
	}
	return nil
}
