// Package canvas implements a minimal client for the Canvas LMS REST API:
// a bearer-token transport, typed records for the endpoints canvasgrab reads,
// and a paginated fetcher for collection endpoints.
package canvas

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/canvasgrab/canvasgrab/pkg/errors"
)

// Client handles HTTP operations against a Canvas instance. A single Client
// is reused for all requests of a run so connections are shared.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// New creates a client for the given Canvas origin. The token is sent as a
// bearer credential on every request.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		userAgent:  "canvasgrab/1.0",
	}
}

// CourseFilesURL returns the flat file listing endpoint for a course.
func (c *Client) CourseFilesURL(courseID string) string {
	return c.baseURL + "/api/v1/courses/" + url.PathEscape(courseID) + "/files"
}

// CourseModulesURL returns the modules endpoint for a course.
func (c *Client) CourseModulesURL(courseID string) string {
	return c.baseURL + "/api/v1/courses/" + url.PathEscape(courseID) + "/modules"
}

// ModuleItemsURL returns the items endpoint for one module of a course.
func (c *Client) ModuleItemsURL(courseID, moduleID string) string {
	return c.CourseModulesURL(courseID) + "/" + url.PathEscape(moduleID) + "/items"
}

// Get issues an authenticated GET request and verifies a successful status.
// The caller owns the response body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.get(ctx, rawURL, nil)
}

func (c *Client) get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	reqURL := rawURL
	if len(params) > 0 {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrRequestFailed, err.Error())
		}
		query := parsed.Query()
		for key, values := range params {
			for _, v := range values {
				query.Add(key, v)
			}
		}
		parsed.RawQuery = query.Encode()
		reqURL = parsed.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrRequestFailed, err.Error())
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_ = resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrUnexpectedStatus, "%s returned %d", reqURL, resp.StatusCode)
	}
	return resp, nil
}
