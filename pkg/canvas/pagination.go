package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/canvasgrab/canvasgrab/internal/logger"
	"github.com/canvasgrab/canvasgrab/pkg/errors"
	"github.com/peterhellberg/link"
)

const maxLoggedBodyBytes = 200

// FetchAll walks rawURL as a paginated collection endpoint, following
// rel="next" links from the Link response header, and returns the
// concatenation of all pages' records in page order.
//
// The query parameters apply only to the first request; next-page URLs are
// followed verbatim since they already encode their own parameters. A
// transport failure on any page aborts the whole operation with an error, so
// callers can distinguish "no results" from "could not fetch". A body that
// cannot be decoded at all ends the sequence, keeping the records accumulated
// from prior pages. A JSON object body (rather than an array) is degraded to a
// one-record page with a warning; pagination still continues if a next link is
// present, since a degraded shape says nothing about the end of the data.
func (c *Client) FetchAll(ctx context.Context, rawURL string, params url.Values) ([]json.RawMessage, error) {
	records := make([]json.RawMessage, 0)
	next := rawURL

	for next != "" {
		resp, err := c.get(ctx, next, params)
		if err != nil {
			return nil, err
		}
		params = nil

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, errors.Wrap(readErr, "failed to read response body")
		}

		page, err := decodePage(next, body)
		if err != nil {
			logger.Errorf("could not decode response from %s: %v", next, err)
			return records, nil
		}
		records = append(records, page...)

		next = nextPageURL(resp)
	}

	return records, nil
}

// FetchOne resolves a single-record endpoint, accepting either one object or
// a one-element array containing it.
func (c *Client) FetchOne(ctx context.Context, rawURL string) (json.RawMessage, error) {
	records, err := c.FetchAll(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.Wrapf(errors.ErrMalformedResponse, "no record in response from %s", rawURL)
	}
	return records[0], nil
}

// decodePage decodes one collection response body into raw records.
func decodePage(pageURL string, body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var page []json.RawMessage
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, errors.Wrap(errors.ErrMalformedResponse, err.Error())
		}
		return page, nil
	}

	if trimmed[0] == '{' && json.Valid(trimmed) {
		logger.Warnf("unexpected non-list response from %s, treating as a single record", pageURL)
		return []json.RawMessage{json.RawMessage(trimmed)}, nil
	}

	return nil, errors.Wrapf(errors.ErrMalformedResponse, "body %q", truncateForLog(trimmed))
}

func nextPageURL(resp *http.Response) string {
	if next, ok := link.ParseResponse(resp)["next"]; ok {
		return next.URI
	}
	return ""
}

func truncateForLog(body []byte) string {
	if len(body) > maxLoggedBodyBytes {
		return string(body[:maxLoggedBodyBytes]) + "..."
	}
	return string(body)
}
