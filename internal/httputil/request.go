// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a failed response body is kept for the
// error message.
const maxErrorBody = 512

// StatusError reports a response with a status other than 200 OK.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Do executes req once with the given User-Agent and returns the response
// when the status is 200. Any other status is returned as a *StatusError
// after the body is drained and closed. Requests are never retried; a failed
// call is the caller's to handle.
func Do(ctx context.Context, client *http.Client, req *http.Request, userAgent string) (*http.Response, error) {
	req = req.WithContext(ctx)
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	io.Copy(io.Discard, resp.Body)
	return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}
