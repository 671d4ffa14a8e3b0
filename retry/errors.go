// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retry

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidMaxRetries is returned when MaxRetries is negative.
	ErrInvalidMaxRetries = errors.New("maxRetries cannot be negative")

	// ErrRetriesExhausted wraps the last error once every attempt has failed.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrNetwork classifies transport failures (connection refused, reset, DNS, ...).
	ErrNetwork = errors.New("network error")

	// ErrRateLimited classifies HTTP 429 responses.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer classifies 5xx responses.
	ErrServer = errors.New("server error")

	// ErrClient classifies 4xx responses other than 429.
	ErrClient = errors.New("client error")
)

// StatusUpstreamTimeout is the status the relay answers with when the
// upstream service did not respond in time.
const StatusUpstreamTimeout = 524

// StatusError is a non-2xx response from a remote service.
// It matches ErrRateLimited, ErrServer or ErrClient with errors.Is.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("remote returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.StatusCode, body)
}

// Is reports whether the status falls into the target class.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrServer:
		return e.StatusCode >= 500
	case ErrClient:
		return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// networkError wraps a transport failure so it matches ErrNetwork.
type networkError struct {
	err error
}

func (e *networkError) Error() string { return "network error: " + e.err.Error() }
func (e *networkError) Unwrap() error { return e.err }
func (e *networkError) Is(target error) bool {
	return target == ErrNetwork
}

// NetworkError marks err as a transport failure.
func NetworkError(err error) error {
	if err == nil {
		return nil
	}
	return &networkError{err: err}
}

// retryableStatus lists the server-side codes worth another attempt.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
	StatusUpstreamTimeout:          true,
}

// IsRetryable is the default retryability predicate: network failures,
// 429, 500, 503, 504 and the relay's upstream timeout.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetwork) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus[statusErr.StatusCode]
	}
	return false
}
