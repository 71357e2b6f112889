// Package verify implements the client for the external bot-scoring
// endpoint (reCAPTCHA v3 siteverify wire format). Every call produces
// exactly one outbound request; there are no retries. Failure policy is
// fail-closed with one deliberate exception: a missing secret key means
// verification cannot run at all, and the client reports Allowed rather
// than locking out legitimate traffic over a misconfiguration.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the Google reCAPTCHA v3 verification URL.
const DefaultEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// ScoreThreshold is the minimum score considered human. Scores below it
// block the request.
const ScoreThreshold = 0.5

// DefaultTimeout bounds a verification call so a slow endpoint cannot
// stall the host request indefinitely.
const DefaultTimeout = 5 * time.Second

// Status classifies the result of a verification attempt.
type Status int

const (
	// StatusAllowed means verification was skipped because no secret key
	// is configured. Fail-open.
	StatusAllowed Status = iota
	// StatusMissingToken means the client sent no token to verify.
	StatusMissingToken
	// StatusAPIError means the endpoint was unreachable, timed out, or
	// returned an unparseable response. Fail-closed.
	StatusAPIError
	// StatusLowScore means the endpoint answered but rejected the token
	// or scored it below the threshold.
	StatusLowScore
	// StatusSuccess means the token verified with a passing score.
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusAllowed:
		return "allowed"
	case StatusMissingToken:
		return "missing_token"
	case StatusAPIError:
		return "api_error"
	case StatusLowScore:
		return "low_score"
	case StatusSuccess:
		return "success"
	}
	return "unknown"
}

// Outcome is the interpreted result of one verification call. Score is
// meaningful for StatusLowScore and StatusSuccess; Err carries the
// underlying cause for StatusAPIError.
type Outcome struct {
	Status Status
	Score  float64
	Err    error
}

// Client calls the verification endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a client for the given endpoint URL. An empty endpoint
// selects DefaultEndpoint; a nil httpClient gets a client with
// DefaultTimeout.
func New(endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// siteverifyResponse is the JSON body returned by the endpoint. Missing
// fields decode to their zero values: absent success means rejected,
// absent score means 0.
type siteverifyResponse struct {
	Success bool    `json:"success"`
	Score   float64 `json:"score"`
}

// Verify performs one verification call for the given token and client
// IP. The context bounds the call; cancellation or timeout reports as
// StatusAPIError.
func (c *Client) Verify(ctx context.Context, token, clientIP, secretKey string) Outcome {
	if secretKey == "" {
		return Outcome{Status: StatusAllowed}
	}
	if token == "" {
		return Outcome{Status: StatusMissingToken}
	}

	form := url.Values{
		"secret":   {secretKey},
		"response": {token},
		"remoteip": {clientIP},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{Status: StatusAPIError, Err: fmt.Errorf("verify: build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Outcome{Status: StatusAPIError, Err: fmt.Errorf("verify: call endpoint: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Outcome{Status: StatusAPIError, Err: fmt.Errorf("verify: read response: %w", err)}
	}

	var result siteverifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Outcome{Status: StatusAPIError, Err: fmt.Errorf("verify: decode response: %w", err)}
	}

	if !result.Success || result.Score < ScoreThreshold {
		return Outcome{Status: StatusLowScore, Score: result.Score}
	}
	return Outcome{Status: StatusSuccess, Score: result.Score}
}
