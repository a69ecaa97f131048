package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const maxRetries = 5

// Client is what the scraping core sees of the network: fetch JSON, post
// JSON. Implementations own the session (cookies, headers) behind the calls.
type Client interface {
	GetJSON(ctx context.Context, url string, out interface{}) error
	PostJSON(ctx context.Context, url string, body interface{}, out interface{}) error
}

// check it meets the interface
var _ Client = &Session{}

// Session is a cookie-holding HTTP client. One Session backs one
// authenticated run; the institution keeps login state server-side keyed by
// the session cookies, so every request of a run must go through the same
// Session value.
type Session struct {
	http *http.Client
	log  zerolog.Logger
}

func NewSession(log zerolog.Logger) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Session{
		http: &http.Client{Jar: jar, Timeout: 45 * time.Second},
		log:  log.With().Str("component", "transport").Logger(),
	}, nil
}

// GetJSON fetches url and unmarshals the body into out. A nil out discards
// the body; callers use that to warm up the session against non-JSON pages.
func (s *Session) GetJSON(ctx context.Context, url string, out interface{}) error {
	data, err := s.do(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (s *Session) PostJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	data, err := s.do(ctx, "POST", url, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// do issues one request, retrying server-side failures with exponential
// backoff. Client-side (4xx) statuses are terminal.
func (s *Session) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var body []byte

	attempt := func() error {
		var reader *bytes.Reader
		if payload == nil {
			reader = bytes.NewReader(nil)
		} else {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Add("Content-Type", "application/json")
		req.Header.Add("Accept", "application/json")

		s.log.Debug().Str("method", method).Str("url", url).Msg("request")

		resp, err := s.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		status := resp.StatusCode
		if status >= 200 && status < 400 {
			return nil
		}
		if status >= 500 {
			// institution trouble, worth retrying
			return fmt.Errorf("got status code: %d (%s)", status, string(body))
		}
		return backoff.Permanent(fmt.Errorf("got status code: %d (%s)", status, string(body)))
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries),
		ctx,
	)
	err := backoff.RetryNotify(attempt, policy, func(err error, wait time.Duration) {
		s.log.Warn().Err(err).Dur("wait", wait).Str("url", url).Msg("retrying request")
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
