// Package tableclient is a thin HTTP client for the table-node coordinator
// API. Worker processes use it to ping, reserve, and register trials; the
// load-test CLI and integration tests use it to drive a coordinator over
// real HTTP.
package tableclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/atsuhiron/lite-dist2-go/internal/curriculum"
	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/study"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
)

// Client talks to one table node.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (timeouts, transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, lderrors.NewTransportError(0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		msg := string(data)
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return resp.StatusCode, lderrors.NewTransportError(resp.StatusCode, msg, nil)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, lderrors.NewTransportError(resp.StatusCode, "malformed response body", err)
		}
	}
	return resp.StatusCode, nil
}

// Ping checks the coordinator is alive.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		OK bool `json:"ok"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/ping", nil, &out); err != nil {
		return err
	}
	if !out.OK {
		return lderrors.NewTransportError(0, "coordinator replied not-ok to ping", nil)
	}
	return nil
}

// Status fetches the curriculum summaries.
func (c *Client) Status(ctx context.Context) ([]curriculum.Summary, error) {
	var out struct {
		Summaries []curriculum.Summary `json:"summaries"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return out.Summaries, nil
}

// RegisterStudy submits a study registry and returns the issued study_id.
func (c *Client) RegisterStudy(ctx context.Context, reg study.Registry) (string, error) {
	var out struct {
		StudyID string `json:"study_id"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/study/register", reg, &out); err != nil {
		return "", err
	}
	return out.StudyID, nil
}

// ReserveTrial asks for the next slice of work. Returns (nil, nil) when the
// coordinator has nothing available (HTTP 202); the worker should back off.
func (c *Client) ReserveTrial(ctx context.Context, capability []string, maxSize int64) (*trial.Trial, error) {
	body := map[string]any{"retaining_capacity": capability, "max_size": maxSize}
	var out struct {
		Trial *trial.Trial `json:"trial"`
	}
	status, err := c.do(ctx, http.MethodPost, "/trial/reserve", body, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusAccepted {
		return nil, nil
	}
	return out.Trial, nil
}

// RegisterTrial submits a completed trial back to the coordinator.
func (c *Client) RegisterTrial(ctx context.Context, tr *trial.Trial) error {
	body := map[string]*trial.Trial{"trial": tr}
	_, err := c.do(ctx, http.MethodPost, "/trial/register", body, nil)
	return err
}

// FetchResult is the GET /study response: the study's status plus, once
// done, its extracted result storage.
type FetchResult struct {
	Status study.Status   `json:"status"`
	Result *study.Storage `json:"result"`
}

// FetchStudy queries a study by study_id xor name.
func (c *Client) FetchStudy(ctx context.Context, studyID, name string) (*FetchResult, error) {
	if (studyID == "") == (name == "") {
		return nil, lderrors.NewParameterError("exactly one of studyID or name must be given")
	}
	q := url.Values{}
	if studyID != "" {
		q.Set("study_id", studyID)
	}
	if name != "" {
		q.Set("name", name)
	}
	var out FetchResult
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/study?%s", q.Encode()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
