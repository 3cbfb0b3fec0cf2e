// Package client talks to the pledged HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/pledgeforprogress/pledged/pkg/handler"
	"github.com/pledgeforprogress/pledged/pkg/model"
)

// APIError is returned for non 2xx responses without a known error code.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

var knownErrors = []error{
	model.ErrUnauthorized,
	model.ErrGoalNotMet,
	model.ErrAlreadyClaimed,
	model.ErrInvalidAmount,
	model.ErrCampaignClosed,
	model.ErrInvalidAddress,
	model.ErrNotFound,
}

// decodeError maps a failed response back to a model error when the code is known
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	_ = json.NewDecoder(resp.Body).Decode(apiErr)

	for _, err := range knownErrors {
		if apiErr.Code != "" && model.Code(err) == apiErr.Code {
			return errors.Wrapf(err, "server returned %d", resp.StatusCode)
		}
	}

	return apiErr
}

type PledgeResult struct {
	OK      bool          `json:"ok"`
	Pledger model.Address `json:"pledger"`
	Amount  uint64        `json:"amount"`
}

type ClaimResult struct {
	OK          bool          `json:"ok"`
	Amount      uint64        `json:"amount"`
	Beneficiary model.Address `json:"beneficiary"`
}

type Client struct {
	baseURL string
	caller  model.Address
	token   string
	http    *http.Client
}

type Option func(c *Client)

// WithCaller identifies requests with the X-Caller header
func WithCaller(caller model.Address) Option {
	return func(c *Client) {
		c.caller = caller
	}
}

// WithToken identifies requests with a bearer token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Pledge(ctx context.Context, amount uint64) (*PledgeResult, error) {
	out := &PledgeResult{}
	if err := c.do(ctx, http.MethodPost, "/pledge", handler.PledgeRequest{Amount: amount}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ClaimFunds(ctx context.Context) (*ClaimResult, error) {
	out := &ClaimResult{}
	if err := c.do(ctx, http.MethodPost, "/claim-funds", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Status(ctx context.Context) (*model.Status, error) {
	out := &model.Status{}
	if err := c.do(ctx, http.MethodGet, "/status", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PledgeAmount(ctx context.Context, address model.Address) (uint64, error) {
	var out struct {
		Amount uint64 `json:"amount"`
	}

	if err := c.do(ctx, http.MethodGet, "/pledge/"+url.PathEscape(string(address)), nil, &out); err != nil {
		return 0, err
	}
	return out.Amount, nil
}

// Pledges lists every pledge record.
func (c *Client) Pledges(ctx context.Context) ([]*model.Pledge, error) {
	var out struct {
		Pledges []*model.Pledge `json:"pledges"`
	}

	if err := c.do(ctx, http.MethodGet, "/pledges", nil, &out); err != nil {
		return nil, err
	}
	return out.Pledges, nil
}

func (c *Client) Events(ctx context.Context, since uint64, limit int) ([]*model.Event, error) {
	var out struct {
		Events []*model.Event `json:"events"`
	}

	query := url.Values{}
	query.Set("since", fmt.Sprint(since))
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}

	if err := c.do(ctx, http.MethodGet, "/events?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.caller != "" {
		req.Header.Set(handler.CallerHeader, string(c.caller))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}
