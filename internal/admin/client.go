package admin

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/angeloszaimis/target-pool/internal/metrics"
	"github.com/angeloszaimis/target-pool/internal/pool"
)

// Client talks to the admin API of a running proxy.
type Client struct {
	addr       string
	httpClient *http.Client
}

func NewClient(addr string) *Client {
	return &Client{
		addr:       strings.TrimRight(addr, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Status() (*StatusResponse, error) {
	var status StatusResponse
	if err := c.get(c.endpoint("status"), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Targets() ([]pool.Target, error) {
	var resp TargetsResponse
	if err := c.get(c.endpoint("targets"), &resp); err != nil {
		return nil, err
	}
	return resp.Targets, nil
}

func (c *Client) AddTarget(address string, weight int) error {
	data, err := json.Marshal(TargetRequest{Address: address, Weight: weight})
	if err != nil {
		return errors.Wrap(err, "encode target")
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint("targets"), bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.roundTrip(req)
	return err
}

func (c *Client) RemoveTarget(address string) error {
	endpoint := c.endpoint("targets") + "?" + url.Values{"address": {address}}.Encode()

	req, err := http.NewRequest(http.MethodDelete, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	_, err = c.roundTrip(req)
	return err
}

func (c *Client) Metrics() (*metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.get(c.addr+"/metrics", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) get(endpoint string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	body, err := c.roundTrip(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode response from %s", endpoint)
	}
	return nil
}

// roundTrip performs req and maps non-2xx replies onto pool errors where
// the status has a pool meaning.
func (c *Client) roundTrip(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	var msg MessageResponse
	if err := json.Unmarshal(body, &msg); err != nil || msg.Message == "" {
		msg.Message = strings.TrimSpace(string(body))
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, errors.Wrap(pool.ErrTargetNotFound, msg.Message)
	case http.StatusConflict:
		return nil, errors.Wrap(pool.ErrDuplicateTarget, msg.Message)
	default:
		return nil, errors.Errorf("admin api returned %d: %s", resp.StatusCode, msg.Message)
	}
}

func (c *Client) endpoint(params ...string) string {
	return c.addr + "/" + CurrentVersion + "/" + strings.Join(params, "/")
}
