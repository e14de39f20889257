// Package bridge es el cliente HTTP saliente hacia el servicio bridge
// (datos de civic actions y reporte de clicks).
package bridge

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

	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

const maxBodyBytes = 1 << 20

var (
	ErrInvalidIdentifier = errors.New("bridge: invalid source or action id")
	ErrUpstream          = errors.New("bridge: upstream error")
)

// Client habla con {baseURL}/api/civic-actions.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient crea un cliente con timeout propio. hc nil = http.Client nuevo.
func NewClient(baseURL string, timeout time.Duration, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    hc,
	}
}

func validSegment(s string) bool {
	if s == "" || len(s) > 128 || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\?#")
}

func (c *Client) actionURL(source, actionID string) (string, error) {
	if !validSegment(source) || !validSegment(actionID) {
		return "", ErrInvalidIdentifier
	}
	return c.baseURL + "/api/civic-actions/" + url.PathEscape(source) + "/" + url.PathEscape(actionID), nil
}

// CivicAction trae los datos de la acción tal cual los devuelve el bridge (JSON).
func (c *Client) CivicAction(ctx context.Context, source, actionID string) (json.RawMessage, error) {
	u, err := c.actionURL(source, actionID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: status=%d", ErrUpstream, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrUpstream)
	}
	return json.RawMessage(body), nil
}

// ReportClick es best-effort: el error se devuelve para loguear, nunca para fallar la página.
func (c *Client) ReportClick(ctx context.Context, source, actionID string) error {
	u, err := c.actionURL(source, actionID)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u+"/click", bytes.NewReader([]byte("{}")))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.From(ctx).Debug("click report failed", logger.Component("bridge.client"), logger.Err(err))
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: status=%d", ErrUpstream, resp.StatusCode)
	}
	return nil
}
