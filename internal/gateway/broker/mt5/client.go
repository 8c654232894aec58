// Package mt5 talks to the MT5 bridge service over REST. The bridge owns
// the native terminal binding; this client only exposes the capability
// surface the execution core needs (connect, quote, submit, close).
package mt5

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tss/internal/config"
	"tss/internal/gateway/broker"
	"tss/internal/logger"
	"tss/internal/pkg/circuit"
)

// Client implements broker.Gateway against the MT5 bridge REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	breaker    *circuit.CircuitBreaker
}

var _ broker.Gateway = (*Client)(nil)

// NewClient constructs an MT5 bridge client from configuration.
func NewClient(cfg config.BrokerConfig) (*Client, error) {
	raw := strings.TrimSpace(cfg.BridgeURL)
	if raw == "" {
		return nil, fmt.Errorf("broker.bridge_url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing broker.bridge_url failed: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true // #nosec G402
		}
	}
	breaker := circuit.NewCircuitBreaker("mt5-connect", cfg.CircuitThreshold,
		time.Duration(cfg.CircuitCooldownSec)*time.Second)
	breaker.SetStateChangeHandler(func(name string, from, to circuit.State) {
		logger.Warnf("%s breaker: %s -> %s", name, from, to)
	})
	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		token:      strings.TrimSpace(cfg.APIToken),
		breaker:    breaker,
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

type connectPayload struct {
	Login    int64  `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server"`
}

type connectResponse struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

// Connect opens a terminal session for the account. Guarded by a circuit
// breaker so a dead bridge fails fast instead of eating the full HTTP
// timeout on every message.
func (c *Client) Connect(ctx context.Context, creds broker.Credentials) error {
	if !c.breaker.Allow() {
		return &broker.Error{Op: "connect", Message: "bridge circuit open"}
	}
	var resp connectResponse
	payload := connectPayload{Login: creds.Login, Password: creds.Password, Server: creds.Server}
	if err := c.doRequest(ctx, http.MethodPost, "/connect", payload, &resp); err != nil {
		c.breaker.RecordFailure()
		return &broker.Error{Op: "connect", Err: err}
	}
	if !resp.Connected {
		c.breaker.RecordFailure()
		return &broker.Error{Op: "connect", Message: resp.Message}
	}
	c.breaker.RecordSuccess()
	return nil
}

type quoteResponse struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

// GetQuote fetches the current bid/ask for symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*broker.Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, broker.ErrNoQuote
	}
	var resp quoteResponse
	path := "/quote/" + url.PathEscape(symbol)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, &broker.Error{Op: "quote", Err: err}
	}
	if resp.Bid == 0 && resp.Ask == 0 {
		return nil, broker.ErrNoQuote
	}
	return &broker.Quote{
		Symbol:     symbol,
		Bid:        resp.Bid,
		Ask:        resp.Ask,
		CapturedAt: time.Now().UTC(),
	}, nil
}

type orderPayload struct {
	Symbol      string  `json:"symbol"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	Volume      float64 `json:"volume"`
	TakeProfit  float64 `json:"tp"`
	StopLoss    float64 `json:"sl"`
	Comment     string  `json:"comment,omitempty"`
	Magic       int64   `json:"magic,omitempty"`
	TimeInForce string  `json:"time_in_force,omitempty"`
	FillPolicy  string  `json:"fill_policy,omitempty"`
}

type orderResponse struct {
	Ticket         int64   `json:"ticket"`
	ExecutedPrice  float64 `json:"price"`
	ExecutedVolume float64 `json:"volume"`
	ExecutedTP     float64 `json:"tp"`
	ExecutedSL     float64 `json:"sl"`
	ReturnCode     int     `json:"retcode"`
	Comment        string  `json:"comment"`
}

// retcodeDone is the MT5 TRADE_RETCODE_DONE value the bridge passes
// through verbatim.
const retcodeDone = 10009

// SubmitOrder places the derived order. A non-DONE return code is a
// definitive rejection, not a transport failure.
func (c *Client) SubmitOrder(ctx context.Context, req broker.OrderRequest) (*broker.SubmitResult, error) {
	payload := orderPayload{
		Symbol:      req.Symbol,
		Type:        string(req.Type),
		Price:       req.Price,
		Volume:      req.Volume,
		TakeProfit:  req.TakeProfit,
		StopLoss:    req.StopLoss,
		Comment:     req.Comment,
		Magic:       req.Magic,
		TimeInForce: req.TimeInForce,
		FillPolicy:  req.FillPolicy,
	}
	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodPost, "/order", payload, &resp); err != nil {
		return nil, &broker.Error{Op: "submit", Err: err}
	}
	if resp.ReturnCode != retcodeDone || resp.Ticket == 0 {
		return nil, &broker.Error{Op: "submit", ReturnCode: resp.ReturnCode, Message: resp.Comment}
	}
	return &broker.SubmitResult{
		Ticket:         resp.Ticket,
		ExecutedPrice:  resp.ExecutedPrice,
		ExecutedVolume: resp.ExecutedVolume,
		ExecutedTP:     resp.ExecutedTP,
		ExecutedSL:     resp.ExecutedSL,
		ReturnCode:     resp.ReturnCode,
		Comment:        resp.Comment,
	}, nil
}

type closePayload struct {
	Ticket int64   `json:"ticket"`
	Volume float64 `json:"volume,omitempty"`
}

type closeResponse struct {
	Ticket       int64   `json:"ticket"`
	ClosingPrice float64 `json:"price"`
	Profit       float64 `json:"profit"`
	ReturnCode   int     `json:"retcode"`
	Comment      string  `json:"comment"`
}

// CloseOrder closes an existing position by ticket. lots=0 closes the
// full position.
func (c *Client) CloseOrder(ctx context.Context, ticket int64, lots float64) (*broker.CloseResult, error) {
	var resp closeResponse
	if err := c.doRequest(ctx, http.MethodPost, "/close", closePayload{Ticket: ticket, Volume: lots}, &resp); err != nil {
		return nil, &broker.Error{Op: "close", Err: err}
	}
	if resp.ReturnCode != retcodeDone {
		return nil, &broker.Error{Op: "close", ReturnCode: resp.ReturnCode, Message: resp.Comment}
	}
	return &broker.CloseResult{
		Ticket:       resp.Ticket,
		ClosingPrice: resp.ClosingPrice,
		Profit:       resp.Profit,
		ReturnCode:   resp.ReturnCode,
		Comment:      resp.Comment,
	}, nil
}

// Disconnect tears the session down. Best effort; failures are swallowed
// because teardown runs in a guaranteed-cleanup path.
func (c *Client) Disconnect(ctx context.Context) {
	_ = c.doRequest(ctx, http.MethodPost, "/disconnect", nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any, out any) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("mt5 client not initialized")
	}
	endpoint, err := c.resolveEndpoint(path)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling request failed: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("building request failed: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling mt5 bridge failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(data) == 0 {
			return fmt.Errorf("mt5 bridge returned %s", resp.Status)
		}
		return fmt.Errorf("mt5 bridge returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding mt5 bridge response failed: %w", err)
	}
	return nil
}

func (c *Client) resolveEndpoint(path string) (*url.URL, error) {
	if c.baseURL == nil {
		return nil, fmt.Errorf("mt5 bridge URL not set")
	}
	trimmed := strings.TrimSpace(path)
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	ref := *c.baseURL
	ref.Path = strings.TrimRight(ref.Path, "/") + trimmed
	return &ref, nil
}
