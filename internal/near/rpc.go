package near

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	finalityFinal = "final"

	defaultCallTimeout = 30 * time.Second
)

// Observer is notified once per RPC round trip.
type Observer func(method string, elapsed time.Duration, err error)

// Client talks JSON-RPC 2.0 to a NEAR node over HTTP.
type Client struct {
	httpClient *http.Client
	nodeURL    string
	timeout    time.Duration
	observe    Observer
	nextID     atomic.Uint64
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCallTimeout bounds every RPC round trip; zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

func NewClient(nodeURL string, opts ...Option) (*Client, error) {
	nodeURL = strings.TrimSpace(nodeURL)
	if nodeURL == "" {
		return nil, errors.New("near: node url is required")
	}

	c := &Client{
		httpClient: &http.Client{},
		nodeURL:    nodeURL,
		timeout:    defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) NodeURL() string { return c.nodeURL }

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is the error object returned by nearcore.
type RPCError struct {
	Name    string          `json:"name"`
	Cause   *RPCErrorCause  `json:"cause,omitempty"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type RPCErrorCause struct {
	Name string          `json:"name"`
	Info json.RawMessage `json:"info,omitempty"`
}

func (e *RPCError) Error() string {
	var b strings.Builder
	b.WriteString("near rpc")
	if e.Cause != nil && e.Cause.Name != "" {
		b.WriteString(": ")
		b.WriteString(e.Cause.Name)
	} else if e.Name != "" {
		b.WriteString(": ")
		b.WriteString(e.Name)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Data) > 0 && string(e.Data) != "null" {
		b.WriteString(": ")
		b.Write(e.Data)
	}
	return b.String()
}

// CauseName returns the nearcore error cause, e.g. UNKNOWN_ACCOUNT.
func (e *RPCError) CauseName() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Name
}

func (c *Client) call(ctx context.Context, method string, params any, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.observe != nil {
			c.observe(method, time.Since(start), err)
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      strconv.FormatUint(c.nextID.Add(1), 10),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.Wrapf(err, "near: marshal %s request", method)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nodeURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "near: %s", method)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "near: read %s response", method)
	}

	var rr rpcResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("near: %s: status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return errors.Wrapf(err, "near: decode %s response", method)
	}
	if rr.Error != nil {
		return rr.Error
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("near: %s: status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return errors.Wrapf(err, "near: decode %s result", method)
	}
	return nil
}

// queryError covers nodes that report view failures inside the result body.
type queryError struct {
	Error string `json:"error"`
}

func (c *Client) query(ctx context.Context, params map[string]any, out any) error {
	var raw json.RawMessage
	if err := c.call(ctx, "query", params, &raw); err != nil {
		return err
	}

	var qe queryError
	if err := json.Unmarshal(raw, &qe); err == nil && qe.Error != "" {
		return errors.Newf("near: query %v: %s", params["request_type"], qe.Error)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "near: decode query %v", params["request_type"])
	}
	return nil
}

type AccountView struct {
	Amount       string `json:"amount"`
	Locked       string `json:"locked"`
	CodeHash     string `json:"code_hash"`
	StorageUsage uint64 `json:"storage_usage"`
	BlockHeight  uint64 `json:"block_height"`
	BlockHash    string `json:"block_hash"`
}

func (c *Client) ViewAccount(ctx context.Context, accountID string) (*AccountView, error) {
	var out AccountView
	err := c.query(ctx, map[string]any{
		"request_type": "view_account",
		"finality":     finalityFinal,
		"account_id":   accountID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type AccessKeyView struct {
	Nonce       uint64          `json:"nonce"`
	Permission  json.RawMessage `json:"permission"`
	BlockHeight uint64          `json:"block_height"`
	BlockHash   string          `json:"block_hash"`
}

func (c *Client) ViewAccessKey(ctx context.Context, accountID string, pk PublicKey) (*AccessKeyView, error) {
	var out AccessKeyView
	err := c.query(ctx, map[string]any{
		"request_type": "view_access_key",
		"finality":     finalityFinal,
		"account_id":   accountID,
		"public_key":   pk.String(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type CallResult struct {
	Result      []byte
	Logs        []string
	BlockHeight uint64
	BlockHash   string
}

type callResultWire struct {
	Result      []int    `json:"result"`
	Logs        []string `json:"logs"`
	BlockHeight uint64   `json:"block_height"`
	BlockHash   string   `json:"block_hash"`
}

// CallFunction runs a view method; args are the raw (JSON) argument bytes.
func (c *Client) CallFunction(ctx context.Context, accountID, method string, args []byte) (*CallResult, error) {
	var w callResultWire
	err := c.query(ctx, map[string]any{
		"request_type": "call_function",
		"finality":     finalityFinal,
		"account_id":   accountID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(args),
	}, &w)
	if err != nil {
		return nil, err
	}

	// result comes back as a JSON array of byte values
	res := make([]byte, len(w.Result))
	for i, v := range w.Result {
		if v < 0 || v > 255 {
			return nil, errors.Newf("near: call_function result byte %d out of range: %d", i, v)
		}
		res[i] = byte(v)
	}
	return &CallResult{Result: res, Logs: w.Logs, BlockHeight: w.BlockHeight, BlockHash: w.BlockHash}, nil
}

type ProtocolConfig struct {
	ChainID       string `json:"chain_id"`
	RuntimeConfig struct {
		StorageAmountPerByte string `json:"storage_amount_per_byte"`
	} `json:"runtime_config"`
}

func (c *Client) ProtocolConfig(ctx context.Context) (*ProtocolConfig, error) {
	var out ProtocolConfig
	if err := c.call(ctx, "EXPERIMENTAL_protocol_config", map[string]any{"finality": finalityFinal}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecutionStatus is the final status of a transaction. Pending holds the
// bare-string states (NotStarted, Started).
type ExecutionStatus struct {
	SuccessValue     *string         `json:"SuccessValue,omitempty"`
	SuccessReceiptID *string         `json:"SuccessReceiptId,omitempty"`
	Failure          json.RawMessage `json:"Failure,omitempty"`
	Pending          string          `json:"-"`
}

func (s *ExecutionStatus) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &s.Pending)
	}
	type plain ExecutionStatus
	return json.Unmarshal(b, (*plain)(s))
}

func (s ExecutionStatus) Failed() bool {
	return len(s.Failure) > 0 && string(s.Failure) != "null"
}

type FinalExecutionOutcome struct {
	Status      ExecutionStatus `json:"status"`
	Transaction struct {
		Hash       string `json:"hash"`
		SignerID   string `json:"signer_id"`
		ReceiverID string `json:"receiver_id"`
	} `json:"transaction"`
}

// TxFailure is returned when a transaction was included but did not succeed.
type TxFailure struct {
	Hash    string
	Failure json.RawMessage
}

func (e *TxFailure) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Hash, string(e.Failure))
}

// BroadcastTxCommit submits a signed transaction and waits for its final outcome.
func (c *Client) BroadcastTxCommit(ctx context.Context, signedTxBase64 string) (*FinalExecutionOutcome, error) {
	var out FinalExecutionOutcome
	if err := c.call(ctx, "broadcast_tx_commit", []string{signedTxBase64}, &out); err != nil {
		return nil, err
	}
	if out.Status.Failed() {
		return &out, &TxFailure{Hash: out.Transaction.Hash, Failure: out.Status.Failure}
	}
	return &out, nil
}
