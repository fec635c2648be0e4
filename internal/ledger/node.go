package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"docproof/pkg/domain"
	"docproof/pkg/domainerr"
	"docproof/pkg/platform/sentinel"
)

// NodeConfig configures the HTTP client for a registry node.
type NodeConfig struct {
	BaseURL string
	Network string
	// ConfirmTimeout bounds the confirmation wait on Register and Verify.
	ConfirmTimeout time.Duration
	// RequestTimeout bounds read-only calls.
	RequestTimeout time.Duration
}

// NodeClient implements Client against a registry node's HTTP surface. The
// node wraps the contract and blocks register/verify responses until the
// transaction is final, so a successful response here means confirmed.
//
// Endpoints:
//
//	POST /contract/register            {digest, metadata} -> {txRef, sequence}
//	POST /contract/verify              {digest}           -> {existed, record, txRef}
//	GET  /contract/documents/{digest}                     -> record
//	GET  /contract/documents/{digest}/exists              -> {exists}
//	GET  /contract/documents?offset=&limit=               -> {total, digests}
//	GET  /contract/owners/{owner}/documents               -> {count, digests}
//
// Rejections arrive as {"error": "<reason>"} with the contract's symbolic
// reason; see errors.go for the mapping.
type NodeClient struct {
	base           string
	network        string
	confirmTimeout time.Duration
	http           *http.Client
}

// NewNodeClient constructs a node client. The underlying connection is the
// process-wide ledger dependency: construct once in main, inject everywhere,
// substitute Memory in tests.
func NewNodeClient(cfg NodeConfig) *NodeClient {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 90 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &NodeClient{
		base:           cfg.BaseURL,
		network:        cfg.Network,
		confirmTimeout: cfg.ConfirmTimeout,
		http:           &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type nodeRecord struct {
	Digest       string `json:"digest"`
	Owner        string `json:"owner"`
	RegisteredAt int64  `json:"registeredAt"`
	Metadata     string `json:"metadata"`
	Exists       bool   `json:"exists"`
}

func (r nodeRecord) toRecord() *Record {
	return &Record{
		Digest:       domain.Digest(r.Digest),
		Owner:        r.Owner,
		RegisteredAt: time.Unix(r.RegisteredAt, 0).UTC(),
		Metadata:     r.Metadata,
		Exists:       r.Exists,
	}
}

func (c *NodeClient) Register(ctx context.Context, d domain.Digest, metadata string) (RegisterResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	var out struct {
		TxRef    string `json:"txRef"`
		Sequence uint64 `json:"sequence"`
	}
	err := c.post(ctx, "/contract/register", map[string]string{
		"digest":   d.String(),
		"metadata": metadata,
	}, &out)
	if err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{TxRef: out.TxRef, Sequence: out.Sequence, Network: c.network}, nil
}

func (c *NodeClient) Verify(ctx context.Context, d domain.Digest) (VerifyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	var out struct {
		Existed bool        `json:"existed"`
		Record  *nodeRecord `json:"record"`
		TxRef   string      `json:"txRef"`
	}
	err := c.post(ctx, "/contract/verify", map[string]string{"digest": d.String()}, &out)
	if err != nil {
		// Verifying an unregistered digest is an expected outcome, not a
		// failure: fold the contract's not-found back into the result shape.
		if domainerr.HasCode(err, domainerr.CodeNotFound) {
			return VerifyResult{Existed: false}, nil
		}
		return VerifyResult{}, err
	}
	result := VerifyResult{Existed: out.Existed, TxRef: out.TxRef}
	if out.Record != nil {
		result.Record = out.Record.toRecord()
	}
	return result, nil
}

func (c *NodeClient) Fetch(ctx context.Context, d domain.Digest) (Record, error) {
	var out nodeRecord
	if err := c.get(ctx, "/contract/documents/"+d.String(), &out); err != nil {
		return Record{}, err
	}
	return *out.toRecord(), nil
}

func (c *NodeClient) ExistsView(ctx context.Context, d domain.Digest) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	if err := c.get(ctx, "/contract/documents/"+d.String()+"/exists", &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

func (c *NodeClient) ListAll(ctx context.Context, offset, limit int) ([]domain.Digest, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	var out struct {
		Digests []string `json:"digests"`
	}
	if err := c.get(ctx, "/contract/documents?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	digests := make([]domain.Digest, len(out.Digests))
	for i, s := range out.Digests {
		digests[i] = domain.Digest(s)
	}
	return digests, nil
}

func (c *NodeClient) TotalCount(ctx context.Context) (int, error) {
	var out struct {
		Total int `json:"total"`
	}
	if err := c.get(ctx, "/contract/documents?offset=0&limit=0", &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

func (c *NodeClient) ListByOwner(ctx context.Context, owner string) ([]domain.Digest, error) {
	var out struct {
		Digests []string `json:"digests"`
	}
	if err := c.get(ctx, "/contract/owners/"+url.PathEscape(owner)+"/documents", &out); err != nil {
		return nil, err
	}
	digests := make([]domain.Digest, len(out.Digests))
	for i, s := range out.Digests {
		digests[i] = domain.Digest(s)
	}
	return digests, nil
}

func (c *NodeClient) CountByOwner(ctx context.Context, owner string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, "/contract/owners/"+url.PathEscape(owner)+"/documents", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *NodeClient) Network() string {
	return c.network
}

func (c *NodeClient) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *NodeClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, path, out)
}

func (c *NodeClient) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if req.Method == http.MethodPost {
			return translateTransport(op, err)
		}
		return domainerr.Wrap(domainerr.CodeLedgerUnavailable, op+": ledger node unreachable",
			fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return domainerr.Wrap(domainerr.CodeLedgerUnavailable, op+": ledger node error", sentinel.ErrUnavailable)
	}
	if resp.StatusCode >= 400 {
		var envelope struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr != nil || envelope.Error == "" {
			return domainerr.Wrap(domainerr.CodeLedgerUnavailable, op+": unreadable node rejection", sentinel.ErrUnavailable)
		}
		return translateReason(envelope.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
