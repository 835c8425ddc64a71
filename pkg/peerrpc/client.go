// Package peerrpc implements the JSON-RPC contract the Notary Protocol
// Driver (pkg/notary) uses to reach a peer system: the single
// getbestproofroot endpoint.
package peerrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brindlechain/notarycore/pkg/proofroot"
)

// NoAgreement is the sentinel BestProofRootIndex value meaning the peer
// found no agreed root.
const NoAgreement = -1

// Request is the getbestproofroot request body. Proof roots decode from
// the "proofroots" key.
type Request struct {
	ProofRoots   []proofroot.ProofRoot `json:"proofroots"`
	LastConfirmed uint32               `json:"lastconfirmed"`
}

// Response is the getbestproofroot response body.
type Response struct {
	BestProofRootIndex int                       `json:"bestproofrootindex"`
	ValidProofRoots    []uint32                  `json:"validproofroots"`
	LatestProofRoot    proofroot.ProofRoot       `json:"latestproofroot"`
	CurrencyStates      []json.RawMessage        `json:"currencystates"`
}

// Client is a thin JSON-RPC-over-HTTP client for one peer system.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New constructs a Client against endpoint with the given request timeout.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetBestProofRoot calls the peer's getbestproofroot endpoint. This
// is the sole suspension point in the core, and it is always invoked with
// the caller's locks released; the caller is responsible for the
// post-return stale-block recheck.
func (c *Client) GetBestProofRoot(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("peerrpc: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("peerrpc: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("peerrpc: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("peerrpc: unexpected status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("peerrpc: decode response: %w", err)
	}
	return &out, nil
}
