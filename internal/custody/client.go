package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

// Client is a Custodian backed by an external custody service API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new custody service client.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// VaultAddress returns the configured marketplace vault account.
func (c *Client) VaultAddress() models.Address {
	return c.config.Vault
}

type approvalResponse struct {
	Owner    models.Address `json:"owner"`
	Approved bool           `json:"approved"`
}

// VerifyApproval checks ownership and vault approval with the custody service.
func (c *Client) VerifyApproval(ctx context.Context, owner models.Address, asset models.AssetRef) error {
	path := fmt.Sprintf("/api/assets/%s/%s/approval?operator=%s",
		asset.Contract, asset.TokenID.String(), c.config.Vault)

	req, err := c.newRequest(ctx, "GET", path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("approval request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		return ErrNotAuthorized
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("custody API error (status %d): %s", resp.StatusCode, body)
	}

	var approval approvalResponse
	if err := json.NewDecoder(resp.Body).Decode(&approval); err != nil {
		return fmt.Errorf("decoding approval response: %w", err)
	}

	if approval.Owner != owner || !approval.Approved {
		return ErrNotAuthorized
	}

	return nil
}

type transferRequest struct {
	Reference string         `json:"reference"`
	From      models.Address `json:"from"`
	To        models.Address `json:"to"`
	Contract  models.Address `json:"nft_contract"`
	TokenID   models.Amount  `json:"token_id"`
}

// Transfer moves custody of the asset through the custody service.
// The generated reference makes an accidental replay of the same transfer
// detectable on the service side.
func (c *Client) Transfer(ctx context.Context, from, to models.Address, asset models.AssetRef) (*Receipt, error) {
	body, err := json.Marshal(transferRequest{
		Reference: uuid.NewString(),
		From:      from,
		To:        to,
		Contract:  asset.Contract,
		TokenID:   asset.TokenID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding transfer request: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", "/api/transfers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transfer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusConflict {
		return nil, ErrTransferRejected
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: custody API status %d: %s", ErrTransferRejected, resp.StatusCode, respBody)
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("decoding transfer receipt: %w", err)
	}
	if receipt.At.IsZero() {
		receipt.At = time.Now().UTC()
	}

	return &receipt, nil
}

// newRequest creates an HTTP request with authentication headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}
