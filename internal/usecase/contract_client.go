package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ContractClient asks the contract/document service for the withdrawal
// deadline tied to a deposit's purchase contract. The contract service owns
// the 14-day window; this service only enforces it.
type ContractClient interface {
	// WithdrawalDeadline returns the deadline and whether a contract exists
	// for the deposit at all.
	WithdrawalDeadline(ctx context.Context, depositID string) (time.Time, bool, error)
}

type httpContractClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPContractClient(baseURL string) ContractClient {
	return &httpContractClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *httpContractClient) WithdrawalDeadline(ctx context.Context, depositID string) (time.Time, bool, error) {
	endpoint := fmt.Sprintf("%s/api/contracts/withdrawal-deadline?deposit_id=%s",
		c.baseURL, url.QueryEscape(depositID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return time.Time{}, false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("contract service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return time.Time{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, false, fmt.Errorf("contract service returned %d", resp.StatusCode)
	}

	var body struct {
		Deadline time.Time `json:"deadline"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to decode deadline: %w", err)
	}
	return body.Deadline, true, nil
}
