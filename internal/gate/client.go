// Package gate wraps the network call to the physical gate controller.
package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/johanandu/selfstoragejandu/pkg/config"

	"go.uber.org/zap"
)

// Client sends open commands to the gate controller. An unconfigured
// client (empty URL or token) simulates success, the mode used in
// development and tests where no hardware exists.
type Client struct {
	APIURL     string
	APIToken   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient builds a gate client with a bounded timeout.
func NewClient(cfg *config.GateConfig, logger *zap.Logger) *Client {
	return &Client{
		APIURL:     cfg.APIURL,
		APIToken:   cfg.APIToken,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Logger:     logger,
	}
}

// Configured reports whether real hardware credentials are present.
func (c *Client) Configured() bool {
	return c.APIURL != "" && c.APIToken != ""
}

// TriggerOpen asks the controller to open the gate for a unit/user pair.
// The call is made at most once per authorization; a failure is returned
// to the caller, never retried here.
func (c *Client) TriggerOpen(ctx context.Context, unitID uint, userID string) error {
	if !c.Configured() {
		c.Logger.Info("Gate controller not configured, simulating open",
			zap.Uint("unit_id", unitID),
			zap.String("user_id", userID))
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"unitId": unitID,
		"userId": userID,
		"action": "open",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+"/trigger", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gate controller unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gate controller error: status %d", resp.StatusCode)
	}
	return nil
}
