// Package invoice wraps the Fakturownia API used to issue VAT invoices
// after a successful checkout.
package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/johanandu/selfstoragejandu/pkg/config"

	"go.uber.org/zap"
)

// Client issues paid invoices. Calls are best-effort: the reconciler logs
// and swallows failures, so this client only has to report them.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Data describes one monthly rental invoice. NIP is the client's tax id;
// checkout collects no tax id today so it arrives empty, but the field is
// part of the contract for when that changes.
type Data struct {
	ClientName  string
	ClientEmail string
	NIP         string
	UnitName    string
	// Price in major units (złote), as Fakturownia expects.
	Price float64
}

// NewClient builds a Fakturownia client for the configured account.
func NewClient(cfg *config.InvoiceConfig, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:    fmt.Sprintf("https://%s.fakturownia.pl", cfg.AccountName),
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Logger:     logger,
	}
}

// CreatePaidInvoice issues a VAT invoice marked as already paid.
// Fakturownia assigns the invoice number itself.
func (c *Client) CreatePaidInvoice(ctx context.Context, data Data) error {
	today := time.Now().Format("2006-01-02")

	var taxNo interface{}
	if data.NIP != "" {
		taxNo = data.NIP
	}

	payload, err := json.Marshal(map[string]interface{}{
		"api_token": c.APIKey,
		"invoice": map[string]interface{}{
			"kind":          "vat",
			"number":        nil,
			"sell_date":     today,
			"client_name":   data.ClientName,
			"client_email":  data.ClientEmail,
			"client_tax_no": taxNo,
			"positions": []map[string]interface{}{
				{
					"name":     "Wynajem kontenera " + data.UnitName,
					"quantity": 1,
					"price":    data.Price,
					"tax":      23,
				},
			},
			"paid":         1,
			"payment_date": today,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/invoices.json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoicing provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("invoicing provider error: status %d", resp.StatusCode)
	}

	c.Logger.Info("Invoice issued",
		zap.String("client_email", data.ClientEmail),
		zap.String("unit_name", data.UnitName))
	return nil
}
