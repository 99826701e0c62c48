package local

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shestoi/iapdemo/internal/storekit"
)

// ProductConfig describes one product the local environment sells.
type ProductConfig struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	Locale         string          `json:"locale"`
	Hosted         bool            `json:"hosted"`
	ContentVersion string          `json:"content_version"`
	ContentLength  int64           `json:"content_length"`
}

// Config is the local testing configuration.
type Config struct {
	Products []ProductConfig `json:"products"`
	// CanMakePayments defaults to true when absent.
	CanMakePayments *bool `json:"can_make_payments"`
	// AskToBuy turns every purchase into a deferred transaction.
	AskToBuy bool `json:"ask_to_buy"`
	// CancelPurchases makes every purchase fail as cancelled by the user.
	CancelPurchases bool `json:"cancel_purchases"`
	// FailPurchases, when set, is the error message of every purchase.
	FailPurchases string `json:"fail_purchases"`
	// PreviouslyPurchased lists product ids returned by a restore.
	PreviouslyPurchased []string `json:"previously_purchased"`
	// FailRestore, when set, is the error message of every restore.
	FailRestore string `json:"fail_restore"`
	// LatencyMS delays every answer.
	LatencyMS int `json:"latency_ms"`
}

// LoadConfig reads a JSON configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read storekit config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode storekit config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Products))
	for i, p := range c.Products {
		if p.ID == "" {
			return fmt.Errorf("products[%d]: id is required", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("products[%d]: duplicate id %s", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Price.IsNegative() {
			return fmt.Errorf("products[%d]: price must not be negative", i)
		}
	}
	if c.LatencyMS < 0 {
		return fmt.Errorf("latency_ms must not be negative")
	}
	return nil
}

func (c Config) canMakePayments() bool {
	return c.CanMakePayments == nil || *c.CanMakePayments
}

func (c Config) latency() time.Duration {
	return time.Duration(c.LatencyMS) * time.Millisecond
}

func (p ProductConfig) product() storekit.Product {
	return storekit.Product{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Price:        p.Price,
		CurrencyCode: p.Currency,
		Locale:       p.Locale,
		Hosted:       p.Hosted,
	}
}
