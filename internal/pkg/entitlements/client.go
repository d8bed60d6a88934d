package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boxbinhq/boxbin/internal/pkg/env"
)

const defaultRevenueCatAPIBaseURL = "https://api.revenuecat.com/v1"

// Client talks to the RevenueCat REST API. Only the public app key is used
// here; the secret key has no business in this code path.
type Client struct {
	APIKey     string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from REVENUECAT_PUBLIC_API_KEY and an
// optional REVENUECAT_API_BASE_URL override.
func NewClientFromEnv() *Client {
	return &Client{
		APIKey:     strings.TrimSpace(env.GetEnv("REVENUECAT_PUBLIC_API_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("REVENUECAT_API_BASE_URL", defaultRevenueCatAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type subscriberResponse struct {
	Subscriber struct {
		Entitlements map[string]struct {
			ExpiresDate       *time.Time `json:"expires_date"`
			ProductIdentifier string     `json:"product_identifier"`
		} `json:"entitlements"`
	} `json:"subscriber"`
}

type offeringsResponse struct {
	CurrentOfferingID string `json:"current_offering_id"`
	Offerings         []struct {
		Identifier  string `json:"identifier"`
		Description string `json:"description"`
		Packages    []struct {
			Identifier                string `json:"identifier"`
			PlatformProductIdentifier string `json:"platform_product_identifier"`
		} `json:"packages"`
	} `json:"offerings"`
}

// GetSubscriber fetches the current entitlement state for an app user and
// reduces it to a Snapshot. An entitlement is active when its expiry is
// absent or in the future.
func (c *Client) GetSubscriber(ctx context.Context, appUserID string) (Snapshot, error) {
	id := strings.TrimSpace(appUserID)
	if id == "" {
		return Snapshot{}, errors.New("app user id is required")
	}

	body, err := c.get(ctx, "/subscribers/"+url.PathEscape(id))
	if err != nil {
		return Snapshot{}, err
	}

	var resp subscriberResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode subscriber response: %w", err)
	}

	now := time.Now()
	var active []string
	for name, e := range resp.Subscriber.Entitlements {
		if e.ExpiresDate == nil || e.ExpiresDate.After(now) {
			active = append(active, name)
		}
	}

	return Snapshot{
		AppUserID: id,
		Active:    active,
		Raw:       json.RawMessage(body),
		FetchedAt: now,
	}, nil
}

// GetCurrentOffering fetches the package catalog for the app user and
// returns the offering marked current, or nil when none is configured.
func (c *Client) GetCurrentOffering(ctx context.Context, appUserID string) (*Offering, error) {
	id := strings.TrimSpace(appUserID)
	if id == "" {
		return nil, errors.New("app user id is required")
	}

	body, err := c.get(ctx, "/subscribers/"+url.PathEscape(id)+"/offerings")
	if err != nil {
		return nil, err
	}

	var resp offeringsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode offerings response: %w", err)
	}

	for _, o := range resp.Offerings {
		if o.Identifier != resp.CurrentOfferingID {
			continue
		}
		offering := &Offering{
			Identifier:  o.Identifier,
			Description: o.Description,
		}
		for _, p := range o.Packages {
			offering.Packages = append(offering.Packages, Package{
				Identifier:        p.Identifier,
				ProductIdentifier: p.PlatformProductIdentifier,
			})
		}
		return offering, nil
	}
	return nil, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("REVENUECAT_PUBLIC_API_KEY is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("revenuecat request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return body, nil
}
