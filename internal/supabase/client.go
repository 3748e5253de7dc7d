// Package supabase fetches the AOI defect dictionary from the hosted
// Supabase REST endpoint that owns it.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/floorreports/apiserver/config"
	"github.com/floorreports/apiserver/types"
)

const (
	defectsPath  = "/rest/v1/defects"
	defectsQuery = "select=*&order=code.asc"
	userAgent    = "floor-reports/1.0"
	maxBodyBytes = 8 << 20
)

// ErrNotConfigured is returned when the remote URL or key is missing.
var ErrNotConfigured = errors.New("supabase configuration is incomplete; set SUPABASE_URL and SUPABASE_KEY")

// Client issues authenticated requests against the Supabase REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(cfg config.RemoteConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// defectRow mirrors one row of the remote defects table.
type defectRow struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	DefaultOperation string `json:"default_operation"`
	ComponentClass   string `json:"component_class"`
	Category         string `json:"category"`
}

// FetchDefectCodes returns every row of the remote defects table. Rows with
// an empty code or name are skipped with a warning rather than failing the
// whole fetch.
func (c *Client) FetchDefectCodes(ctx context.Context) ([]types.DefectCode, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s%s?%s", c.baseURL, defectsPath, defectsQuery)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("defects request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading defects response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = resp.Status
		}
		return nil, fmt.Errorf("defects request returned HTTP %d: %s", resp.StatusCode, detail)
	}

	var rows []defectRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("defects response could not be decoded as JSON: %w", err)
	}

	codes := make([]types.DefectCode, 0, len(rows))
	for _, row := range rows {
		code := strings.TrimSpace(row.Code)
		if code == "" {
			c.logger.Warn("skipping remote defect with empty code")
			continue
		}
		name := strings.TrimSpace(row.Name)
		if name == "" {
			c.logger.Warn("skipping remote defect with missing name", "code", code)
			continue
		}

		operation := strings.TrimSpace(row.DefaultOperation)
		switch operation {
		case types.OperationSMTAOI, types.OperationTHAOI, types.OperationEither:
		default:
			operation = types.OperationEither
		}

		codes = append(codes, types.DefectCode{
			Code:             code,
			Name:             name,
			Description:      strings.TrimSpace(row.Description),
			DefaultOperation: operation,
			ComponentClass:   strings.TrimSpace(row.ComponentClass),
			Category:         strings.TrimSpace(row.Category),
		})
	}

	return codes, nil
}
