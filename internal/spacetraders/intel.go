package spacetraders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/papaburgs/spacegui/internal/types"
)

// ScanTypes are the scans the backend accepts under /scan/{type}.
var ScanTypes = []string{"systems", "waypoints", "ships"}

func ValidScanType(t string) bool {
	for _, s := range ScanTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Scan runs a scan and returns the payload untouched, with the cooldown
// pulled out when the server sent one. ScannedAt is our clock, not the server's.
func (c *Client) Scan(ctx context.Context, symbol, scanType string) (types.ScanResult, error) {
	res := types.ScanResult{Type: scanType}
	if !ValidScanType(scanType) {
		return res, fmt.Errorf("unknown scan type %q", scanType)
	}
	var raw json.RawMessage
	if err := c.post(ctx, "/api/ships/{symbol}/scan/{type}", shipPath(symbol, "scan", scanType), nil, &raw); err != nil {
		return res, err
	}
	var cd struct {
		Cooldown *types.Cooldown `json:"cooldown"`
	}
	// scans of some types come back as a bare list
	_ = json.Unmarshal(raw, &cd)
	res.Data = raw
	res.Cooldown = cd.Cooldown
	res.ScannedAt = time.Now().UTC()
	return res, nil
}

func (c *Client) Survey(ctx context.Context, symbol string) (types.ActionResult, error) {
	var res types.ActionResult
	err := c.post(ctx, "/api/ships/{symbol}/survey", shipPath(symbol, "survey"), nil, &res)
	return res, err
}

func (c *Client) SecurityStatus(ctx context.Context, symbol string) (types.SecurityStatus, error) {
	var s types.SecurityStatus
	err := c.get(ctx, "/api/ships/{symbol}/security/{feature}", shipPath(symbol, "security", "status"), &s)
	return s, err
}

// ToggleSecurity sets a feature on or off. The returned status is not
// trusted for display, callers re-read SecurityStatus.
func (c *Client) ToggleSecurity(ctx context.Context, symbol string, feature types.SecurityFeature, enabled bool) error {
	if !feature.Valid() {
		return fmt.Errorf("unknown security feature %q", feature)
	}
	return c.post(ctx, "/api/ships/{symbol}/security/{feature}", shipPath(symbol, "security", string(feature)),
		map[string]bool{"enabled": enabled}, nil)
}

func (c *Client) Resources(ctx context.Context, symbol string) (types.ResourceStatus, error) {
	var r types.ResourceStatus
	err := c.get(ctx, "/api/ships/{symbol}/resources", shipPath(symbol, "resources"), &r)
	return r, err
}

// ResourceAction runs a resource subsystem action such as refine or transfer.
func (c *Client) ResourceAction(ctx context.Context, symbol, action string, params map[string]any) (types.ActionResult, error) {
	var res types.ActionResult
	if params == nil {
		params = map[string]any{}
	}
	err := c.post(ctx, "/api/ships/{symbol}/resources/{action}", shipPath(symbol, "resources", action), params, &res)
	return res, err
}
