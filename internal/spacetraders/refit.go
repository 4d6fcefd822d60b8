package spacetraders

import (
	"context"

	"github.com/papaburgs/spacegui/internal/types"
)

func (c *Client) ModificationInfo(ctx context.Context, symbol string) (types.ModificationInfo, error) {
	var m types.ModificationInfo
	err := c.get(ctx, "/api/ships/{symbol}/modification-info", shipPath(symbol, "modification-info"), &m)
	return m, err
}

func (c *Client) Install(ctx context.Context, symbol, equipment string) (types.ActionResult, error) {
	var res types.ActionResult
	err := c.post(ctx, "/api/ships/{symbol}/install", shipPath(symbol, "install"),
		map[string]string{"symbol": equipment}, &res)
	return res, err
}

func (c *Client) Remove(ctx context.Context, symbol, equipment string) (types.ActionResult, error) {
	var res types.ActionResult
	err := c.post(ctx, "/api/ships/{symbol}/remove", shipPath(symbol, "remove"),
		map[string]string{"symbol": equipment}, &res)
	return res, err
}

// Customization is the body of /customize.
type Customization struct {
	Name     string            `json:"name,omitempty"`
	Paint    string            `json:"paint,omitempty"`
	Settings map[string]string `json:"settings,omitempty"`
}

func (c *Client) Customize(ctx context.Context, symbol string, cust Customization) (types.ActionResult, error) {
	var res types.ActionResult
	err := c.post(ctx, "/api/ships/{symbol}/customize", shipPath(symbol, "customize"), cust, &res)
	return res, err
}
