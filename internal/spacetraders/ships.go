package spacetraders

import (
	"context"
	"fmt"
	"net/http"

	"github.com/papaburgs/spacegui/internal/types"
)

func (c *Client) Agent(ctx context.Context) (types.Agent, error) {
	var a types.Agent
	err := c.get(ctx, "/api/agent", "/api/agent", &a)
	return a, err
}

func (c *Client) Ships(ctx context.Context) ([]types.Ship, error) {
	ships := []types.Ship{}
	err := c.get(ctx, "/api/ships", "/api/ships", &ships)
	return ships, err
}

// Ship re-reads the fleet and picks out one ship.
func (c *Client) Ship(ctx context.Context, symbol string) (types.Ship, error) {
	ships, err := c.Ships(ctx)
	if err != nil {
		return types.Ship{}, err
	}
	for _, s := range ships {
		if s.Symbol == symbol {
			return s, nil
		}
	}
	return types.Ship{}, &APIError{Status: http.StatusNotFound, Path: "/api/ships", Detail: fmt.Sprintf("Ship %s not found", symbol), explained: true}
}

// Action is a ship action that takes no request body.
type Action string

const (
	ActionDock          Action = "dock"
	ActionOrbit         Action = "orbit"
	ActionRefuel        Action = "refuel"
	ActionRepair        Action = "repair"
	ActionScrap         Action = "scrap"
	ActionEmergencyStop Action = "emergency-stop"
)

var simpleActions = map[Action]bool{
	ActionDock:          true,
	ActionOrbit:         true,
	ActionRefuel:        true,
	ActionRepair:        true,
	ActionScrap:         true,
	ActionEmergencyStop: true,
}

func (a Action) Valid() bool {
	return simpleActions[a]
}

// Do posts a body-less action such as dock or orbit.
func (c *Client) Do(ctx context.Context, symbol string, action Action) (types.ActionResult, error) {
	var res types.ActionResult
	if !action.Valid() {
		return res, fmt.Errorf("unknown ship action %q", action)
	}
	err := c.post(ctx, "/api/ships/{symbol}/"+string(action), shipPath(symbol, string(action)), nil, &res)
	return res, err
}

func (c *Client) Dock(ctx context.Context, symbol string) (types.ActionResult, error) {
	return c.Do(ctx, symbol, ActionDock)
}

func (c *Client) Orbit(ctx context.Context, symbol string) (types.ActionResult, error) {
	return c.Do(ctx, symbol, ActionOrbit)
}

func (c *Client) Refuel(ctx context.Context, symbol string) (types.ActionResult, error) {
	return c.Do(ctx, symbol, ActionRefuel)
}

// RepairQuote is the GET side of /repair: what a repair would cost.
func (c *Client) RepairQuote(ctx context.Context, symbol string) (types.Quote, error) {
	var q types.Quote
	err := c.get(ctx, "/api/ships/{symbol}/repair", shipPath(symbol, "repair"), &q)
	return q, err
}

// ScrapQuote is the GET side of /scrap.
func (c *Client) ScrapQuote(ctx context.Context, symbol string) (types.Quote, error) {
	var q types.Quote
	err := c.get(ctx, "/api/ships/{symbol}/scrap", shipPath(symbol, "scrap"), &q)
	return q, err
}

func (c *Client) Navigate(ctx context.Context, symbol, waypoint string) (types.ActionResult, error) {
	var res types.ActionResult
	err := c.post(ctx, "/api/ships/{symbol}/navigate", shipPath(symbol, "navigate"),
		map[string]string{"waypointSymbol": waypoint}, &res)
	return res, err
}

func (c *Client) Jump(ctx context.Context, symbol, system string) (types.ActionResult, error) {
	var res types.ActionResult
	err := c.post(ctx, "/api/ships/{symbol}/jump", shipPath(symbol, "jump"),
		map[string]string{"systemSymbol": system}, &res)
	return res, err
}

func (c *Client) Warp(ctx context.Context, symbol, waypoint string) (types.ActionResult, error) {
	var res types.ActionResult
	err := c.post(ctx, "/api/ships/{symbol}/warp", shipPath(symbol, "warp"),
		map[string]string{"waypointSymbol": waypoint}, &res)
	return res, err
}

// Route asks the backend to plan a multi-hop route to destination.
func (c *Client) Route(ctx context.Context, symbol, destination string) (types.ActionResult, error) {
	var res types.ActionResult
	err := c.post(ctx, "/api/ships/{symbol}/route", shipPath(symbol, "route"),
		map[string]string{"destination": destination}, &res)
	return res, err
}
