package spacetraders

import (
	"context"
	"net/url"

	"github.com/papaburgs/spacegui/internal/types"
)

func (c *Client) Systems(ctx context.Context) ([]types.System, error) {
	systems := []types.System{}
	err := c.get(ctx, "/api/systems", "/api/systems", &systems)
	return systems, err
}

func (c *Client) System(ctx context.Context, symbol string) (types.System, error) {
	var s types.System
	err := c.get(ctx, "/api/systems/{symbol}", "/api/systems/"+url.PathEscape(symbol), &s)
	return s, err
}

func (c *Client) Waypoints(ctx context.Context, system string) ([]types.Waypoint, error) {
	wps := []types.Waypoint{}
	err := c.get(ctx, "/api/systems/{symbol}/waypoints", "/api/systems/"+url.PathEscape(system)+"/waypoints", &wps)
	return wps, err
}

func (c *Client) Factions(ctx context.Context) ([]types.Faction, error) {
	factions := []types.Faction{}
	err := c.get(ctx, "/api/factions", "/api/factions", &factions)
	return factions, err
}

func (c *Client) Equipment(ctx context.Context) ([]types.Equipment, error) {
	eq := []types.Equipment{}
	err := c.get(ctx, "/api/equipment", "/api/equipment", &eq)
	return eq, err
}

func (c *Client) AutomationStatus(ctx context.Context) (types.AutomationStatus, error) {
	var s types.AutomationStatus
	err := c.get(ctx, "/api/automation/status", "/api/automation/status", &s)
	return s, err
}

// AutomationConfig is the body of /automation/{feature}/configure.
type AutomationConfig struct {
	Enabled  bool              `json:"enabled"`
	Settings map[string]string `json:"settings,omitempty"`
}

func (c *Client) ConfigureAutomation(ctx context.Context, feature string, cfg AutomationConfig) (types.AutomationFeature, error) {
	var f types.AutomationFeature
	err := c.post(ctx, "/api/automation/{feature}/configure",
		"/api/automation/"+url.PathEscape(feature)+"/configure", cfg, &f)
	return f, err
}

type RouteRequest struct {
	ShipSymbol   string   `json:"shipSymbol"`
	Destinations []string `json:"destinations"`
}

func (c *Client) OptimizeRoute(ctx context.Context, req RouteRequest) (types.RouteOptimization, error) {
	var r types.RouteOptimization
	err := c.post(ctx, "/api/automation/route-optimization", "/api/automation/route-optimization", req, &r)
	return r, err
}
