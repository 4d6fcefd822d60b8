package app

import (
	"context"

	"github.com/papaburgs/spacegui/internal/querycache"
	"github.com/papaburgs/spacegui/internal/types"
)

// Cache keys. Ship-scoped keys carry the symbol so one ship's mutation only
// drops its own entries.
const (
	keyAgent      = "agent"
	keyShips      = "ships"
	keyShip       = "ship"
	keyCrew       = "crew"
	keySecurity   = "security"
	keyResources  = "resources"
	keyModInfo    = "modinfo"
	keySystems    = "systems"
	keyWaypoints  = "waypoints"
	keyFactions   = "factions"
	keyEquipment  = "equipment"
	keyAutomation = "automation"
)

func (a *App) agent(ctx context.Context) (types.Agent, error) {
	return querycache.Fetch(ctx, a.cache, keyAgent, a.client.Agent)
}

func (a *App) ships(ctx context.Context) ([]types.Ship, error) {
	return querycache.Fetch(ctx, a.cache, keyShips, a.client.Ships)
}

func (a *App) ship(ctx context.Context, symbol string) (types.Ship, error) {
	return querycache.Fetch(ctx, a.cache, querycache.Key(keyShip, symbol), func(ctx context.Context) (types.Ship, error) {
		return a.client.Ship(ctx, symbol)
	})
}

func (a *App) crew(ctx context.Context, symbol string) ([]types.CrewMember, error) {
	return querycache.Fetch(ctx, a.cache, querycache.Key(keyCrew, symbol), func(ctx context.Context) ([]types.CrewMember, error) {
		return a.client.Crew(ctx, symbol)
	})
}

func (a *App) security(ctx context.Context, symbol string) (types.SecurityStatus, error) {
	return querycache.Fetch(ctx, a.cache, querycache.Key(keySecurity, symbol), func(ctx context.Context) (types.SecurityStatus, error) {
		return a.client.SecurityStatus(ctx, symbol)
	})
}

func (a *App) resources(ctx context.Context, symbol string) (types.ResourceStatus, error) {
	return querycache.Fetch(ctx, a.cache, querycache.Key(keyResources, symbol), func(ctx context.Context) (types.ResourceStatus, error) {
		return a.client.Resources(ctx, symbol)
	})
}

func (a *App) modificationInfo(ctx context.Context, symbol string) (types.ModificationInfo, error) {
	return querycache.Fetch(ctx, a.cache, querycache.Key(keyModInfo, symbol), func(ctx context.Context) (types.ModificationInfo, error) {
		return a.client.ModificationInfo(ctx, symbol)
	})
}

func (a *App) systems(ctx context.Context) ([]types.System, error) {
	return querycache.Fetch(ctx, a.cache, keySystems, a.client.Systems)
}

func (a *App) waypoints(ctx context.Context, system string) ([]types.Waypoint, error) {
	return querycache.Fetch(ctx, a.cache, querycache.Key(keyWaypoints, system), func(ctx context.Context) ([]types.Waypoint, error) {
		return a.client.Waypoints(ctx, system)
	})
}

func (a *App) factions(ctx context.Context) ([]types.Faction, error) {
	return querycache.Fetch(ctx, a.cache, keyFactions, a.client.Factions)
}

func (a *App) equipment(ctx context.Context) ([]types.Equipment, error) {
	return querycache.Fetch(ctx, a.cache, keyEquipment, a.client.Equipment)
}

func (a *App) automation(ctx context.Context) (types.AutomationStatus, error) {
	return querycache.Fetch(ctx, a.cache, keyAutomation, a.client.AutomationStatus)
}

// invalidateShip drops the ship and fleet reads after a mutation.
func (a *App) invalidateShip(symbol string) {
	a.cache.Invalidate(keyShips, keyAgent, querycache.Key(keyShip, symbol))
}
