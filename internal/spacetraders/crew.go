package spacetraders

import (
	"context"
	"net/http"

	"github.com/papaburgs/spacegui/internal/types"
)

func (c *Client) Crew(ctx context.Context, symbol string) ([]types.CrewMember, error) {
	crew := []types.CrewMember{}
	err := c.get(ctx, "/api/ships/{symbol}/crew", shipPath(symbol, "crew"), &crew)
	return crew, err
}

func (c *Client) HireCrew(ctx context.Context, symbol, role string) (types.CrewMember, error) {
	var m types.CrewMember
	err := c.post(ctx, "/api/ships/{symbol}/crew/hire", shipPath(symbol, "crew", "hire"),
		map[string]string{"role": role}, &m)
	return m, err
}

func (c *Client) FireCrew(ctx context.Context, symbol, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/ships/{symbol}/crew/{id}", shipPath(symbol, "crew", id), nil, nil)
}

func (c *Client) TrainCrew(ctx context.Context, symbol, id, skill string) (types.CrewMember, error) {
	var m types.CrewMember
	err := c.post(ctx, "/api/ships/{symbol}/crew/{id}/train", shipPath(symbol, "crew", id, "train"),
		map[string]string{"skill": skill}, &m)
	return m, err
}

func (c *Client) AssignCrew(ctx context.Context, symbol, id, station string) (types.CrewMember, error) {
	var m types.CrewMember
	err := c.do(ctx, http.MethodPut, "/api/ships/{symbol}/crew/{id}/assign", shipPath(symbol, "crew", id, "assign"),
		map[string]string{"station": station}, &m)
	return m, err
}
