package spacetraders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papaburgs/spacegui/internal/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithToken("tok"))
}

func TestAgentUnwrapsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/agent", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"symbol":"BURG","credits":175000,"startingFaction":"COSMIC","headquarters":"X1-AB12-A1"}}`))
	})

	a, err := c.Agent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BURG", a.Symbol)
	assert.EqualValues(t, 175000, a.Credits)
	assert.Equal(t, "COSMIC", a.StartingFaction)
}

func TestBodyWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"COSMIC","name":"Cosmic Engineers"}]`))
	})

	f, err := c.Factions(context.Background())
	require.NoError(t, err)
	require.Len(t, f, 1)
	assert.Equal(t, "Cosmic Engineers", f[0].Name)
}

func TestErrorDetailIsVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Ship is already docked"}`))
	})

	_, err := c.Dock(context.Background(), "BURG-1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Ship is already docked", DetailOf(err))
}

func TestErrorDetailFallbacks(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want string
	}{
		{"validation list", 422, `{"detail":[{"msg":"field required"},{"msg":"bad role"}]}`, "field required; bad role"},
		{"upstream shape", 409, `{"error":{"message":"cooldown active","code":4000}}`, "cooldown active"},
		{"no body", 500, ``, "Internal Server Error"},
		{"html body", 502, `<html>bad gateway</html>`, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			})
			_, err := c.Ships(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.want, DetailOf(err))
			_, explained := ServerDetail(err)
			assert.Equal(t, tt.code < 500, explained)
		})
	}
}

func TestDockResultCarriesNav(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ships/BURG-1/dock", r.URL.Path)
		w.Write([]byte(`{"data":{"nav":{"status":"DOCKED","waypointSymbol":"X1-AB12-A1"}}}`))
	})

	res, err := c.Dock(context.Background(), "BURG-1")
	require.NoError(t, err)
	require.NotNil(t, res.Nav)
	assert.Equal(t, types.NavDocked, res.Nav.Status)
	assert.Nil(t, res.Ship)
}

func TestRequestBodies(t *testing.T) {
	var got map[string]any
	var method, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		got = nil
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&got)
		}
		w.Write([]byte(`{"data":{}}`))
	})
	ctx := context.Background()

	_, err := c.Navigate(ctx, "S-1", "X1-AB12-B2")
	require.NoError(t, err)
	assert.Equal(t, "/api/ships/S-1/navigate", path)
	assert.Equal(t, "X1-AB12-B2", got["waypointSymbol"])

	_, err = c.HireCrew(ctx, "S-1", "PILOT")
	require.NoError(t, err)
	assert.Equal(t, "/api/ships/S-1/crew/hire", path)
	assert.Equal(t, "PILOT", got["role"])

	_, err = c.AssignCrew(ctx, "S-1", "c7", "BRIDGE")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/api/ships/S-1/crew/c7/assign", path)

	require.NoError(t, c.FireCrew(ctx, "S-1", "c7"))
	assert.Equal(t, http.MethodDelete, method)

	require.NoError(t, c.ToggleSecurity(ctx, "S-1", types.SecurityCloaking, true))
	assert.Equal(t, "/api/ships/S-1/security/cloaking", path)
	assert.Equal(t, true, got["enabled"])

	_, err = c.ConfigureAutomation(ctx, "mining", AutomationConfig{Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "/api/automation/mining/configure", path)
}

func TestScanKeepsRawPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ships/S-1/scan/systems", r.URL.Path)
		w.Write([]byte(`{"data":{"systems":[{"symbol":"X1-ZZ"}],"cooldown":{"shipSymbol":"S-1","totalSeconds":60,"remainingSeconds":59}}}`))
	})

	res, err := c.Scan(context.Background(), "S-1", "systems")
	require.NoError(t, err)
	assert.Equal(t, "systems", res.Type)
	assert.Contains(t, string(res.Data), "X1-ZZ")
	require.NotNil(t, res.Cooldown)
	assert.Equal(t, 59, res.Cooldown.RemainingSeconds)
	assert.False(t, res.ScannedAt.IsZero())
}

func TestInvalidInputsNeverHitTheServer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})
	ctx := context.Background()

	_, err := c.Scan(ctx, "S-1", "minds")
	assert.Error(t, err)
	_, err = c.Do(ctx, "S-1", Action("selfdestruct"))
	assert.Error(t, err)
	assert.Error(t, c.ToggleSecurity(ctx, "S-1", types.SecurityFeature("shields"), true))
}

func TestShipNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"symbol":"S-1"}]}`))
	})

	_, err := c.Ship(context.Background(), "S-2")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Ship S-2 not found", DetailOf(err))
}

func TestSymbolsAreEscaped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ships/a%2Fb/orbit", r.URL.EscapedPath())
		w.Write([]byte(`{"data":{}}`))
	})
	_, err := c.Orbit(context.Background(), "a/b")
	require.NoError(t, err)
}
