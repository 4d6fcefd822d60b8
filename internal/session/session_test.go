package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/papaburgs/spacegui/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSelectionIsSharedByReaders(t *testing.T) {
	st := newState("a", time.Now())
	_, ok := st.SelectedShip()
	assert.False(t, ok)

	ship := types.Ship{Symbol: "BURG-1", Nav: types.ShipNav{Status: types.NavInOrbit}}
	st.SelectShip(ship)

	fleetView, ok := st.SelectedShip()
	require.True(t, ok)
	sidebar, ok := st.SelectedShip()
	require.True(t, ok)
	assert.Equal(t, ship, fleetView)
	assert.Equal(t, fleetView, sidebar)

	st.UpdateShip(types.Ship{Symbol: "OTHER-2"})
	got, _ := st.SelectedShip()
	assert.Equal(t, "BURG-1", got.Symbol, "updates for another ship are ignored")

	docked := ship
	docked.Nav.Status = types.NavDocked
	st.UpdateShip(docked)
	got, _ = st.SelectedShip()
	assert.Equal(t, types.NavDocked, got.Nav.Status)

	st.ClearSelection()
	_, ok = st.SelectedShip()
	assert.False(t, ok)
}

func TestPutScanSwitchesTab(t *testing.T) {
	st := newState("a", time.Now())
	st.PutScan(types.ScanResult{Type: "waypoints", Data: json.RawMessage(`[]`)})
	st.PutScan(types.ScanResult{Type: "systems", Data: json.RawMessage(`{"systems":[]}`)})

	assert.Equal(t, "systems", st.ActiveTab())
	scans := st.Scans()
	require.Contains(t, scans, "systems")
	assert.False(t, scans["systems"].ScannedAt.IsZero())
	assert.Equal(t, []string{"systems", "waypoints"}, st.ScanTypes())

	st.ClearScans()
	assert.Empty(t, st.Scans())
	assert.Equal(t, "", st.ActiveTab())
}

func TestSurveysExpire(t *testing.T) {
	now := time.Now()
	st := newState("a", now)
	st.AddSurveys([]types.Survey{
		{Signature: "old", Expiration: now.Add(-time.Minute)},
		{Signature: "new", Expiration: now.Add(time.Hour)},
	})
	live := st.Surveys(now)
	require.Len(t, live, 1)
	assert.Equal(t, "new", live[0].Signature)
}

func TestStoreSweep(t *testing.T) {
	s := NewStore(time.Hour, nil)
	now := time.Now()
	s.now = func() time.Time { return now }

	a := s.Create()
	s.Create()
	assert.Equal(t, 2, s.Len())

	now = now.Add(30 * time.Minute)
	_, ok := s.Get(a.ID)
	require.True(t, ok)

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	_, ok = s.Get(a.ID)
	assert.True(t, ok, "recently used session survives")
}

func TestStoreRunStops(t *testing.T) {
	s := NewStore(time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(25 * time.Millisecond)
	cancel()
	<-done
}

func TestMiddlewareReusesCookie(t *testing.T) {
	s := NewStore(time.Hour, nil)
	var seen []*State
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, FromContext(r.Context()))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/fleet", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())

	require.Len(t, seen, 2)
	assert.Same(t, seen[0], seen[1])

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "stale"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Len(t, rec.Result().Cookies(), 1, "unknown id gets a new session")
	assert.Equal(t, 2, s.Len())
}
