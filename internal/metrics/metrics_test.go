package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.Actions.WithLabelValues("dock", "ok").Inc()
	m.Snapshots.WithLabelValues("ok").Add(2)
	m.LiveClients.Set(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("dock", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Snapshots.WithLabelValues("ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `spacegui_ship_actions_total{action="dock",outcome="ok"} 1`)
	assert.Contains(t, string(body), "spacegui_live_clients 3")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Sessions.Set(5)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Sessions))
}
