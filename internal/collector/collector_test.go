package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/papaburgs/spacegui/internal/db"
	"github.com/papaburgs/spacegui/internal/metrics"
	"github.com/papaburgs/spacegui/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	credits atomic.Int64
	fail    error
}

func (f *fakeSource) Agent(ctx context.Context) (types.Agent, error) {
	if f.fail != nil {
		return types.Agent{}, f.fail
	}
	return types.Agent{Symbol: "BURG", Credits: f.credits.Add(100)}, nil
}

func (f *fakeSource) Ships(ctx context.Context) ([]types.Ship, error) {
	return []types.Ship{{Symbol: "BURG-1", Nav: types.ShipNav{Status: types.NavDocked}}}, nil
}

func TestIngestStoresSnapshot(t *testing.T) {
	ctx := context.Background()
	d, err := db.Connect(ctx, ":memory:", "")
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, db.InitSchema(ctx, d))

	m := metrics.New()
	src := &fakeSource{}
	c := New(d, src, m)
	base := time.Now().Add(-time.Minute)
	tick := 0
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	c.Ingest(ctx)
	c.Ingest(ctx)

	recs, err := db.AgentRecords(ctx, d, "BURG", time.Hour)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(100), recs[0].Credits)
	assert.Equal(t, int64(200), recs[1].Credits)
	assert.Equal(t, 1, recs[1].ShipCount)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Snapshots.WithLabelValues("ok")))

	src.fail = errors.New("backend down")
	c.Ingest(ctx)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Snapshots.WithLabelValues("error")))
}

func TestIngestOnceReturnsFailure(t *testing.T) {
	ctx := context.Background()
	d, err := db.Connect(ctx, ":memory:", "")
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, db.InitSchema(ctx, d))

	m := metrics.New()
	down := errors.New("backend down")
	c := New(d, &fakeSource{fail: down}, m)

	err = c.IngestOnce(ctx)
	require.ErrorIs(t, err, down)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Snapshots.WithLabelValues("error")))

	recs, err := db.AgentRecords(ctx, d, "BURG", time.Hour)
	require.NoError(t, err)
	assert.Empty(t, recs)

	c.src = &fakeSource{}
	require.NoError(t, c.IngestOnce(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Snapshots.WithLabelValues("ok")))
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d, err := db.Connect(ctx, ":memory:", "")
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, db.InitSchema(ctx, d))

	c := New(d, &fakeSource{}, nil)
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(35 * time.Millisecond)
	cancel()
	<-done

	recs, err := db.AgentRecords(context.Background(), d, "BURG", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
}
