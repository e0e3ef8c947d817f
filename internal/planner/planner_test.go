package planner

import (
	"context"
	"sync"
	"testing"

	pplerrors "github.com/devrev/pairdb/topology/internal/errors"
	"github.com/devrev/pairdb/topology/internal/metrics"
	"github.com/devrev/pairdb/topology/internal/model"
	"github.com/devrev/pairdb/topology/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// sharedMetrics is created once for the whole package: promauto registers
// each collector on the default registry, and a second NewPlannerMetrics
// call would panic on duplicate registration.
var (
	sharedMetrics     *metrics.PlannerMetrics
	sharedMetricsOnce sync.Once
)

func testMetrics() *metrics.PlannerMetrics {
	sharedMetricsOnce.Do(func() {
		sharedMetrics = metrics.NewPlannerMetrics()
	})
	return sharedMetrics
}

// fakeCache is a minimal in-memory TopologyCache double, standing in for
// Redis in tests that don't need a real cache backend.
type fakeCache struct {
	mu    sync.Mutex
	byKey map[string]*model.Topology
}

func newFakeCache() *fakeCache {
	return &fakeCache{byKey: make(map[string]*model.Topology)}
}

func (c *fakeCache) Get(ctx context.Context, clusterID string) (*model.Topology, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	topo, ok := c.byKey[clusterID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return topo, nil
}

func (c *fakeCache) Set(ctx context.Context, clusterID string, topo *model.Topology) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[clusterID] = topo
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, clusterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byKey, clusterID)
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }
func (c *fakeCache) Close() error                   { return nil }

func newTestPlanner() (*Planner, *store.MemoryTopologyStore, *fakeCache) {
	s := store.NewMemoryTopologyStore()
	c := newFakeCache()
	p := NewPlanner(s, c, testMetrics(), zap.NewNop())
	return p, s, c
}

func uniformRackGroups(hostCount int) map[int]model.ExtensibleGroupTag {
	groups := make(map[int]model.ExtensibleGroupTag, hostCount)
	for i := 0; i < hostCount; i++ {
		groups[i] = model.ExtensibleGroupTag{RackGroup: "rack0", BuddyGroup: "buddy0"}
	}
	return groups
}

func TestPlanner_Plan_InvalidConfigIsRejected(t *testing.T) {
	p, _, _ := newTestPlanner()

	_, err := p.Plan(context.Background(), Request{
		ClusterID: "c1",
		Config:    model.ClusterConfig{HostCount: 0, SitesPerHost: 4, KFactor: 1},
	})

	require.Error(t, err)
	var pe *pplerrors.PlannerError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, pplerrors.ErrCodeConfigInvalid, pe.Code)
}

func TestPlanner_Plan_ForceFallbackShortCircuits(t *testing.T) {
	p, s, c := newTestPlanner()
	cfg := model.ClusterConfig{HostCount: 4, SitesPerHost: 8, KFactor: 1}

	topo, err := p.Plan(context.Background(), Request{
		ClusterID:     "c1",
		Config:        cfg,
		HostGroups:    uniformRackGroups(4),
		ForceFallback: true,
	})
	require.NoError(t, err)
	require.Len(t, topo.Partitions, cfg.PartitionCount())

	versions, err := s.ListTopologyVersions(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, versions)

	cached, err := c.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, topo, cached)
}

func TestPlanner_Plan_UsesGroupAwareForSingleBuddyGroup(t *testing.T) {
	p, _, _ := newTestPlanner()
	cfg := model.ClusterConfig{HostCount: 4, SitesPerHost: 8, KFactor: 1}

	topo, err := p.Plan(context.Background(), Request{
		ClusterID:  "c1",
		Config:     cfg,
		HostGroups: uniformRackGroups(4),
	})
	require.NoError(t, err)
	assert.Len(t, topo.Partitions, cfg.PartitionCount())
	for _, part := range topo.Partitions {
		assert.Len(t, part.Replicas, cfg.KFactor+1)
	}
}

func TestPlanner_Plan_MultipleBuddyGroupsUsesBuddyStrategy(t *testing.T) {
	p, _, _ := newTestPlanner()
	cfg := model.ClusterConfig{HostCount: 4, SitesPerHost: 4, KFactor: 1}

	hostGroups := make(map[int]model.ExtensibleGroupTag, 4)
	for i := 0; i < 4; i++ {
		buddy := "buddy0"
		if i >= 2 {
			buddy = "buddy1"
		}
		hostGroups[i] = model.ExtensibleGroupTag{RackGroup: "rack0", BuddyGroup: buddy}
	}

	topo, err := p.Plan(context.Background(), Request{
		ClusterID:  "c1",
		Config:     cfg,
		HostGroups: hostGroups,
	})
	require.NoError(t, err)
	assert.Len(t, topo.Partitions, cfg.PartitionCount())
	for _, part := range topo.Partitions {
		buddy := hostGroups[part.Master].BuddyGroup
		for _, r := range part.Replicas {
			assert.Equal(t, buddy, hostGroups[r].BuddyGroup)
		}
	}
}

func TestPlanner_Plan_SuccessivePersistsIncrementVersion(t *testing.T) {
	p, s, _ := newTestPlanner()
	cfg := model.ClusterConfig{HostCount: 2, SitesPerHost: 4, KFactor: 0}

	for i := 0; i < 3; i++ {
		_, err := p.Plan(context.Background(), Request{
			ClusterID:  "c-versions",
			Config:     cfg,
			HostGroups: uniformRackGroups(2),
		})
		require.NoError(t, err)
	}

	versions, err := s.ListTopologyVersions(context.Background(), "c-versions")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, versions)
}
