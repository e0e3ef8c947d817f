package algorithm

import (
	"testing"

	"github.com/devrev/pairdb/topology/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialPartitionIDs(count int) []int {
	ids := make([]int, count)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func uniformHostGroups(hostCount int, rackOf func(hostID int) string) map[int]model.ExtensibleGroupTag {
	groups := make(map[int]model.ExtensibleGroupTag, hostCount)
	for i := 0; i < hostCount; i++ {
		groups[i] = model.ExtensibleGroupTag{RackGroup: rackOf(i), BuddyGroup: "buddy0"}
	}
	return groups
}

func TestGroupAware_SingleRackFullyReplicated(t *testing.T) {
	cfg := model.ClusterConfig{HostCount: 4, SitesPerHost: 8, KFactor: 1}
	hostGroups := uniformHostGroups(4, func(i int) string { return "rack0" })

	topo, err := GroupAware(GroupAwareRequest{
		Config:       cfg,
		HostGroups:   hostGroups,
		PartitionIDs: sequentialPartitionIDs(cfg.PartitionCount()),
	})
	require.NoError(t, err)

	require.Len(t, topo.Partitions, cfg.PartitionCount())
	for _, p := range topo.Partitions {
		assert.Len(t, p.Replicas, cfg.KFactor+1)
	}
}

func TestGroupAware_MastersBalancedAcrossHosts(t *testing.T) {
	cfg := model.ClusterConfig{HostCount: 4, SitesPerHost: 8, KFactor: 1}
	hostGroups := uniformHostGroups(4, func(i int) string {
		return []string{"rackA", "rackA", "rackB", "rackB"}[i]
	})

	topo, err := GroupAware(GroupAwareRequest{
		Config:       cfg,
		HostGroups:   hostGroups,
		PartitionIDs: sequentialPartitionIDs(cfg.PartitionCount()),
	})
	require.NoError(t, err)

	mastersByHost := make(map[int]int)
	for _, p := range topo.Partitions {
		mastersByHost[p.Master]++
	}

	min, max := -1, -1
	for _, count := range mastersByHost {
		if min == -1 || count < min {
			min = count
		}
		if max == -1 || count > max {
			max = count
		}
	}
	assert.LessOrEqual(t, max-min, 1)
}

func TestGroupAware_DiverseRacksSpreadReplicas(t *testing.T) {
	cfg := model.ClusterConfig{HostCount: 4, SitesPerHost: 4, KFactor: 1}
	hostGroups := uniformHostGroups(4, func(i int) string {
		return []string{"rackA", "rackA", "rackB", "rackB"}[i]
	})

	topo, err := GroupAware(GroupAwareRequest{
		Config:       cfg,
		HostGroups:   hostGroups,
		PartitionIDs: sequentialPartitionIDs(cfg.PartitionCount()),
	})
	require.NoError(t, err)

	rackOf := map[int]string{0: "rackA", 1: "rackA", 2: "rackB", 3: "rackB"}
	for _, p := range topo.Partitions {
		masterRack := rackOf[p.Master]
		for _, r := range p.Replicas {
			if r == p.Master {
				continue
			}
			assert.NotEqual(t, masterRack, rackOf[r], "replica should land in a different rack than the master when more than one rack exists")
		}
	}
}

func TestGroupAware_RejoinHonorsPreAssignedMasterAndReplicas(t *testing.T) {
	cfg := model.ClusterConfig{HostCount: 4, SitesPerHost: 8, KFactor: 1}
	hostGroups := uniformHostGroups(4, func(i int) string { return "rack0" })

	topo, err := GroupAware(GroupAwareRequest{
		Config:            cfg,
		HostGroups:        hostGroups,
		PartitionIDs:      sequentialPartitionIDs(cfg.PartitionCount()),
		PartitionMasters:  map[int]int{0: 2},
		PartitionReplicas: map[int][]int{0: {3}},
	})
	require.NoError(t, err)

	var p0 *model.TopologyPartition
	for i := range topo.Partitions {
		if topo.Partitions[i].PartitionID == 0 {
			p0 = &topo.Partitions[i]
		}
	}
	require.NotNil(t, p0)
	assert.Equal(t, 2, p0.Master)
	assert.Contains(t, p0.Replicas, 3)
}

func TestGroupAware_TwoHostsFullyReplicated(t *testing.T) {
	cfg := model.ClusterConfig{HostCount: 2, SitesPerHost: 8, KFactor: 1}
	hostGroups := uniformHostGroups(2, func(i int) string { return "rack0" })

	topo, err := GroupAware(GroupAwareRequest{
		Config:       cfg,
		HostGroups:   hostGroups,
		PartitionIDs: sequentialPartitionIDs(cfg.PartitionCount()),
	})
	require.NoError(t, err)
	assert.Len(t, topo.Partitions, cfg.PartitionCount())
}
