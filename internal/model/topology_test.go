package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTopology_OrdersReplicasWithMasterLast(t *testing.T) {
	cfg := ClusterConfig{HostCount: 3, SitesPerHost: 2, KFactor: 2}

	master := NewHost(2, nil)
	r1 := NewHost(1, nil)
	r2 := NewHost(3, nil)

	p := NewPartition(0, 3)
	p.AssignMaster(master)
	p.AssignReplica(r1)
	p.AssignReplica(r2)

	topo := BuildTopology(cfg, []*Partition{p})

	assert.Equal(t, 3, topo.HostCount)
	assert.Equal(t, 2, topo.KFactor)
	assert.Len(t, topo.Partitions, 1)
	assert.Equal(t, 0, topo.Partitions[0].PartitionID)
	assert.Equal(t, 2, topo.Partitions[0].Master)
	assert.Equal(t, []int{1, 3, 2}, topo.Partitions[0].Replicas)
}

func TestBuildTopology_SortsPartitionsAscending(t *testing.T) {
	cfg := ClusterConfig{HostCount: 2, SitesPerHost: 1, KFactor: 0}

	p2 := NewPartition(2, 1)
	p2.AssignMaster(NewHost(1, nil))
	p0 := NewPartition(0, 1)
	p0.AssignMaster(NewHost(1, nil))
	p1 := NewPartition(1, 1)
	p1.AssignMaster(NewHost(1, nil))

	topo := BuildTopology(cfg, []*Partition{p2, p0, p1})

	ids := make([]int, len(topo.Partitions))
	for i, tp := range topo.Partitions {
		ids[i] = tp.PartitionID
	}
	assert.Equal(t, []int{0, 1, 2}, ids)
}

func TestPartitionsForHost(t *testing.T) {
	topo := &Topology{
		Partitions: []TopologyPartition{
			{PartitionID: 0, Master: 1, Replicas: []int{2, 3, 1}},
			{PartitionID: 1, Master: 2, Replicas: []int{1, 3, 2}},
		},
	}

	assert.ElementsMatch(t, []int{0}, PartitionsForHost(topo, 1, true))
	assert.ElementsMatch(t, []int{0, 1}, PartitionsForHost(topo, 1, false))
}

func TestAddHosts(t *testing.T) {
	topo := &Topology{HostCount: 4}
	AddHosts(topo, 2)
	assert.Equal(t, 6, topo.HostCount)
}

func TestAddPartitions(t *testing.T) {
	topo := &Topology{Partitions: []TopologyPartition{{PartitionID: 0, Master: 1, Replicas: []int{1}}}}

	AddPartitions(topo, map[int][]int{
		2: {3, 4},
		1: {5, 6},
	})

	assert.Len(t, topo.Partitions, 3)
	assert.Equal(t, 1, topo.Partitions[1].PartitionID)
	assert.Equal(t, 6, topo.Partitions[1].Master)
	assert.Equal(t, 2, topo.Partitions[2].PartitionID)
	assert.Equal(t, 4, topo.Partitions[2].Master)
}
