package algorithm

import (
	"testing"

	"github.com/devrev/pairdb/topology/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_EveryPartitionFullyReplicated(t *testing.T) {
	cfg := model.ClusterConfig{HostCount: 4, SitesPerHost: 8, KFactor: 1}
	hostIDs := []int{0, 1, 2, 3}

	topo := Fallback(cfg, hostIDs)

	require.Equal(t, cfg.PartitionCount(), len(topo.Partitions))
	for _, p := range topo.Partitions {
		assert.Len(t, p.Replicas, cfg.KFactor+1)
		assert.Contains(t, p.Replicas, p.Master)
	}
}

func TestFallback_EvenlyDistributesSites(t *testing.T) {
	cfg := model.ClusterConfig{HostCount: 4, SitesPerHost: 8, KFactor: 1}
	hostIDs := []int{0, 1, 2, 3}

	topo := Fallback(cfg, hostIDs)

	perHost := make(map[int]int)
	for _, p := range topo.Partitions {
		for _, r := range p.Replicas {
			perHost[r]++
		}
	}
	for _, id := range hostIDs {
		assert.Equal(t, cfg.SitesPerHost, perHost[id])
	}
}

func TestFallback_KZeroMeansNoReplicas(t *testing.T) {
	cfg := model.ClusterConfig{HostCount: 2, SitesPerHost: 4, KFactor: 0}
	topo := Fallback(cfg, []int{0, 1})

	for _, p := range topo.Partitions {
		assert.Len(t, p.Replicas, 1)
		assert.Equal(t, p.Master, p.Replicas[0])
	}
}
