// Package algorithm implements the three partition-placement strategies
// that share the node/partition planning model: fallback (round-robin),
// group-aware (backtracking search with soft/hard constraints), and buddy
// (partition-space partitioning across disjoint host subsets, each solved
// by group-aware).
package algorithm

import (
	"sort"

	"github.com/devrev/pairdb/topology/internal/model"
)

// Fallback deterministically spreads partitions across hosts ignoring
// groups entirely. It walks H*S site slots: slot i is assigned to
// partition (i mod P) on host hostIDs[i/S]. Each partition's replica list
// is then sorted by host id, and its master is replicas[p mod (K+1)].
//
// Because it makes no attempt at group diversity or connection spreading,
// it is the strategy of last resort: it must succeed for every valid
// configuration, which is what lets the planner fall back to it when
// group-aware placement is infeasible.
func Fallback(cfg model.ClusterConfig, hostIDs []int) *model.Topology {
	sorted := make([]int, len(hostIDs))
	copy(sorted, hostIDs)
	sort.Ints(sorted)

	partitionCount := cfg.PartitionCount()
	hostsByPartition := make([][]int, partitionCount)

	slot := 0
	for i := 0; i < cfg.SitesPerHost*cfg.HostCount; i++ {
		partition := slot % partitionCount
		slot++
		hostForSite := sorted[i/cfg.SitesPerHost]
		hostsByPartition[partition] = append(hostsByPartition[partition], hostForSite)
	}

	partitions := make([]*model.Partition, partitionCount)
	for pid := 0; pid < partitionCount; pid++ {
		replicas := hostsByPartition[pid]
		sort.Ints(replicas)

		p := model.NewPartition(pid, cfg.KFactor+1)
		masterIdx := pid % (cfg.KFactor + 1)
		masterID := replicas[masterIdx]

		hostsByID := make(map[int]*model.Host, len(replicas))
		for _, id := range replicas {
			hostsByID[id] = model.NewHost(id, nil)
		}
		p.AssignMaster(hostsByID[masterID])
		for _, id := range replicas {
			if id == masterID {
				continue
			}
			p.AssignReplica(hostsByID[id])
		}
		partitions[pid] = p
	}

	return model.BuildTopology(cfg, partitions)
}
