package algorithm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/devrev/pairdb/topology/internal/model"
)

// ErrPlacementInfeasible is returned when the backtracking search exhausts
// every candidate permutation for a non-rejoin request. The planner
// responds by falling back to the round-robin strategy.
var ErrPlacementInfeasible = errors.New("unable to find feasible partition replica assignment for the specified grouping")

// GroupAwareRequest bundles the inputs the group-aware strategy needs,
// scoped to the subset of hosts and partitions it should solve (the buddy
// strategy calls this once per buddy group with a restricted view).
type GroupAwareRequest struct {
	Config            model.ClusterConfig
	HostGroups        map[int]model.ExtensibleGroupTag
	PartitionIDs      []int       // the exact partition ids to place, in id order
	PartitionMasters  map[int]int // partitionID -> hostID, pre-assigned
	PartitionReplicas map[int][]int
}

// GroupAware implements the backtracking, fault-domain- and
// connection-aware placement strategy described in spec.md §4.5.
func GroupAware(req GroupAwareRequest) (*model.Topology, error) {
	hosts, err := buildHosts(req.HostGroups)
	if err != nil {
		return nil, err
	}
	tree := model.NewGroupTree(hosts)
	groupCount := tree.GroupCount()

	partitions := make([]*model.Partition, len(req.PartitionIDs))
	partitionsByID := make(map[int]*model.Partition, len(req.PartitionIDs))
	for i, pid := range req.PartitionIDs {
		p := model.NewPartition(pid, req.Config.KFactor+1)
		partitions[i] = p
		partitionsByID[pid] = p
	}

	// Step 1: master distribution, round-robin over the canonical flatten,
	// honoring any pre-specified masters (rejoin) without consuming a turn
	// of the round-robin cursor.
	flattened := tree.FlattenCanonical()
	if len(flattened) == 0 {
		return nil, fmt.Errorf("group-aware placement: no hosts available")
	}
	cursor := 0
	for _, p := range partitions {
		if hostID, ok := req.PartitionMasters[p.PartitionID]; ok {
			host, ok := hosts[hostID]
			if !ok {
				return nil, fmt.Errorf("group-aware placement: pre-assigned master host %d for partition %d not present in host groups", hostID, p.PartitionID)
			}
			p.AssignMaster(host)
			continue
		}
		host := flattened[cursor%len(flattened)]
		cursor++
		p.AssignMaster(host)
	}

	// Step 2: honor pre-existing replicas (rejoin) before any new search.
	for _, pid := range sortedIntKeys(req.PartitionReplicas) {
		p := partitionsByID[pid]
		for _, hostID := range req.PartitionReplicas[pid] {
			host, ok := hosts[hostID]
			if !ok {
				return nil, fmt.Errorf("group-aware placement: pre-assigned replica host %d for partition %d not present in host groups", hostID, pid)
			}
			assignReplicaHiding(req.Config.SitesPerHost, tree, p, host)
		}
	}

	isRejoin := len(req.PartitionMasters) > 0 || len(req.PartitionReplicas) > 0
	hadRejoinInputs := len(req.PartitionMasters) > 0 || len(req.PartitionReplicas) > 0

	if req.Config.KFactor > 0 {
		candidates := make(map[int][]*model.Host, len(partitions))
		for _, p := range partitions {
			deques := tree.SortNodesByDistance(p.Master.Group)
			candidates[p.PartitionID] = sortAndFlattenCandidates(p.Master, deques)
		}

		if !recursivelyAssignReplicas(isRejoin, groupCount, req.Config.SitesPerHost, tree, partitions, candidates) {
			return nil, ErrPlacementInfeasible
		}
	}

	// Step 5: sanity checks.
	for _, id := range sortedHostIDsOfMap(hosts) {
		h := hosts[id]
		if h.PartitionCount() != req.Config.SitesPerHost && !hadRejoinInputs {
			return nil, fmt.Errorf("group-aware placement: host %d holds %d partitions, want %d", id, h.PartitionCount(), req.Config.SitesPerHost)
		}
	}
	for _, p := range partitions {
		if p.NeededReplicas != 0 && !hadRejoinInputs {
			return nil, fmt.Errorf("group-aware placement: partition %d is missing %d replicas", p.PartitionID, p.NeededReplicas)
		}
	}

	return model.BuildTopology(req.Config, partitions), nil
}

// recursivelyAssignReplicas is the backtracking search described in
// spec.md §4.5 step 4: for each partition still needing replicas, try
// candidates in order, recursing after each tentative assignment and
// undoing it if the recursive search fails.
func recursivelyAssignReplicas(
	isRejoin bool,
	groupCount, sitesPerHost int,
	tree *model.GroupTree,
	partitions []*model.Partition,
	candidates map[int][]*model.Host,
) bool {
	for _, p := range partitions {
		if p.NeededReplicas == 0 {
			continue
		}

		for _, candidate := range pickBestCandidates(sitesPerHost, groupCount, p, candidates[p.PartitionID]) {
			assignReplicaHiding(sitesPerHost, tree, p, candidate)

			if recursivelyAssignReplicas(isRejoin, groupCount, sitesPerHost, tree, partitions, candidates) {
				return true
			}
			removeReplicaShowing(sitesPerHost, tree, p, candidate)
		}

		if !isRejoin && p.NeededReplicas > 0 {
			return false
		}
	}
	return true
}

// assignReplicaHiding assigns candidate as a replica of p, hiding the host
// from the group tree once it reaches capacity.
func assignReplicaHiding(sitesPerHost int, tree *model.GroupTree, p *model.Partition, candidate *model.Host) {
	if candidate.PartitionCount() == sitesPerHost {
		tree.RemoveHost(candidate)
		return
	}
	if p.Master == candidate || p.HasHost(candidate) {
		return
	}
	p.AssignReplica(candidate)
	if candidate.PartitionCount() == sitesPerHost {
		tree.RemoveHost(candidate)
	}
}

// removeReplicaShowing undoes assignReplicaHiding, restoring the host to
// the group tree if it now has spare capacity.
func removeReplicaShowing(sitesPerHost int, tree *model.GroupTree, p *model.Partition, candidate *model.Host) {
	if p.Master == candidate {
		return
	}
	if _, ok := p.Replicas[candidate.HostID]; !ok {
		return
	}
	p.UnassignReplica(candidate)
	if candidate.PartitionCount() < sitesPerHost {
		tree.AddHost(candidate)
	}
}

func buildHosts(hostGroups map[int]model.ExtensibleGroupTag) (map[int]*model.Host, error) {
	hosts := make(map[int]*model.Host, len(hostGroups))
	ids := make([]int, 0, len(hostGroups))
	for id := range hostGroups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		group, err := model.ParseGroupLabel(hostGroups[id].RackGroup)
		if err != nil {
			return nil, err
		}
		hosts[id] = model.NewHost(id, group)
	}
	return hosts, nil
}

func sortedIntKeys(m map[int][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedHostIDsOfMap(hosts map[int]*model.Host) []int {
	ids := make([]int, 0, len(hosts))
	for id := range hosts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
