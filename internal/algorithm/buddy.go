package algorithm

import (
	"fmt"
	"sort"

	"github.com/devrev/pairdb/topology/internal/model"
)

// ErrBuddyNotApplicable signals that the host set carries only a single
// buddy group, so partition-space splitting would do nothing useful; the
// caller should fall through to the plain group-aware strategy instead.
var ErrBuddyNotApplicable = fmt.Errorf("buddy placement not applicable: host set carries only one buddy group")

// ErrInsufficientGroupDiversity is returned when the buddy groups are too
// small to host a full replica set each.
var ErrInsufficientGroupDiversity = fmt.Errorf("insufficient buddy groups to satisfy the requested k-safety")

// Buddy implements the buddy-group placement strategy described in
// spec.md §4.6: hosts are partitioned by buddy group, and the partition id
// space is split proportionally across those groups, each solved
// independently by the group-aware strategy using only its own hosts and
// rack-awareness groups.
func Buddy(
	cfg model.ClusterConfig,
	hostGroups map[int]model.ExtensibleGroupTag,
	partitionMasters map[int]int,
	partitionReplicas map[int][]int,
) (*model.Topology, error) {
	buddyGroups := make(map[string][]int)
	for hostID, tag := range hostGroups {
		buddyGroups[tag.BuddyGroup] = append(buddyGroups[tag.BuddyGroup], hostID)
	}

	if len(buddyGroups) <= 1 {
		return nil, ErrBuddyNotApplicable
	}

	buddyKeys := make([]string, 0, len(buddyGroups))
	for k := range buddyGroups {
		buddyKeys = append(buddyKeys, k)
		sort.Ints(buddyGroups[k])
	}
	sort.Strings(buddyKeys)

	groupCount := len(buddyKeys)
	minGroupSize := -1
	for _, k := range buddyKeys {
		if minGroupSize == -1 || len(buddyGroups[k]) < minGroupSize {
			minGroupSize = len(buddyGroups[k])
		}
	}
	if minGroupSize < cfg.KFactor+1 {
		return nil, ErrInsufficientGroupDiversity
	}

	groupSizes := make([]int, groupCount)
	for i, key := range buddyKeys {
		groupSizes[i] = len(buddyGroups[key])
	}

	partitionCount := cfg.PartitionCount()
	partitionIDRanges := splitPartitionSpace(partitionCount, groupSizes)

	partitions := make([]*model.Partition, 0, partitionCount)

	for i, key := range buddyKeys {
		groupHostIDs := buddyGroups[key]
		groupHostSet := make(map[int]struct{}, len(groupHostIDs))
		for _, id := range groupHostIDs {
			groupHostSet[id] = struct{}{}
		}

		groupHostGroups := make(map[int]model.ExtensibleGroupTag, len(groupHostIDs))
		for _, id := range groupHostIDs {
			groupHostGroups[id] = hostGroups[id]
		}

		groupMasters := make(map[int]int)
		for pid, hostID := range partitionMasters {
			if _, ok := groupHostSet[hostID]; ok {
				groupMasters[pid] = hostID
			}
		}
		groupReplicas := make(map[int][]int)
		for pid, hostIDs := range partitionReplicas {
			for _, hostID := range hostIDs {
				if _, ok := groupHostSet[hostID]; ok {
					groupReplicas[pid] = append(groupReplicas[pid], hostID)
				}
			}
		}

		groupCfg := model.ClusterConfig{
			HostCount:    len(groupHostIDs),
			SitesPerHost: cfg.SitesPerHost,
			KFactor:      cfg.KFactor,
		}

		result, err := GroupAware(GroupAwareRequest{
			Config:            groupCfg,
			HostGroups:        groupHostGroups,
			PartitionIDs:      partitionIDRanges[i],
			PartitionMasters:  groupMasters,
			PartitionReplicas: groupReplicas,
		})
		if err != nil {
			return nil, fmt.Errorf("buddy placement: group %q: %w", key, err)
		}

		for _, tp := range result.Partitions {
			p := model.NewPartition(tp.PartitionID, cfg.KFactor+1)
			hostByID := make(map[int]*model.Host, len(tp.Replicas))
			for _, id := range tp.Replicas {
				hostByID[id] = model.NewHost(id, nil)
			}
			masterHost := hostByID[tp.Master]
			p.AssignMaster(masterHost)
			for _, id := range tp.Replicas {
				if id == tp.Master {
					continue
				}
				p.AssignReplica(hostByID[id])
			}
			partitions = append(partitions, p)
		}
	}

	return model.BuildTopology(cfg, partitions), nil
}

// splitPartitionSpace divides [0, partitionCount) into contiguous ranges
// weighted by groupSizes, matching ClusterConfig.java's buddy-group split:
// each boundary is a cumulative `partitionCount * groupSizes[i] / total`,
// and the last group absorbs whatever rounding leaves over.
func splitPartitionSpace(partitionCount int, groupSizes []int) [][]int {
	total := 0
	for _, size := range groupSizes {
		total += size
	}

	ranges := make([][]int, len(groupSizes))
	start := 0
	for i, size := range groupSizes {
		end := start + (partitionCount*size)/total
		if i == len(groupSizes)-1 {
			end = partitionCount
		}

		ids := make([]int, 0, end-start)
		for j := start; j < end; j++ {
			ids = append(ids, j)
		}
		ranges[i] = ids
		start = end
	}
	return ranges
}
