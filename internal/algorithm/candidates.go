package algorithm

import (
	"sort"

	"github.com/devrev/pairdb/topology/internal/model"
)

func groupsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func anyReplicaSharesGroup(candidate *model.Host, p *model.Partition) bool {
	for _, r := range p.Replicas {
		if groupsEqual(candidate.Group, r.Group) {
			return true
		}
	}
	return false
}

// pickBestCandidates filters a partition's ordered candidate list down to
// the hosts worth trying next: qualified candidates (available capacity,
// not already holding the partition, and—if there's more than one group and
// no replicas assigned yet—in a different group from the master), further
// narrowed to preferred candidates (qualified and in a group distinct from
// the master's and from every already-chosen replica's) whenever any exist.
func pickBestCandidates(sitesPerHost, groupCount int, p *model.Partition, candidates []*model.Host) []*model.Host {
	var qualified, preferred []*model.Host

	for _, c := range candidates {
		if c.PartitionCount() == sitesPerHost {
			continue
		}
		if p.HasHost(c) {
			continue
		}
		if groupCount > 1 && len(p.Replicas) == 0 && groupsEqual(c.Group, p.Master.Group) {
			continue
		}

		qualified = append(qualified, c)

		if groupCount == 1 || (!groupsEqual(c.Group, p.Master.Group) && !anyReplicaSharesGroup(c, p)) {
			preferred = append(preferred, c)
		}
	}

	if len(preferred) > 0 {
		return preferred
	}
	return qualified
}

// sortAndFlattenCandidates stably sorts each distance-ordered deque by
// (ascending connections to the master, ascending total replication
// factor, ascending master-partition count), then concatenates the deques
// in their original farthest-to-nearest order.
func sortAndFlattenCandidates(master *model.Host, deques [][]*model.Host) []*model.Host {
	var flat []*model.Host
	for _, deque := range deques {
		sorted := make([]*model.Host, len(deque))
		copy(sorted, deque)
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := sorted[i], sorted[j]
			ca, cb := master.ConnectionCount(a.HostID), master.ConnectionCount(b.HostID)
			if ca != cb {
				return ca < cb
			}
			ra, rb := a.ReplicationFactor(), b.ReplicationFactor()
			if ra != rb {
				return ra < rb
			}
			return len(a.MasterPartitions) < len(b.MasterPartitions)
		})
		flat = append(flat, sorted...)
	}
	return flat
}
