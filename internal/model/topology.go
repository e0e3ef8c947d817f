package model

import "sort"

// TopologyPartition is one entry of the emitted topology document: the
// partition id, its master host id, and the full replica list (non-master
// replicas followed by the master, per spec.md §4.7/§6).
type TopologyPartition struct {
	PartitionID int   `json:"partition_id"`
	Master      int   `json:"master"`
	Replicas    []int `json:"replicas"`
}

// Topology is the externally visible product of the planner: a complete
// mapping of every logical partition to one master host and KFactor
// additional replica hosts.
type Topology struct {
	HostCount    int                 `json:"hostcount"`
	KFactor      int                 `json:"kfactor"`
	SitesPerHost int                 `json:"sites_per_host"`
	Partitions   []TopologyPartition `json:"partitions"`
}

// BuildTopology emits the canonical document for a solved set of
// partitions: iterate in ascending partition-id order, and for each, list
// non-master replicas (ascending host id) followed by the master.
func BuildTopology(cfg ClusterConfig, partitions []*Partition) *Topology {
	sorted := make([]*Partition, len(partitions))
	copy(sorted, partitions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartitionID < sorted[j].PartitionID })

	out := &Topology{
		HostCount:    cfg.HostCount,
		KFactor:      cfg.KFactor,
		SitesPerHost: cfg.SitesPerHost,
		Partitions:   make([]TopologyPartition, 0, len(sorted)),
	}
	for _, p := range sorted {
		replicas := p.SortedReplicaIDs()
		masterID := -1
		if p.Master != nil {
			masterID = p.Master.HostID
			replicas = append(replicas, masterID)
		}
		out.Partitions = append(out.Partitions, TopologyPartition{
			PartitionID: p.PartitionID,
			Master:      masterID,
			Replicas:    replicas,
		})
	}
	return out
}

// PartitionsForHost returns the partition ids a host is responsible for.
// When onlyMasters is true, only partitions the host masters are returned;
// otherwise every partition whose replicas list contains the host.
func PartitionsForHost(topo *Topology, hostID int, onlyMasters bool) []int {
	var out []int
	for _, p := range topo.Partitions {
		if onlyMasters {
			if p.Master == hostID {
				out = append(out, p.PartitionID)
			}
			continue
		}
		for _, r := range p.Replicas {
			if r == hostID {
				out = append(out, p.PartitionID)
				break
			}
		}
	}
	return out
}

// AddHosts increments the topology's host count in place. Callers are
// responsible for ensuring newHosts is a k-safety-preserving quantity (see
// ClusterConfig.ValidateAdd); this helper itself only performs the
// mechanical update spec.md §4.7 describes.
func AddHosts(topo *Topology, newHosts int) {
	topo.HostCount += newHosts
}

// AddPartitions appends new partition entries to the topology in place.
// Each entry's replicas are exactly the given host collection, in the
// order supplied; the caller is expected to have already placed the master
// last per the canonical emission order.
func AddPartitions(topo *Topology, partitionToHosts map[int][]int) {
	ids := make([]int, 0, len(partitionToHosts))
	for id := range partitionToHosts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		hosts := partitionToHosts[id]
		master := -1
		if len(hosts) > 0 {
			master = hosts[len(hosts)-1]
		}
		topo.Partitions = append(topo.Partitions, TopologyPartition{
			PartitionID: id,
			Master:      master,
			Replicas:    hosts,
		})
	}
}
