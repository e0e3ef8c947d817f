package model

import "sort"

// Partition is a mutable planning record for one logical partition: its
// current master (nullable until assigned), its set of replica hosts, and a
// countdown of how many more replicas (including the master) it still
// needs. Invariant: master is never also present in Replicas, and
// len(Replicas) + (1 if Master != nil) + NeededReplicas == KFactor+1 at all
// times.
type Partition struct {
	PartitionID    int
	Master         *Host
	Replicas       map[int]*Host // hostID -> host, excludes the master
	NeededReplicas int
}

// NewPartition creates a partition record awaiting neededReplicas total
// assignments (master + replicas).
func NewPartition(partitionID int, neededReplicas int) *Partition {
	return &Partition{
		PartitionID:    partitionID,
		Replicas:       make(map[int]*Host),
		NeededReplicas: neededReplicas,
	}
}

// OverReplicationError is raised if an assignment is attempted on a
// partition that has no remaining need. It signals a programmer error in
// the placement strategy and is never expected in a correct implementation.
type OverReplicationError struct {
	PartitionID int
}

func (e *OverReplicationError) Error() string {
	return "attempted to replicate partition too many times"
}

// DecrementNeeded decrements the outstanding replica count, panicking (per
// spec.md §7, this is a fatal invariant violation) if none remain.
func (p *Partition) DecrementNeeded() {
	if p.NeededReplicas == 0 {
		panic(&OverReplicationError{PartitionID: p.PartitionID})
	}
	p.NeededReplicas--
}

// IncrementNeeded restores one unit of outstanding need, used when undoing
// a tentative replica assignment during backtracking.
func (p *Partition) IncrementNeeded() {
	p.NeededReplicas++
}

// HasHost reports whether host currently holds this partition, as either
// master or replica.
func (p *Partition) HasHost(host *Host) bool {
	if p.Master != nil && p.Master.HostID == host.HostID {
		return true
	}
	_, ok := p.Replicas[host.HostID]
	return ok
}

// SortedReplicaIDs returns the replica host IDs (excluding the master) in
// ascending order, for deterministic iteration and emission.
func (p *Partition) SortedReplicaIDs() []int {
	ids := make([]int, 0, len(p.Replicas))
	for id := range p.Replicas {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// AssignMaster records host as the master of p, decrementing its need.
func (p *Partition) AssignMaster(host *Host) {
	p.Master = host
	host.MasterPartitions[p.PartitionID] = p
	p.DecrementNeeded()
}

// AssignReplica records host as a non-master replica of p, recording the
// replication edge between host and the current master on both endpoints.
func (p *Partition) AssignReplica(host *Host) {
	p.Replicas[host.HostID] = host
	p.DecrementNeeded()
	host.ReplicaPartitions[p.PartitionID] = p
	if p.Master != nil {
		addConnection(p.Master, host, p.PartitionID)
	}
}

// UnassignReplica undoes AssignReplica, used by the backtracking search.
func (p *Partition) UnassignReplica(host *Host) {
	if p.Master == host {
		return
	}
	if _, ok := p.Replicas[host.HostID]; !ok {
		return
	}
	if p.Master != nil {
		removeConnection(p.Master, host, p.PartitionID)
	}
	delete(host.ReplicaPartitions, p.PartitionID)
	delete(p.Replicas, host.HostID)
	p.IncrementNeeded()
}
