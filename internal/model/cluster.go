package model

import "fmt"

// ClusterConfig is the immutable (hostCount, sitesPerHost, kfactor) triple
// that drives the planner. It mirrors the fields carried on the emitted
// topology document.
type ClusterConfig struct {
	HostCount    int
	SitesPerHost int
	KFactor      int
}

// PartitionCount derives the number of logical partitions: (H*S) / (K+1).
func (c ClusterConfig) PartitionCount() int {
	return (c.HostCount * c.SitesPerHost) / (c.KFactor + 1)
}

// Validate checks the cluster invariants in the order the planner relies on
// for its diagnostic message: positive host count, positive sites per host,
// host count greater than k-factor, positive partition count, and total
// sites divisible by k-factor+1.
func (c ClusterConfig) Validate() (bool, string) {
	if c.HostCount <= 0 {
		return false, "The number of hosts must be > 0."
	}
	if c.SitesPerHost <= 0 {
		return false, "The number of sites per host must be > 0."
	}
	if c.HostCount <= c.KFactor {
		return false, fmt.Sprintf("%d servers required for K-safety = %d", c.KFactor+1, c.KFactor)
	}
	if c.PartitionCount() == 0 {
		return false, fmt.Sprintf("Insufficient execution site count to achieve K-safety of %d", c.KFactor)
	}
	if (c.HostCount*c.SitesPerHost)%(c.KFactor+1) != 0 {
		return false, "The cluster has more hosts and sites per hosts than required for the " +
			"requested k-safety value. The number of total sites (sitesPerHost * hostCount) must be a " +
			"whole multiple of the number of copies of the database (k-safety + 1)"
	}
	return true, "Cluster config contains no detected errors"
}

// ValidateAdd validates the configuration in the context of a host-addition
// request: the configuration itself must validate, and if origHostCount is
// a real prior size smaller than the new HostCount, the delta must be
// exactly a positive multiple of KFactor+1 and may not exceed KFactor+1 in
// one step.
func (c ClusterConfig) ValidateAdd(origHostCount int) (bool, string) {
	ok, msg := c.Validate()
	if !ok {
		return false, msg
	}
	if origHostCount > 0 && origHostCount < c.HostCount {
		delta := c.HostCount - origHostCount
		if delta > c.KFactor+1 {
			return false, fmt.Sprintf("You can only add %d servers at a time for k=%d", c.KFactor+1, c.KFactor)
		}
		if delta%(c.KFactor+1) != 0 {
			return false, fmt.Sprintf("Must add %d servers at a time for k=%d", c.KFactor+1, c.KFactor)
		}
	}
	return true, msg
}
