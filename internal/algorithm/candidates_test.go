package algorithm

import (
	"testing"

	"github.com/devrev/pairdb/topology/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestPickBestCandidates_ExcludesFullHostsAndExistingHolders(t *testing.T) {
	master := model.NewHost(1, []string{"rack1"})
	full := model.NewHost(2, []string{"rack2"})
	already := model.NewHost(3, []string{"rack3"})
	fresh := model.NewHost(4, []string{"rack4"})

	p := model.NewPartition(0, 3)
	p.AssignMaster(master)

	// fill "full" to capacity
	otherPartition := model.NewPartition(1, 1)
	otherPartition.AssignMaster(full)

	p.AssignReplica(already)

	got := pickBestCandidates(1, 4, p, []*model.Host{full, already, fresh})
	assert.NotContains(t, got, full)
	assert.NotContains(t, got, already)
	assert.Contains(t, got, fresh)
}

func TestPickBestCandidates_PrefersDifferentGroupWhenMultipleGroups(t *testing.T) {
	master := model.NewHost(1, []string{"rack1"})
	sameGroup := model.NewHost(2, []string{"rack1"})
	diffGroup := model.NewHost(3, []string{"rack2"})

	p := model.NewPartition(0, 3)
	p.AssignMaster(master)

	got := pickBestCandidates(8, 2, p, []*model.Host{sameGroup, diffGroup})
	assert.Equal(t, []*model.Host{diffGroup}, got)
}

func TestPickBestCandidates_SingleGroupAllowsSameGroup(t *testing.T) {
	master := model.NewHost(1, []string{"rack1"})
	other := model.NewHost(2, []string{"rack1"})

	p := model.NewPartition(0, 3)
	p.AssignMaster(master)

	got := pickBestCandidates(8, 1, p, []*model.Host{other})
	assert.Equal(t, []*model.Host{other}, got)
}

func TestSortAndFlattenCandidates_OrdersByConnectionsThenReplicationFactor(t *testing.T) {
	master := model.NewHost(1, nil)
	busy := model.NewHost(2, nil)
	quiet := model.NewHost(3, nil)

	// give "busy" an existing connection to master
	p := model.NewPartition(0, 3)
	p.AssignMaster(master)
	p.AssignReplica(busy)

	flat := sortAndFlattenCandidates(master, [][]*model.Host{{busy, quiet}})
	assert.Equal(t, []*model.Host{quiet, busy}, flat)
}

func TestSortAndFlattenCandidates_PreservesDequeOrder(t *testing.T) {
	master := model.NewHost(1, nil)
	far := model.NewHost(2, nil)
	near := model.NewHost(3, nil)

	flat := sortAndFlattenCandidates(master, [][]*model.Host{{far}, {near}})
	assert.Equal(t, []*model.Host{far, near}, flat)
}
