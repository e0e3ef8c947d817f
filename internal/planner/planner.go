package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devrev/pairdb/topology/internal/algorithm"
	pplerrors "github.com/devrev/pairdb/topology/internal/errors"
	"github.com/devrev/pairdb/topology/internal/metrics"
	"github.com/devrev/pairdb/topology/internal/model"
	"github.com/devrev/pairdb/topology/internal/store"
	"go.uber.org/zap"
)

// Request bundles everything a single planning call needs: the cluster
// shape, the per-host rack/buddy grouping, and any pre-existing
// master/replica assignments a rejoining node carries over. ForceFallback
// mirrors the VOLT_REPLICA_FALLBACK environment variable; it is set once at
// the CLI boundary (cmd/planner/main.go) and carried here as plain data —
// the planner itself never reads the environment.
type Request struct {
	ClusterID         string
	Config            model.ClusterConfig
	HostGroups        map[int]model.ExtensibleGroupTag
	PartitionMasters  map[int]int
	PartitionReplicas map[int][]int
	ForceFallback     bool
}

// Planner orchestrates the three placement strategies described in
// spec.md, persists the resulting topology, and records planning metrics.
type Planner struct {
	store   store.TopologyStore
	cache   store.TopologyCache
	metrics *metrics.PlannerMetrics
	logger  *zap.Logger
}

// NewPlanner creates a Planner. cache may be nil; a nil cache is simply
// skipped when a topology is persisted. The planner only writes to the
// cache; it never reads from it.
func NewPlanner(topologyStore store.TopologyStore, topologyCache store.TopologyCache, m *metrics.PlannerMetrics, logger *zap.Logger) *Planner {
	return &Planner{
		store:   topologyStore,
		cache:   topologyCache,
		metrics: m,
		logger:  logger,
	}
}

// Plan validates the request, dispatches to the appropriate placement
// strategy chain, and persists the result.
func (p *Planner) Plan(ctx context.Context, req Request) (*model.Topology, error) {
	start := time.Now()

	if ok, msg := req.Config.Validate(); !ok {
		p.metrics.RecordPlanRequest("none", "invalid_config", time.Since(start).Seconds())
		return nil, pplerrors.ConfigInvalid(msg)
	}

	hostIDs := make([]int, 0, len(req.HostGroups))
	for id := range req.HostGroups {
		hostIDs = append(hostIDs, id)
	}

	isRejoin := len(req.PartitionMasters) > 0 || len(req.PartitionReplicas) > 0

	strategy, topo, err := p.dispatch(req, hostIDs, isRejoin)

	duration := time.Since(start).Seconds()
	if err != nil {
		p.metrics.RecordPlanRequest(strategy, "error", duration)
		return nil, err
	}
	p.metrics.RecordPlanRequest(strategy, "ok", duration)
	p.metrics.UpdateTopologyGauges(len(topo.Partitions), topo.HostCount)

	if err := p.persist(ctx, req.ClusterID, topo); err != nil {
		p.logger.Warn("failed to persist topology", zap.String("cluster_id", req.ClusterID), zap.Error(err))
	}

	return topo, nil
}

// dispatch runs the buddy -> group-aware -> fallback chain described in
// spec.md §4.9, returning the name of the strategy that ultimately
// produced a topology.
func (p *Planner) dispatch(req Request, hostIDs []int, isRejoin bool) (string, *model.Topology, error) {
	if req.ForceFallback {
		p.metrics.RecordFallbackInvocation()
		return "fallback", algorithm.Fallback(req.Config, hostIDs), nil
	}

	hasMultipleBuddyGroups := func() bool {
		seen := make(map[string]struct{})
		for _, tag := range req.HostGroups {
			seen[tag.BuddyGroup] = struct{}{}
			if len(seen) > 1 {
				return true
			}
		}
		return false
	}()

	if hasMultipleBuddyGroups {
		topo, err := algorithm.Buddy(req.Config, req.HostGroups, req.PartitionMasters, req.PartitionReplicas)
		switch {
		case err == nil:
			return "buddy", topo, nil
		case errors.Is(err, algorithm.ErrBuddyNotApplicable):
			// falls through to group-aware below
		case errors.Is(err, algorithm.ErrInsufficientGroupDiversity):
			p.metrics.RecordPlacementFailure("buddy", "insufficient_group_diversity")
			groupSizes := make(map[string]int)
			for _, tag := range req.HostGroups {
				groupSizes[tag.BuddyGroup]++
			}
			smallest := len(req.HostGroups)
			for _, size := range groupSizes {
				if size < smallest {
					smallest = size
				}
			}
			return "buddy", nil, pplerrors.InsufficientGroupDiversity(smallest, req.Config.KFactor+1)
		case !errors.Is(err, algorithm.ErrPlacementInfeasible):
			return "buddy", nil, err
		default:
			p.metrics.RecordPlacementFailure("buddy", "infeasible")
			if isRejoin {
				return "buddy", nil, pplerrors.PlacementInfeasible(err)
			}
			// non-rejoin buddy infeasibility falls through to fallback.
			p.metrics.RecordFallbackInvocation()
			return "fallback", algorithm.Fallback(req.Config, hostIDs), nil
		}
	}

	topo, err := algorithm.GroupAware(algorithm.GroupAwareRequest{
		Config:            req.Config,
		HostGroups:        req.HostGroups,
		PartitionIDs:      sequentialPartitionIDs(req.Config.PartitionCount()),
		PartitionMasters:  req.PartitionMasters,
		PartitionReplicas: req.PartitionReplicas,
	})
	if err == nil {
		return "group_aware", topo, nil
	}
	if !errors.Is(err, algorithm.ErrPlacementInfeasible) {
		return "group_aware", nil, err
	}

	p.metrics.RecordPlacementFailure("group_aware", "infeasible")
	if isRejoin {
		return "group_aware", nil, pplerrors.PlacementInfeasible(err)
	}

	p.logger.Warn("group-aware placement infeasible, falling back to round-robin",
		zap.String("cluster_id", req.ClusterID), zap.Error(err))
	p.metrics.RecordFallbackInvocation()
	return "fallback", algorithm.Fallback(req.Config, hostIDs), nil
}

func (p *Planner) persist(ctx context.Context, clusterID string, topo *model.Topology) error {
	if p.store == nil {
		return nil
	}

	versions, err := p.store.ListTopologyVersions(ctx, clusterID)
	if err != nil {
		return fmt.Errorf("list topology versions: %w", err)
	}
	next := 1
	for _, v := range versions {
		if v >= next {
			next = v + 1
		}
	}

	if err := p.store.SaveTopology(ctx, clusterID, next, topo); err != nil {
		return fmt.Errorf("save topology: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, clusterID, topo); err != nil {
			p.logger.Warn("failed to update topology cache", zap.String("cluster_id", clusterID), zap.Error(err))
		}
	}

	return nil
}

func sequentialPartitionIDs(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}
