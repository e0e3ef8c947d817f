package store

import (
	"context"
	"errors"

	"github.com/devrev/pairdb/topology/internal/model"
)

// ErrNotFound is returned when a requested topology version is not present.
var ErrNotFound = errors.New("not found")

// TopologyStore persists the history of solved topologies for a cluster,
// keyed by a caller-chosen cluster identifier. Each save is appended as a
// new version; the planner itself never mutates a past version in place.
type TopologyStore interface {
	SaveTopology(ctx context.Context, clusterID string, version int, topo *model.Topology) error
	LoadLatestTopology(ctx context.Context, clusterID string) (*model.Topology, int, error)
	ListTopologyVersions(ctx context.Context, clusterID string) ([]int, error)
	Ping(ctx context.Context) error
	Close()
}

// TopologyCache is a fast, TTL-bound lookup path for the most recently
// solved topology of a cluster, backed independently of TopologyStore so a
// cache outage never blocks a planning request.
type TopologyCache interface {
	Get(ctx context.Context, clusterID string) (*model.Topology, error)
	Set(ctx context.Context, clusterID string, topo *model.Topology) error
	Invalidate(ctx context.Context, clusterID string) error
	Ping(ctx context.Context) error
	Close() error
}
