package store

import (
	"context"
	"sort"
	"sync"

	"github.com/devrev/pairdb/topology/internal/model"
)

// MemoryTopologyStore is an in-memory TopologyStore, used by tests that
// need a real store without external dependencies. The CLI does not use
// it: it always connects to the Postgres store.
type MemoryTopologyStore struct {
	mu       sync.RWMutex
	versions map[string]map[int]*model.Topology
}

// NewMemoryTopologyStore creates an empty in-memory topology store.
func NewMemoryTopologyStore() *MemoryTopologyStore {
	return &MemoryTopologyStore{versions: make(map[string]map[int]*model.Topology)}
}

// SaveTopology records topo as clusterID's given version.
func (s *MemoryTopologyStore) SaveTopology(ctx context.Context, clusterID string, version int, topo *model.Topology) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.versions[clusterID] == nil {
		s.versions[clusterID] = make(map[int]*model.Topology)
	}
	s.versions[clusterID][version] = topo
	return nil
}

// LoadLatestTopology returns the highest version number saved for
// clusterID.
func (s *MemoryTopologyStore) LoadLatestTopology(ctx context.Context, clusterID string) (*model.Topology, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byVersion := s.versions[clusterID]
	if len(byVersion) == 0 {
		return nil, 0, ErrNotFound
	}

	latest := -1
	for v := range byVersion {
		if v > latest {
			latest = v
		}
	}
	return byVersion[latest], latest, nil
}

// ListTopologyVersions returns every saved version number for clusterID, in
// ascending order.
func (s *MemoryTopologyStore) ListTopologyVersions(ctx context.Context, clusterID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byVersion := s.versions[clusterID]
	versions := make([]int, 0, len(byVersion))
	for v := range byVersion {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}

// Ping always succeeds: there is no external dependency to probe.
func (s *MemoryTopologyStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryTopologyStore) Close() {}
