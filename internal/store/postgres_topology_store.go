package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devrev/pairdb/topology/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresTopologyStore implements TopologyStore for PostgreSQL, storing
// each solved topology document as a jsonb column alongside its cluster id
// and monotonically increasing version number.
type PostgresTopologyStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresTopologyStore creates a new PostgreSQL topology store.
func NewPostgresTopologyStore(
	host string,
	port int,
	database, user, password string,
	maxConns, minConns int,
	logger *zap.Logger,
) (TopologyStore, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s pool_max_conns=%d pool_min_conns=%d",
		host, port, database, user, password, maxConns, minConns,
	)

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresTopologyStore{pool: pool, logger: logger}, nil
}

// SaveTopology inserts a new topology version row.
func (s *PostgresTopologyStore) SaveTopology(ctx context.Context, clusterID string, version int, topo *model.Topology) error {
	data, err := json.Marshal(topo)
	if err != nil {
		return fmt.Errorf("failed to marshal topology: %w", err)
	}

	query := `
		INSERT INTO topology_versions (cluster_id, version, document, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err = s.pool.Exec(ctx, query, clusterID, version, data)
	return err
}

// LoadLatestTopology returns the highest-numbered version saved for
// clusterID.
func (s *PostgresTopologyStore) LoadLatestTopology(ctx context.Context, clusterID string) (*model.Topology, int, error) {
	query := `
		SELECT version, document
		FROM topology_versions
		WHERE cluster_id = $1
		ORDER BY version DESC
		LIMIT 1
	`

	var version int
	var data []byte
	err := s.pool.QueryRow(ctx, query, clusterID).Scan(&version, &data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load latest topology: %w", err)
	}

	var topo model.Topology
	if err := json.Unmarshal(data, &topo); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal topology: %w", err)
	}

	return &topo, version, nil
}

// ListTopologyVersions returns every saved version number for clusterID, in
// ascending order.
func (s *PostgresTopologyStore) ListTopologyVersions(ctx context.Context, clusterID string) ([]int, error) {
	query := `
		SELECT version
		FROM topology_versions
		WHERE cluster_id = $1
		ORDER BY version ASC
	`

	rows, err := s.pool.Query(ctx, query, clusterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]int, 0)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Ping checks the database connection.
func (s *PostgresTopologyStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresTopologyStore) Close() {
	s.pool.Close()
}
