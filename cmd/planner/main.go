package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/devrev/pairdb/topology/internal/config"
	"github.com/devrev/pairdb/topology/internal/health"
	"github.com/devrev/pairdb/topology/internal/metrics"
	"github.com/devrev/pairdb/topology/internal/model"
	"github.com/devrev/pairdb/topology/internal/planner"
	"github.com/devrev/pairdb/topology/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// planRequestFile mirrors planner.Request in a JSON-friendly shape: the
// request document a cluster operator hands to the planner CLI.
type planRequestFile struct {
	ClusterID    string `json:"cluster_id"`
	HostCount    int    `json:"hostcount"`
	SitesPerHost int    `json:"sites_per_host"`
	KFactor      int    `json:"kfactor"`
	Hosts        []struct {
		HostID     int    `json:"host_id"`
		RackGroup  string `json:"rack_group"`
		BuddyGroup string `json:"buddy_group"`
	} `json:"hosts"`
	PartitionMasters  map[string]int   `json:"partition_masters,omitempty"`
	PartitionReplicas map[string][]int `json:"partition_replicas,omitempty"`
}

func main() {
	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	requestPath := flag.String("request", "", "path to a JSON topology plan request")
	flag.Parse()

	if *requestPath == "" {
		logger.Fatal("missing required -request flag")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// VOLT_REPLICA_FALLBACK is read exactly once, here, at the CLI
	// boundary. Nothing downstream of this point consults the
	// environment again.
	cfg.Planner.ForceFallback = envBool("VOLT_REPLICA_FALLBACK", cfg.Planner.ForceFallback)

	logger.Info("starting topology planner",
		zap.String("node_id", cfg.Server.NodeID),
		zap.Bool("force_fallback", cfg.Planner.ForceFallback))

	topologyStore, err := newTopologyStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize topology store", zap.Error(err))
	}
	defer topologyStore.Close()

	topologyCache, err := newTopologyCache(cfg, logger)
	if err != nil {
		logger.Warn("failed to initialize topology cache, continuing without it", zap.Error(err))
		topologyCache = nil
	}
	if topologyCache != nil {
		defer topologyCache.Close()
	}

	plannerMetrics := metrics.NewPlannerMetrics()

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			logger.Info("starting metrics server", zap.String("address", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	healthChecker := health.NewChecker(topologyStore, topologyCache, logger)
	go func() {
		if err := health.StartHealthServer(healthChecker, cfg.Server.Port, logger); err != nil {
			logger.Error("health check server failed", zap.Error(err))
		}
	}()

	req, err := loadPlanRequest(*requestPath)
	if err != nil {
		logger.Fatal("failed to load plan request", zap.Error(err))
	}
	req.ForceFallback = cfg.Planner.ForceFallback

	p := planner.NewPlanner(topologyStore, topologyCache, plannerMetrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		cancel()
	}()

	topo, err := p.Plan(ctx, req)
	if err != nil {
		logger.Fatal("planning failed", zap.Error(err))
	}

	encoded, err := json.MarshalIndent(topo, "", "  ")
	if err != nil {
		logger.Fatal("failed to marshal topology", zap.Error(err))
	}
	fmt.Println(string(encoded))
}

func loadPlanRequest(path string) (planner.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return planner.Request{}, fmt.Errorf("read request file: %w", err)
	}

	var file planRequestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return planner.Request{}, fmt.Errorf("parse request file: %w", err)
	}

	hostGroups := make(map[int]model.ExtensibleGroupTag, len(file.Hosts))
	for _, h := range file.Hosts {
		hostGroups[h.HostID] = model.ExtensibleGroupTag{
			RackGroup:  h.RackGroup,
			BuddyGroup: h.BuddyGroup,
		}
	}

	masters := make(map[int]int, len(file.PartitionMasters))
	for pidStr, hostID := range file.PartitionMasters {
		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			return planner.Request{}, fmt.Errorf("partition_masters key %q is not an integer", pidStr)
		}
		masters[pid] = hostID
	}

	replicas := make(map[int][]int, len(file.PartitionReplicas))
	for pidStr, hosts := range file.PartitionReplicas {
		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			return planner.Request{}, fmt.Errorf("partition_replicas key %q is not an integer", pidStr)
		}
		replicas[pid] = hosts
	}

	return planner.Request{
		ClusterID: file.ClusterID,
		Config: model.ClusterConfig{
			HostCount:    file.HostCount,
			SitesPerHost: file.SitesPerHost,
			KFactor:      file.KFactor,
		},
		HostGroups:        hostGroups,
		PartitionMasters:  masters,
		PartitionReplicas: replicas,
	}, nil
}

func newTopologyStore(cfg *config.Config, logger *zap.Logger) (store.TopologyStore, error) {
	return store.NewPostgresTopologyStore(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		logger,
	)
}

func newTopologyCache(cfg *config.Config, logger *zap.Logger) (store.TopologyCache, error) {
	return store.NewRedisTopologyCache(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.TTL,
		logger,
	)
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func initLogger() (*zap.Logger, error) {
	if os.Getenv("ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
