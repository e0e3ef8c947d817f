package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Load loads configuration from file and PLANNER_-prefixed environment
// variables. VOLT_REPLICA_FALLBACK is deliberately not read here: it is a
// CLI-boundary concern handled by cmd/planner/main.go, which sets
// Config.Planner.ForceFallback directly after Load returns.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Warning: Could not read config file %s: %v. Using defaults and environment variables.\n", configPath, err)
	} else {
		if err := viper.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvironmentOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvironmentOverrides(cfg *Config) {
	if nodeID := os.Getenv("PLANNER_NODE_ID"); nodeID != "" {
		cfg.Server.NodeID = nodeID
	}
	if host := os.Getenv("PLANNER_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("PLANNER_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if sph := os.Getenv("PLANNER_DEFAULT_SITES_PER_HOST"); sph != "" {
		if v, err := strconv.Atoi(sph); err == nil {
			cfg.Planner.DefaultSitesPerHost = v
		}
	}
	if k := os.Getenv("PLANNER_DEFAULT_KFACTOR"); k != "" {
		if v, err := strconv.Atoi(k); err == nil {
			cfg.Planner.DefaultKFactor = v
		}
	}

	if dbHost := os.Getenv("PLANNER_DATABASE_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("PLANNER_DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = p
		}
	}
	if dbName := os.Getenv("PLANNER_DATABASE_NAME"); dbName != "" {
		cfg.Database.Database = dbName
	}
	if dbUser := os.Getenv("PLANNER_DATABASE_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPassword := os.Getenv("PLANNER_DATABASE_PASSWORD"); dbPassword != "" {
		cfg.Database.Password = dbPassword
	}

	if redisHost := os.Getenv("PLANNER_REDIS_HOST"); redisHost != "" {
		cfg.Redis.Host = redisHost
	}
	if redisPort := os.Getenv("PLANNER_REDIS_PORT"); redisPort != "" {
		if p, err := strconv.Atoi(redisPort); err == nil {
			cfg.Redis.Port = p
		}
	}
	if redisPassword := os.Getenv("PLANNER_REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}

	if logLevel := os.Getenv("PLANNER_LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}
