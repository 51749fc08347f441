package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/tokenwallet/internal/adapters/broadcast/redis"
	tomlrepo "github.com/bnema/tokenwallet/internal/adapters/repo/toml"
	"github.com/bnema/tokenwallet/internal/application"
	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

const (
	configFileName = "config.toml"

	storeBackendKey      = "store.backend"
	sessionTimeoutKey    = "session.timeout"
	historyMaxKey        = "history.max"
	bonusTypeKey         = "bonus.type"
	bonusAmountKey       = "bonus.amount"
	transportKey         = "broadcast.transport"
	pollIntervalKey      = "broadcast.poll_interval"
	redisAddrKey         = "redis.addr"
	redisPrefixKey       = "redis.prefix"
	syncURLKey           = "sync.url"
	backendTOML          = "toml"
	backendSQLite        = "sqlite"
	transportNone        = "none"
	transportFS          = "fs"
	transportMemory      = "memory"
	transportRedis       = "redis"
	defaultSessionWindow = "24h"
)

// envOverrides are applied on top of config.toml.
type envOverrides struct {
	DataDir   string `env:"TW_DATA_DIR"`
	RedisAddr string `env:"TW_REDIS_ADDR"`
	SyncURL   string `env:"TW_SYNC_URL"`
	Transport string `env:"TW_TRANSPORT"`
}

func loadConfig() (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetDefault(storeBackendKey, backendTOML)
	cfg.SetDefault(sessionTimeoutKey, defaultSessionWindow)
	cfg.SetDefault(historyMaxKey, application.DefaultMaxHistory)
	cfg.SetDefault(bonusTypeKey, string(domain.TokenTypeInfinity))
	cfg.SetDefault(bonusAmountKey, application.DefaultBonusAmount)
	cfg.SetDefault(transportKey, transportFS)
	cfg.SetDefault(pollIntervalKey, application.DefaultPollInterval.String())
	cfg.SetDefault(redisPrefixKey, redis.DefaultPrefix)

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if overrides.DataDir != "" {
		cfg.Set(tomlrepo.DataDirKey, overrides.DataDir)
	}

	dataDir, err := tomlrepo.DataDir(cfg)
	if err != nil {
		return nil, err
	}
	configPath := filepath.Join(dataDir, configFileName)
	if _, err := os.Stat(configPath); err == nil {
		cfg.SetConfigFile(configPath)
		if err := cfg.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", configPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", configPath, err)
	}

	if overrides.RedisAddr != "" {
		cfg.Set(redisAddrKey, overrides.RedisAddr)
	}
	if overrides.SyncURL != "" {
		cfg.Set(syncURLKey, overrides.SyncURL)
	}
	if overrides.Transport != "" {
		cfg.Set(transportKey, overrides.Transport)
	}
	cfg.Set(tomlrepo.DataDirKey, dataDir)

	return cfg, nil
}

func sessionConfig(cfg *viper.Viper) (application.SessionConfig, error) {
	timeout, err := durationValue(cfg, sessionTimeoutKey)
	if err != nil {
		return application.SessionConfig{}, err
	}
	bonusType, err := domain.ParseTokenType(cfg.GetString(bonusTypeKey))
	if err != nil {
		return application.SessionConfig{}, fmt.Errorf("%s: %w", bonusTypeKey, err)
	}
	amount := cfg.GetInt64(bonusAmountKey)
	if amount <= 0 {
		return application.SessionConfig{}, fmt.Errorf("%s must be positive, got %d", bonusAmountKey, amount)
	}

	return application.SessionConfig{
		Timeout:     timeout,
		BonusType:   bonusType,
		BonusAmount: amount,
	}, nil
}

func durationValue(cfg *viper.Viper, key string) (time.Duration, error) {
	raw := cfg.GetString(key)
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return value, nil
}
