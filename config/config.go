//
// Copyright 2023 Bytedance Ltd. and/or its affiliates
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	LockDriverMem   = "mem"
	LockDriverDB    = "db"
	LockDriverRedis = "redis"

	EventBusDriverMem   = "mem"
	EventBusDriverMysql = "mysql"

	DatabaseDriverMysql  = "mysql"
	DatabaseDriverSqlite = "sqlite"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Lock     LockConfig     `yaml:"lock"`
	EventBus EventBusConfig `yaml:"eventbus"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// LockConfig 引擎锁，mem 只适用于单实例部署
type LockConfig struct {
	Driver    string        `yaml:"driver"`
	TTL       time.Duration `yaml:"ttl"`
	Timeout   time.Duration `yaml:"timeout"`
	RedisAddr string        `yaml:"redis_addr"`
}

type EventBusConfig struct {
	Driver        string        `yaml:"driver"`
	Service       string        `yaml:"service"`
	Capacity      int           `yaml:"capacity"`
	RunInterval   time.Duration `yaml:"run_interval"`
	RetentionTime time.Duration `yaml:"retention_time"`
	Concurrent    int           `yaml:"concurrent"`
}

type LogConfig struct {
	Verbosity int `yaml:"verbosity"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{
			Driver:      DatabaseDriverMysql,
			DSN:         "root:@tcp(localhost:3306)/checkout?parseTime=true&loc=Local",
			AutoMigrate: true,
		},
		Lock: LockConfig{
			Driver:  LockDriverDB,
			TTL:     10 * time.Second,
			Timeout: 5 * time.Second,
		},
		EventBus: EventBusConfig{
			Driver:        EventBusDriverMysql,
			Service:       "checkout",
			Capacity:      1000,
			RunInterval:   time.Second,
			RetentionTime: 24 * time.Hour,
			Concurrent:    1,
		},
	}
}

// Load 读取配置文件，path 为空时使用默认配置，随后应用环境变量覆盖
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s failed: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s failed: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("CHECKOUT_ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := os.LookupEnv("CHECKOUT_DB_DRIVER"); ok {
		cfg.Database.Driver = v
	}
	if v, ok := os.LookupEnv("CHECKOUT_DB_DSN"); ok {
		cfg.Database.DSN = v
	}
	if v, ok := os.LookupEnv("CHECKOUT_LOCK_DRIVER"); ok {
		cfg.Lock.Driver = v
	}
	if v, ok := os.LookupEnv("CHECKOUT_REDIS_ADDR"); ok {
		cfg.Lock.RedisAddr = v
	}
	if v, ok := os.LookupEnv("CHECKOUT_EVENTBUS_DRIVER"); ok {
		cfg.EventBus.Driver = v
	}
	if v, ok := os.LookupEnv("CHECKOUT_LOG_VERBOSITY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CHECKOUT_LOG_VERBOSITY %q: %w", v, err)
		}
		cfg.Log.Verbosity = n
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DatabaseDriverMysql, DatabaseDriverSqlite:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	switch c.Lock.Driver {
	case LockDriverMem, LockDriverDB:
	case LockDriverRedis:
		if c.Lock.RedisAddr == "" {
			return fmt.Errorf("redis addr is required by redis lock")
		}
	default:
		return fmt.Errorf("unknown lock driver %q", c.Lock.Driver)
	}
	if c.Lock.TTL <= 0 {
		return fmt.Errorf("lock ttl must be positive")
	}
	switch c.EventBus.Driver {
	case EventBusDriverMem:
		if c.EventBus.Capacity <= 0 {
			return fmt.Errorf("eventbus capacity must be positive")
		}
	case EventBusDriverMysql:
		if c.EventBus.Service == "" {
			return fmt.Errorf("eventbus service name is required")
		}
	default:
		return fmt.Errorf("unknown eventbus driver %q", c.EventBus.Driver)
	}
	return nil
}
