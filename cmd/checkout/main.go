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

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/application/event_handler"
	"github.com/storefront/checkout/biz/order/application/query"
	"github.com/storefront/checkout/biz/order/infrastructure/po"
	"github.com/storefront/checkout/biz/order/infrastructure/repo"
	"github.com/storefront/checkout/config"
	mem_eventbus "github.com/storefront/checkout/eventbus/mem"
	db_eventbus "github.com/storefront/checkout/eventbus/mysql"
	db_executor "github.com/storefront/checkout/executor/mysql"
	"github.com/storefront/checkout/handler"
	"github.com/storefront/checkout/handler/util"
	db_lock "github.com/storefront/checkout/lock/db"
	mem_lock "github.com/storefront/checkout/lock/mem"
	redis_lock "github.com/storefront/checkout/lock/redis"
	"github.com/storefront/checkout/logger/stdr"
	"github.com/storefront/checkout/metrics"
)

func openDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DatabaseDriverSqlite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		dialector = mysql.Open(cfg.DSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Driver == config.DatabaseDriverSqlite {
		// sqlite 只允许一个写连接
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func initPO(db *gorm.DB) error {
	if err := db.AutoMigrate(&db_eventbus.EventPO{}, &db_eventbus.ServicePO{}, &db_lock.ResourceLock{}); err != nil {
		return err
	}
	return db.AutoMigrate(po.Models()...)
}

const lockRetryDelay = 50 * time.Millisecond

func newLock(cfg config.LockConfig, db *gorm.DB) ddd.ILock {
	attempts := int(cfg.Timeout / lockRetryDelay)
	if attempts < 1 {
		attempts = 1
	}
	switch cfg.Driver {
	case config.LockDriverMem:
		return mem_lock.NewKeyLock(mem_lock.WithWait(cfg.Timeout))
	case config.LockDriverRedis:
		cli := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		return redis_lock.NewRedisLock(cli, cfg.TTL, redis_lock.WithRetry(lockRetryDelay, attempts))
	default:
		return db_lock.NewDBLock(db, cfg.TTL, db_lock.WithRetry(uint(attempts), lockRetryDelay))
	}
}

// newEventBus 返回的 start 在引擎注册完事件处理后调用
func newEventBus(cfg config.EventBusConfig, db *gorm.DB, exec *db_executor.Executor, log logr.Logger) (ddd.IEventBus, func(ctx context.Context)) {
	if cfg.Driver == config.EventBusDriverMem {
		bus := mem_eventbus.NewEventBus(cfg.Capacity)
		return bus, bus.Start
	}
	bus := db_eventbus.NewEventBus(cfg.Service, db,
		db_eventbus.WithTxDB(exec.DB),
		db_eventbus.WithRunInterval(cfg.RunInterval),
		db_eventbus.WithRetentionTime(cfg.RetentionTime),
		db_eventbus.WithConsumeConcurrent(cfg.Concurrent),
		db_eventbus.WithLogger(log.WithName("eventbus")),
	)
	return bus, bus.Start
}

func main() {
	configPath := flag.String("config", os.Getenv("CHECKOUT_CONFIG"), "path of config file")
	flag.Parse()

	log := stdr.NewStdr("checkout")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(err, "load config failed")
		os.Exit(1)
	}
	stdr.SetVerbosity(cfg.Log.Verbosity)

	db, err := openDB(cfg.Database)
	if err != nil {
		log.Error(err, "open database failed")
		os.Exit(1)
	}
	if cfg.Database.AutoMigrate {
		if err := initPO(db); err != nil {
			log.Error(err, "migrate failed")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := db_executor.NewExecutor(db)
	eventBus, startBus := newEventBus(cfg.EventBus, db, executor, log)
	engine := ddd.NewEngine(newLock(cfg.Lock, db), executor,
		ddd.WithEventBus(eventBus),
		ddd.WithLogger(log.WithName("engine")),
		ddd.WithLockTimeout(cfg.Lock.Timeout),
	)

	m := metrics.New()
	query.Init(db)
	event_handler.Register(engine, m)
	startBus(ctx)

	service := handler.NewCheckoutService(engine, repo.NewRepositories(executor), m)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      util.NewRouter(service, m.Handler()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("checkout service started", "addr", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err, "server exited")
		os.Exit(1)
	}
}
