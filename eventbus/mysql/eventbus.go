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

package mysql

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"github.com/robfig/cron"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/checkout"
	db_executor "github.com/storefront/checkout/executor/mysql"
	"github.com/storefront/checkout/logger/stdr"
)

const retryInterval = time.Second * 3
const retryLimit = 5
const runInterval = time.Millisecond * 100

// 每天凌晨两点执行clean，秒级 cron 表达式
const cleanCron = "0 0 2 * * *"

// 消费完成的event保留一段时间以便追查问题
const retentionTime = 48 * time.Hour
const consumeConcurrent = 1 // 事件处理并发数
const limitPerRun = 100     // 单次 handleEvents 处理的事件数
const cleanBatch = 100

var ErrServiceNotCreate = fmt.Errorf("service not create")

var defaultLogger = stdr.NewStdr("mysql_eventbus")

// TxDB 从 ctx 中取出业务事务句柄，没有事务时返回普通句柄
type TxDB func(ctx context.Context) *gorm.DB

type Options struct {
	// 重试策略：有三种方式
	// 1, RetryInterval + RetryLimit 表示固定间隔重试
	// 2, CustomRetry 表示自定义间隔重试
	// 3, RetryStrategy 完全自定义
	RetryLimit    int
	RetryInterval time.Duration
	CustomRetry   []time.Duration
	RetryStrategy IRetryStrategy

	RunInterval       time.Duration // 轮询间隔
	CleanCron         string        // 清理任务的 cron 表达式
	RetentionTime     time.Duration // 消费完成的事件保留时间
	ConsumeConcurrent int
	LimitPerRun       int
	DefaultOffset     *int64 // 首次消费的起始位置，不指定时从最新的事件开始
	TxDB              TxDB
	Logger            logr.Logger
}

type Option func(opt *Options)

func WithTxDB(f TxDB) Option {
	return func(opt *Options) {
		opt.TxDB = f
	}
}

func WithRetryStrategy(s IRetryStrategy) Option {
	return func(opt *Options) {
		opt.RetryStrategy = s
	}
}

func WithDefaultOffset(offset int64) Option {
	return func(opt *Options) {
		opt.DefaultOffset = &offset
	}
}

func WithRunInterval(d time.Duration) Option {
	return func(opt *Options) {
		opt.RunInterval = d
	}
}

func WithRetentionTime(d time.Duration) Option {
	return func(opt *Options) {
		opt.RetentionTime = d
	}
}

func WithConsumeConcurrent(n int) Option {
	return func(opt *Options) {
		opt.ConsumeConcurrent = n
	}
}

func WithLogger(l logr.Logger) Option {
	return func(opt *Options) {
		opt.Logger = l
	}
}

// EventBus 事务性发件箱：事件与业务数据在同一事务内落库，后台轮询投递
type EventBus struct {
	serviceName   string
	db            *gorm.DB
	logger        logr.Logger
	opt           Options
	retryStrategy IRetryStrategy

	cb        checkout.DomainEventHandler
	cleanCron *cron.Cron
	trigger   chan struct{}
	handleMu  sync.Mutex
	once      sync.Once
}

// NewEventBus 需要在业务数据库提前创建 EventPO, ServicePO 描述的库表
// 参数：serviceName 服务名，同一个服务之间只有一个消费，不同服务之间独立消费
// 用法：eventBus := NewEventBus("service", db, WithTxDB(executor.DB)); NewEngine(lock, executor, eventBus.Options()...)
func NewEventBus(serviceName string, db *gorm.DB, options ...Option) *EventBus {
	if utf8.RuneCountInString(serviceName) > 30 {
		panic("serviceName must less than 30 chars")
	}

	opt := Options{
		RunInterval:       runInterval,
		CleanCron:         cleanCron,
		RetentionTime:     retentionTime,
		ConsumeConcurrent: consumeConcurrent,
		LimitPerRun:       limitPerRun,
		Logger:            defaultLogger,
	}
	for _, o := range options {
		o(&opt)
	}
	if _, err := cron.Parse(opt.CleanCron); err != nil {
		panic(fmt.Sprintf("cron expression %s is invalid", opt.CleanCron))
	}
	if opt.RetentionTime < 0 {
		panic(fmt.Sprintf("retentionTime %v can not be negative", opt.RetentionTime))
	}
	if opt.ConsumeConcurrent <= 0 {
		opt.ConsumeConcurrent = consumeConcurrent
	}
	var strategy IRetryStrategy
	if opt.RetryStrategy != nil {
		strategy = opt.RetryStrategy
	} else if opt.RetryInterval > 0 {
		strategy = &IntervalRetry{Interval: opt.RetryInterval, Limit: opt.RetryLimit}
	} else if len(opt.CustomRetry) > 0 {
		strategy = &CustomRetry{Intervals: opt.CustomRetry}
	} else {
		strategy = &IntervalRetry{Interval: retryInterval, Limit: retryLimit}
	}

	eb := &EventBus{
		serviceName:   serviceName,
		db:            db,
		logger:        opt.Logger,
		retryStrategy: strategy,
		opt:           opt,
		cleanCron:     cron.New(),
		trigger:       make(chan struct{}, 1),
	}
	if err := eb.initService(); err != nil {
		eb.logger.Error(err, "init eventbus service failed", "service", serviceName)
	}
	return eb
}

func (e *EventBus) Options() []checkout.Option {
	return []checkout.Option{
		checkout.WithEventBus(e),
	}
}

// getDB 获取上下文中的 db 句柄，事务内调用必须用该方法获取 DB
func (e *EventBus) getDB(ctx context.Context) *gorm.DB {
	if e.opt.TxDB != nil {
		return e.opt.TxDB(ctx)
	}
	return e.db.WithContext(ctx)
}

// Dispatch 普通事件，事务提交后落库
func (e *EventBus) Dispatch(ctx context.Context, events ...*checkout.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := e.save(e.db.WithContext(ctx), events); err != nil {
		return err
	}
	e.notify()
	return nil
}

func (e *EventBus) save(db *gorm.DB, events []*checkout.DomainEvent) error {
	pos := make([]*EventPO, len(events))
	for i, evt := range events {
		pos[i] = eventPersist(evt)
	}
	return db.Create(pos).Error
}

// DispatchBegin 事务事件与业务数据同事务写入，业务回滚时事件一起回滚
func (e *EventBus) DispatchBegin(ctx context.Context, evts ...*checkout.DomainEvent) (context.Context, error) {
	if len(evts) == 0 {
		return ctx, fmt.Errorf("events can not be empty")
	}
	if err := e.save(e.getDB(ctx), evts); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// Commit 业务事务已提交，唤醒投递
func (e *EventBus) Commit(ctx context.Context) error {
	e.notify()
	return nil
}

// Rollback 事件已随业务事务回滚，无需处理
func (e *EventBus) Rollback(ctx context.Context) error {
	return nil
}

func (e *EventBus) notify() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

func (e *EventBus) RegisterEventHandler(cb checkout.DomainEventHandler) {
	e.cb = cb
}

func (e *EventBus) initService() error {
	service := &ServicePO{}
	return e.db.Where(ServicePO{Name: e.serviceName}).FirstOrCreate(service).Error
}

func (e *EventBus) lockService(tx *gorm.DB) (*ServicePO, error) {
	service := &ServicePO{}
	if err := db_executor.ForUpdate(tx).
		Where("name = ?", e.serviceName).
		First(service).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotCreate
		}
		return nil, err
	}
	return service, nil
}

func (e *EventBus) getScanEvents(db *gorm.DB, service *ServicePO) ([]*EventPO, error) {
	offset := service.Offset
	if offset == 0 {
		if e.opt.DefaultOffset != nil {
			offset = *e.opt.DefaultOffset
		} else {
			lastEvent := &EventPO{}
			if err := db.Order("id").Last(lastEvent).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, nil
				}
				return nil, err
			}
			// 不指定 offset 的情况下，默认从新的一条事件开始，且包含该条
			offset = lastEvent.ID - 1
		}
	}
	eventPOs := make([]*EventPO, 0)
	if err := db.Where("id > ?", offset).Order("id").Limit(e.opt.LimitPerRun).Find(&eventPOs).Error; err != nil {
		return nil, err
	}
	return eventPOs, nil
}

func (e *EventBus) getRetryEvents(db *gorm.DB, service *ServicePO) ([]*EventPO, error) {
	now := time.Now()
	retryIDs := make([]int64, 0)
	for _, info := range service.Retry {
		if info.RetryTime.Before(now) {
			retryIDs = append(retryIDs, info.ID)
		}
	}
	if len(retryIDs) == 0 {
		return nil, nil
	}

	eventPOs := make([]*EventPO, 0)
	if err := db.Where("id in ?", retryIDs).Find(&eventPOs).Error; err != nil {
		return nil, err
	}
	return eventPOs, nil
}

// doRetryStrategy 计算本轮处理后的重试队列和失败队列，未到期的重试信息保持不变
func (e *EventBus) doRetryStrategy(service *ServicePO, processed map[int64]bool, failedIDs []int64) (retry, failed []*RetryInfo) {
	retryInfos := make(map[int64]*RetryInfo)
	for _, info := range service.Retry {
		retryInfos[info.ID] = info
		if !processed[info.ID] {
			retry = append(retry, info)
		}
	}

	for _, id := range failedIDs {
		info := retryInfos[id]
		if info == nil {
			info = &RetryInfo{ID: id}
		}

		if newInfo := e.retryStrategy.Next(info); newInfo != nil {
			retry = append(retry, newInfo)
		} else {
			failed = append(failed, info)
		}
	}
	return
}

func (e *EventBus) dispatchEvents(ctx context.Context, eventPOs []*EventPO) (success, failed []int64) {
	var mu sync.Mutex
	g := errgroup.Group{}
	g.SetLimit(e.opt.ConsumeConcurrent)
	for _, po := range eventPOs {
		po := po
		g.Go(func() error {
			err := e.cb(ctx, po.Event)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.logger.Error(err, "handle event failed", "id", po.ID, "type", po.EventType)
				failed = append(failed, po.ID)
			} else {
				success = append(success, po.ID)
			}
			return nil
		})
	}
	_ = g.Wait()
	return
}

// handleEvents 读取待投递事件 -> 投递 -> 更新消费进度
// 投递在事务外进行，事件处理器可以正常开启自己的事务；同一进程内串行执行，多实例下保证至少一次
func (e *EventBus) handleEvents() error {
	if e.cb == nil {
		return nil
	}
	e.handleMu.Lock()
	defer e.handleMu.Unlock()

	var scanEvents, retryEvents []*EventPO
	err := e.db.Transaction(func(tx *gorm.DB) error {
		service, err := e.lockService(tx)
		if err != nil {
			return err
		}
		if scanEvents, err = e.getScanEvents(tx, service); err != nil {
			return err
		}
		retryEvents, err = e.getRetryEvents(tx, service)
		return err
	})
	if err != nil {
		return err
	}
	events := make([]*EventPO, 0, len(scanEvents)+len(retryEvents))
	events = append(events, scanEvents...)
	events = append(events, retryEvents...)
	if len(events) == 0 {
		return nil
	}

	_, failedIDs := e.dispatchEvents(context.Background(), events)
	processed := make(map[int64]bool, len(retryEvents))
	for _, po := range retryEvents {
		processed[po.ID] = true
	}

	return e.db.Transaction(func(tx *gorm.DB) error {
		service, err := e.lockService(tx)
		if err != nil {
			return err
		}
		retry, failed := e.doRetryStrategy(service, processed, failedIDs)
		service.Retry = retry
		service.Failed = append(service.Failed, failed...)
		if len(scanEvents) > 0 {
			if last := scanEvents[len(scanEvents)-1]; last.ID > service.Offset {
				service.Offset = last.ID
			}
		}
		return tx.Save(service).Error
	})
}

// cleanEvents 清理所有服务都已消费、且超过保留时间的事件，重试中和失败的事件保留
func (e *EventBus) cleanEvents() error {
	e.logger.Info("clean events")
	var services []*ServicePO
	if err := e.db.Find(&services).Error; err != nil {
		return err
	}
	if len(services) == 0 {
		return nil
	}
	keep := map[int64]bool{}
	slowest := services[0].Offset
	for _, service := range services {
		for _, si := range service.Retry {
			keep[si.ID] = true
		}
		for _, si := range service.Failed {
			keep[si.ID] = true
		}
		if service.Offset < slowest {
			slowest = service.Offset
		}
	}
	if slowest == 0 {
		// 还未触发消费，暂时不考虑清理
		return nil
	}

	ids := make([]int64, 0)
	if err := e.db.Model(&EventPO{}).
		Where("id <= ? AND created_at < ?", slowest, time.Now().Add(-e.opt.RetentionTime)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Pluck("id", &ids).Error; err != nil {
		return err
	}

	batch := make([]int64, 0, cleanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := e.db.Where("id in ?", batch).Delete(&EventPO{}).Error
		batch = batch[:0]
		return err
	}
	for _, id := range ids {
		if keep[id] {
			continue
		}
		batch = append(batch, id)
		if len(batch) >= cleanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// Start 启动后台投递和定时清理，ctx 结束后停止
func (e *EventBus) Start(ctx context.Context) {
	run := func() {
		ticker := time.NewTicker(e.opt.RunInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.cleanCron.Stop()
				return
			case <-ticker.C:
			case <-e.trigger:
			}
			if err := e.handleEvents(); err != nil {
				if errors.Is(err, ErrServiceNotCreate) {
					_ = e.initService()
				}
				e.logger.Error(err, "handle events err")
			}
		}
	}
	// 确保只启动一次
	e.once.Do(func() {
		if err := e.cleanCron.AddFunc(e.opt.CleanCron, func() {
			if err := e.cleanEvents(); err != nil {
				e.logger.Error(err, "clean events err")
			}
		}); err != nil {
			panic(err)
		}
		e.cleanCron.Start()
		go run()
	})
}
