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
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storefront/checkout"
	db_executor "github.com/storefront/checkout/executor/mysql"
	"github.com/storefront/checkout/testsuit"
)

type stockPO struct {
	ID    int64 `gorm:"primaryKey;autoIncrement"`
	Stock int
}

func (o *stockPO) TableName() string {
	return "test_stock"
}

type stockEntity struct {
	checkout.BaseEntity
}

type stockDeducted struct {
	ProductID int64
	Qty       int
}

func (e stockDeducted) GetType() checkout.EventType {
	return "test_stock_deducted"
}

func (e stockDeducted) GetSender() string {
	return "stock"
}

type recorder struct {
	mu     sync.Mutex
	events []*checkout.DomainEvent
	fail   func(evt *checkout.DomainEvent) bool
}

func (r *recorder) handle(ctx context.Context, evt *checkout.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	if r.fail != nil && r.fail(evt) {
		return errors.New("handler failed")
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func checkoutPayload(evt *checkout.DomainEvent, v interface{}) error {
	return json.Unmarshal(evt.Payload, v)
}

func setup(t *testing.T, opts ...Option) (*gorm.DB, *checkout.Engine, *EventBus) {
	db := testsuit.InitSqlite(t, &EventPO{}, &ServicePO{}, &stockPO{})
	executor := db_executor.NewExecutor(db)
	opts = append([]Option{WithTxDB(executor.DB), WithDefaultOffset(0)}, opts...)
	bus := NewEventBus("checkout_test", db, opts...)
	engine := checkout.NewEngine(nil, executor, bus.Options()...)
	return db, engine, bus
}

func deduct(executor func(ctx context.Context) *gorm.DB, qty int, fail bool) checkout.MainFunc {
	return func(ctx context.Context, s *checkout.Session) error {
		po := &stockPO{Stock: 10 - qty}
		if err := executor(ctx).Create(po).Error; err != nil {
			return err
		}
		e := &stockEntity{BaseEntity: checkout.NewBase(po.ID)}
		e.AddEvent(stockDeducted{ProductID: po.ID, Qty: qty}, checkout.WithSendType(checkout.SendTypeTransaction))
		s.Track(e)
		if fail {
			return checkout.ErrInsufficientStock
		}
		return nil
	}
}

func TestEventBusOutbox(t *testing.T) {
	db, engine, bus := setup(t)
	rec := &recorder{}
	bus.RegisterEventHandler(rec.handle)

	res := engine.Run(context.Background(), deduct(bus.getDB, 2, false))
	require.NoError(t, res.Error)
	res = engine.Run(context.Background(), deduct(bus.getDB, 20, true))
	require.ErrorIs(t, res.Error, checkout.ErrInsufficientStock)

	// 回滚的事务不会留下事件
	var count int64
	require.NoError(t, db.Model(&EventPO{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, bus.handleEvents())
	require.Equal(t, 1, rec.count())
	assert.Equal(t, checkout.EventType("test_stock_deducted"), rec.events[0].Type)

	// 重复处理不会重复投递
	require.NoError(t, bus.handleEvents())
	assert.Equal(t, 1, rec.count())

	service := &ServicePO{}
	require.NoError(t, db.First(service, "name = ?", "checkout_test").Error)
	assert.True(t, service.Offset > 0)
}

func TestEventBusRetry(t *testing.T) {
	db, engine, bus := setup(t, WithRetryStrategy(&LimitRetry{Limit: 2}))
	attempts := 0
	rec := &recorder{fail: func(evt *checkout.DomainEvent) bool {
		attempts++
		return attempts == 1
	}}
	bus.RegisterEventHandler(rec.handle)

	require.NoError(t, engine.Run(context.Background(), deduct(bus.getDB, 1, false)).Error)
	require.NoError(t, bus.handleEvents())

	service := &ServicePO{}
	require.NoError(t, db.First(service, "name = ?", "checkout_test").Error)
	require.Len(t, service.Retry, 1)
	assert.Equal(t, 1, service.Retry[0].RetryCount)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, bus.handleEvents())
	require.NoError(t, db.First(service, "name = ?", "checkout_test").Error)
	assert.Empty(t, service.Retry)
	assert.Empty(t, service.Failed)
	assert.Equal(t, 2, rec.count())
}

func TestEventBusFailed(t *testing.T) {
	db, engine, bus := setup(t, WithRetryStrategy(&LimitRetry{Limit: 1}))
	rec := &recorder{fail: func(evt *checkout.DomainEvent) bool { return true }}
	bus.RegisterEventHandler(rec.handle)

	require.NoError(t, engine.Run(context.Background(), deduct(bus.getDB, 1, false)).Error)
	require.NoError(t, bus.handleEvents())
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, bus.handleEvents())

	service := &ServicePO{}
	require.NoError(t, db.First(service, "name = ?", "checkout_test").Error)
	assert.Empty(t, service.Retry)
	require.Len(t, service.Failed, 1)
	assert.Equal(t, 2, rec.count())
}

func TestEventBusClean(t *testing.T) {
	db, engine, bus := setup(t, WithRetentionTime(0), WithRetryStrategy(&LimitRetry{Limit: 0}))
	rec := &recorder{fail: func(evt *checkout.DomainEvent) bool {
		var payload stockDeducted
		_ = checkoutPayload(evt, &payload)
		return payload.Qty == 3
	}}
	bus.RegisterEventHandler(rec.handle)

	for _, qty := range []int{1, 2, 3} {
		require.NoError(t, engine.Run(context.Background(), deduct(bus.getDB, qty, false)).Error)
	}
	require.NoError(t, bus.handleEvents())
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, bus.cleanEvents())

	// 失败的事件作为死信保留
	var left []*EventPO
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	var payload stockDeducted
	require.NoError(t, checkoutPayload(left[0].Event, &payload))
	assert.Equal(t, 3, payload.Qty)
}

func TestEventBusStart(t *testing.T) {
	_, engine, bus := setup(t, WithRunInterval(time.Hour))
	delivered := make(chan *checkout.DomainEvent, 1)
	bus.RegisterEventHandler(func(ctx context.Context, evt *checkout.DomainEvent) error {
		delivered <- evt
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus.Start(ctx)

	require.NoError(t, engine.Run(context.Background(), deduct(bus.getDB, 1, false)).Error)
	select {
	case evt := <-delivered:
		assert.Equal(t, checkout.SendTypeTransaction, evt.SendType)
	case <-time.After(3 * time.Second):
		t.Fatal("commit should trigger delivery")
	}
}

func TestRetryStrategy(t *testing.T) {
	interval := &IntervalRetry{Interval: time.Second, Limit: 2}
	info := interval.Next(&RetryInfo{ID: 1})
	require.NotNil(t, info)
	assert.Equal(t, 1, info.RetryCount)
	info = interval.Next(info)
	require.NotNil(t, info)
	assert.Nil(t, interval.Next(info))

	custom := &CustomRetry{Intervals: []time.Duration{time.Second, time.Minute}}
	first := custom.Next(&RetryInfo{ID: 1})
	second := custom.Next(first)
	assert.Equal(t, time.Minute, second.RetryTime.Sub(first.RetryTime))
	assert.Nil(t, custom.Next(second))
}
