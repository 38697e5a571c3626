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
package command

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/domain"
	"github.com/storefront/checkout/biz/order/infrastructure/po"
	"github.com/storefront/checkout/biz/order/infrastructure/repo"
	db_executor "github.com/storefront/checkout/executor/mysql"
	"github.com/storefront/checkout/lock/mem"
	"github.com/storefront/checkout/testsuit"
)

// setupMysql 每个测试独立建库，返回共享同一个库的两个引擎
// 两个引擎各自持有进程内锁，模拟多实例部署，互斥只能依赖行锁
func setupMysql(t *testing.T) (*testEnv, *ddd.Engine) {
	if !testsuit.MysqlEnabled() {
		t.Skip("mysql test disabled")
	}
	root := testsuit.InitMysql(testsuit.MySQLOption{NoLog: true})
	database := "checkout_" + xid.New().String()
	db := testsuit.InitMysqlWithDatabase(root, database)
	t.Cleanup(func() {
		root.Exec("DROP DATABASE IF EXISTS " + database) // ignore_security_alert
	})
	require.NoError(t, db.AutoMigrate(po.Models()...))

	exec := db_executor.NewExecutor(db)
	e := &testEnv{
		db:     db,
		repos:  repo.NewRepositories(exec),
		engine: ddd.NewEngine(mem.NewKeyLock(), exec),
	}
	return e, ddd.NewEngine(mem.NewKeyLock(), exec)
}

func TestMysqlConcurrentCouponSingleUse(t *testing.T) {
	e, other := setupMysql(t)
	pid := e.product(t, "pen", 1000, 100)
	e.point(t, "u1", 50000)
	ucID := e.coupon(t, "u1", domain.CouponFixedAmount, 500)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	engines := []*ddd.Engine{e.engine, other}
	for i := 0; i < 6; i++ {
		engine := engines[i%2]
		g.Go(func() error {
			cmd := NewCreateOrderCommand(e.repos, "u1", []OrderLine{{ProductID: pid, Quantity: 1}}, &ucID)
			err := engine.Run(context.Background(), cmd).Error
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	success := 0
	for _, err := range errs {
		if err == nil {
			success++
			continue
		}
		assert.ErrorIs(t, err, ddd.ErrInvalidState)
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, 99, e.stock(t, pid))
	assert.True(t, money(49500).Equal(e.balance(t, "u1")))
	assert.True(t, e.couponUsed(t, ucID))
}

func TestMysqlConcurrentStockConservation(t *testing.T) {
	e, other := setupMysql(t)
	pid := e.product(t, "pen", 1, 5)
	users := []string{"a", "b", "c", "d", "e", "f"}
	for _, u := range users {
		e.point(t, u, 100)
	}

	var g errgroup.Group
	var mu sync.Mutex
	success := 0
	for i, u := range users {
		u := u
		engine := e.engine
		if i%2 == 1 {
			engine = other
		}
		g.Go(func() error {
			cmd := NewCreateOrderCommand(e.repos, u, []OrderLine{{ProductID: pid, Quantity: 2}}, nil)
			err := engine.Run(context.Background(), cmd).Error
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else {
				assert.ErrorIs(t, err, ddd.ErrInsufficientStock)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 2, success)
	assert.Equal(t, 1, e.stock(t, pid))
	assert.Equal(t, int64(2), e.count(t, &po.OrderPO{}))
}
