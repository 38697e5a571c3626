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

package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storefront/checkout"
	"github.com/storefront/checkout/testsuit"
)

func TestLock(t *testing.T) {
	db := testsuit.InitSqlite(t, &ResourceLock{})
	lock := NewDBLock(db, 1*time.Second)
	l, err := lock.Lock(context.Background(), "product:1")
	require.NoError(t, err)
	r := l.(*ResourceLock)
	assert.True(t, len(r.LockerID) > 0)

	// lock 过期后可以被抢占
	time.Sleep(1 * time.Second)
	previousID := r.LockerID
	l, err = lock.Lock(context.Background(), "product:1")
	require.NoError(t, err)
	assert.NotEqual(t, previousID, l.(*ResourceLock).LockerID)
	assert.NoError(t, lock.UnLock(context.Background(), l))

	// 旧的持有者不能再解锁
	assert.Error(t, lock.UnLock(context.Background(), r))
}

func TestLockBusy(t *testing.T) {
	db := testsuit.InitSqlite(t, &ResourceLock{})
	lock := NewDBLock(db, 5*time.Second, WithRetry(2, 10*time.Millisecond))
	l, err := lock.Lock(context.Background(), "point:u1")
	require.NoError(t, err)

	_, err = lock.Lock(context.Background(), "point:u1")
	assert.True(t, errors.Is(err, checkout.ErrEntityLocked))

	require.NoError(t, lock.UnLock(context.Background(), l))
	l, err = lock.Lock(context.Background(), "point:u1")
	require.NoError(t, err)
	assert.NoError(t, lock.UnLock(context.Background(), l))
}

func TestLockCanceledContext(t *testing.T) {
	db := testsuit.InitSqlite(t, &ResourceLock{})
	lock := NewDBLock(db, 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := lock.Lock(ctx, "order:1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun(t *testing.T) {
	db := testsuit.InitSqlite(t, &ResourceLock{})
	var wg sync.WaitGroup
	wg.Add(1)
	lock := NewDBLock(db, 5*time.Second, func(opt *Options) {
		opt.Retry = false
	})
	started := make(chan struct{})
	go func() {
		_ = lock.Run(context.Background(), "user_coupon:1", func(ctx context.Context) {
			defer wg.Done()
			close(started)
			time.Sleep(1500 * time.Millisecond)
		})
	}()
	<-started
	// 会加锁失败
	_, err := lock.Lock(context.Background(), "user_coupon:1")
	assert.ErrorIs(t, err, checkout.ErrEntityLocked)
	wg.Wait()
}

func TestLockLostInsertRace(t *testing.T) {
	db := testsuit.InitSqlite(t, &ResourceLock{})
	// 关闭默认事务，回调里插入的记录独立提交
	db = db.Session(&gorm.Session{SkipDefaultTransaction: true})

	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:insert_race", func(tx *gorm.DB) {
		if raced {
			return
		}
		raced = true
		// 另一个实例在 First 和 Create 之间抢先插入
		now := time.Now()
		err := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO checkout_resource_lock (resource, locker_id, created_at, updated_at) VALUES (?, ?, ?, ?)",
			"product:1", "other", now, now).Error
		require.NoError(t, err)
	}))

	lock := NewDBLock(db, 5*time.Second, WithRetry(3, 10*time.Millisecond))
	_, err := lock.Lock(context.Background(), "product:1")
	assert.ErrorIs(t, err, checkout.ErrEntityLocked)
	assert.True(t, raced)

	// 对方释放后可以加锁
	require.NoError(t, db.Where("resource = ?", "product:1").Delete(&ResourceLock{}).Error)
	l, err := lock.Lock(context.Background(), "product:1")
	require.NoError(t, err)
	assert.NoError(t, lock.UnLock(context.Background(), l))
}

func TestLockWaitsForRelease(t *testing.T) {
	db := testsuit.InitSqlite(t, &ResourceLock{})
	lock := NewDBLock(db, 5*time.Second, WithRetry(50, 20*time.Millisecond))
	l, err := lock.Lock(context.Background(), "user_coupon:1")
	require.NoError(t, err)

	released := make(chan struct{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = lock.UnLock(context.Background(), l)
		close(released)
	}()

	l2, err := lock.Lock(context.Background(), "user_coupon:1")
	require.NoError(t, err)
	<-released
	assert.NoError(t, lock.UnLock(context.Background(), l2))
}
