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
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-logr/logr"
	driver "github.com/go-sql-driver/mysql"
	"github.com/rs/xid"
	"gorm.io/gorm"

	"github.com/storefront/checkout"
	"github.com/storefront/checkout/logger/stdr"
)

var defaultLogger = stdr.NewStdr("resource_lock")

const (
	// 定时协程每隔renewInterval 去续期，renewInterval必须小于ttl，以确保在本次ttl到期前，续期定时协程能及时续上。
	renewInterval = 1 * time.Second
	retryDelay    = 100 * time.Millisecond
	retryAttempts = 5

	errDuplicateEntry uint16 = 1062
)

type Options struct {
	RenewInterval time.Duration
	Retry         bool
	RetryDelay    time.Duration
	RetryAttempts uint
	Logger        logr.Logger
}

type Option func(opt *Options)

func WithRetry(attempts uint, delay time.Duration) Option {
	return func(opt *Options) {
		opt.Retry = attempts > 1
		opt.RetryAttempts = attempts
		opt.RetryDelay = delay
	}
}

// DBLock 基于数据库唯一索引的资源锁，适用于没有 redis 的部署
type DBLock struct {
	ttl    time.Duration
	db     *gorm.DB
	logger logr.Logger
	opt    Options
}

func NewDBLock(db *gorm.DB, ttl time.Duration, options ...Option) *DBLock {
	opt := Options{
		RenewInterval: renewInterval,
		Retry:         true,
		RetryDelay:    retryDelay,
		RetryAttempts: retryAttempts,
		Logger:        defaultLogger,
	}
	for _, o := range options {
		o(&opt)
	}
	if ttl < opt.RenewInterval {
		panic(fmt.Sprintf("ttl can not less than %f seconds", opt.RenewInterval.Seconds()))
	}
	return &DBLock{db: db, ttl: ttl, logger: opt.Logger, opt: opt}
}

func (r *DBLock) Lock(ctx context.Context, key string) (keyLock interface{}, err error) {
	if !r.opt.Retry {
		return r.lock(ctx, key)
	}
	// 加锁失败后重试
	err = retry.Do(
		func() error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			keyLock, err = r.lock(ctx, key)
			return err
		},
		retry.RetryIf(func(err error) bool { // 只针对锁被占用重试
			return errors.Is(err, checkout.ErrEntityLocked)
		}),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(r.opt.RetryDelay),
		retry.Attempts(r.opt.RetryAttempts),
		retry.LastErrorOnly(true),
	)
	return
}

func (r *DBLock) lock(ctx context.Context, key string) (keyLock interface{}, err error) {
	lockerID := xid.New().String()
	var lock ResourceLock
	err = r.db.WithContext(ctx).Model(&ResourceLock{}).
		Where("`resource` = ?", key).First(&lock).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to get resource %s lock, err: %w", key, err)
		}
		// 如果没有记录，也就是没有锁
		l := &ResourceLock{Resource: key, LockerID: lockerID}
		err = r.db.WithContext(ctx).Create(l).Error
		if err != nil {
			if isDuplicated(err) {
				// 并发插入同一个 resource，视为锁被占用，交给重试
				return nil, checkout.ErrEntityLocked
			}
			return nil, fmt.Errorf("failed to create resource %s lock, err: %w", key, err)
		}
		return l, nil
	}
	if time.Since(lock.UpdatedAt) < r.ttl {
		return nil, checkout.ErrEntityLocked
	}
	// 有记录但是数据过期，抢占
	res := r.db.WithContext(ctx).Model(&ResourceLock{}).Where("resource = ?", key).
		Where("locker_id = ?", lock.LockerID).
		UpdateColumns(ResourceLock{UpdatedAt: time.Now(), LockerID: lockerID})

	if res.Error != nil {
		return nil, fmt.Errorf("failed to update resource %s lock: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		// resource updated by others
		return nil, checkout.ErrEntityLocked
	}
	lock.LockerID = lockerID
	return &lock, nil
}

// isDuplicated 唯一索引冲突，兼容未开启 gorm TranslateError 的连接
func isDuplicated(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *driver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *DBLock) UnLock(ctx context.Context, keyLock interface{}) error {
	l := keyLock.(*ResourceLock)
	res := r.db.WithContext(ctx).Where("locker_id = ? and resource = ?", l.LockerID, l.Resource).Delete(&ResourceLock{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected <= 0 { // 锁已过期并被他人抢占
		return fmt.Errorf("lock record not found (id=%s resource=%s)", l.LockerID, l.Resource)
	}
	return nil
}

func (r *DBLock) renew(ctx context.Context, keyLock interface{}) error {
	l := keyLock.(*ResourceLock)
	res := r.db.WithContext(ctx).
		Model(&ResourceLock{}).
		Where("`resource` = ? AND `locker_id` = ?", l.Resource, l.LockerID).
		UpdateColumns(ResourceLock{UpdatedAt: time.Now(), LockerID: l.LockerID})
	if res.Error != nil {
		return fmt.Errorf("failed to update resource %s lock: %w", l.Resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("resource %s updated by others", l.Resource)
	}
	return nil
}

// Run 持锁执行 fn，持锁期间定时续期，续期失败会取消 fn 的 ctx
func (r *DBLock) Run(ctx context.Context, key string, fn func(ctx context.Context)) error {
	locker, err := r.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.UnLock(ctx, locker); err != nil {
			r.logger.Error(err, "failed to unlock", "key", key)
		}
	}()

	ticker := time.NewTicker(r.opt.RenewInterval)
	defer ticker.Stop()
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		for {
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
				if err := r.renew(ctx, locker); err != nil {
					r.logger.Info("failed to renew lock", "key", key, "err", err.Error())
					cancel()
					return
				}
			}
		}
	}()

	fn(subCtx)
	return nil
}
