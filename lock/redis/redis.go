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

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/storefront/checkout"
)

const (
	defaultBackoff = 100 * time.Millisecond
	defaultRetries = 30
)

type Options struct {
	Backoff time.Duration
	Retries int
}

type Option func(opt *Options)

func WithRetry(backoff time.Duration, retries int) Option {
	return func(opt *Options) {
		opt.Backoff = backoff
		opt.Retries = retries
	}
}

// RedisLock 多实例部署时使用的分布式锁
type RedisLock struct {
	ttl time.Duration
	cli *redislock.Client
	opt Options
}

func NewRedisLock(cli redis.UniversalClient, ttl time.Duration, options ...Option) *RedisLock {
	opt := Options{Backoff: defaultBackoff, Retries: defaultRetries}
	for _, o := range options {
		o(&opt)
	}
	return &RedisLock{cli: redislock.New(cli), ttl: ttl, opt: opt}
}

func (r *RedisLock) Lock(ctx context.Context, key string) (keyLock interface{}, err error) {
	l, err := r.cli.Obtain(ctx, key, r.ttl, &redislock.Options{
		// 默认线性退避重试，最大重试30次
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(r.opt.Backoff), r.opt.Retries),
	})
	if err != nil {
		return nil, translate(key, err)
	}
	return l, nil
}

func (r *RedisLock) UnLock(ctx context.Context, keyLock interface{}) error {
	l := keyLock.(*redislock.Lock)
	if err := l.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return err
	}
	return nil
}

func translate(key string, err error) error {
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", checkout.ErrEntityLocked, key)
	}
	return err
}
