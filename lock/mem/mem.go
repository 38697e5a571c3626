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

package mem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/storefront/checkout"
)

type entry struct {
	ch   chan struct{}
	refs int
}

type handle struct {
	key string
}

// KeyLock 进程内的按 key 互斥锁，单实例部署和测试使用
// 等待可被 ctx 取消，超时返回 ErrEntityLocked
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*entry
	wait    time.Duration
}

type Option func(l *KeyLock)

// WithWait 单个 key 的最长等待时间
func WithWait(d time.Duration) Option {
	return func(l *KeyLock) {
		l.wait = d
	}
}

func NewKeyLock(opts ...Option) *KeyLock {
	l := &KeyLock{entries: map[string]*entry{}}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *KeyLock) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *KeyLock) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *KeyLock) Lock(ctx context.Context, key string) (interface{}, error) {
	e := l.acquire(key)
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}
	select {
	case e.ch <- struct{}{}:
		return &handle{key: key}, nil
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("%w: %s: %w", checkout.ErrEntityLocked, key, ctx.Err())
	}
}

func (l *KeyLock) UnLock(ctx context.Context, keyLock interface{}) error {
	h, ok := keyLock.(*handle)
	if !ok {
		return fmt.Errorf("invalid key lock %T", keyLock)
	}
	l.mu.Lock()
	e, ok := l.entries[h.key]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("lock %s not held", h.key)
	}
	select {
	case <-e.ch:
	default:
		return fmt.Errorf("lock %s not held", h.key)
	}
	l.release(h.key, e)
	return nil
}
