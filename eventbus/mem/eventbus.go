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
	"sync"

	"github.com/go-logr/logr"

	"github.com/storefront/checkout"
	"github.com/storefront/checkout/logger/stdr"
)

// MemoryEventBus 进程内事件总线，事务提交后投递，进程退出未消费的事件会丢失
type MemoryEventBus struct {
	ch     chan *checkout.DomainEvent
	cb     checkout.DomainEventHandler
	logger logr.Logger

	once sync.Once
}

func NewEventBus(capacity int) *MemoryEventBus {
	return &MemoryEventBus{
		ch:     make(chan *checkout.DomainEvent, capacity),
		logger: stdr.NewStdr("mem_eventbus"),
	}
}

func (e *MemoryEventBus) Dispatch(ctx context.Context, evts ...*checkout.DomainEvent) error {
	for _, evt := range evts {
		select {
		case e.ch <- evt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (e *MemoryEventBus) RegisterEventHandler(cb checkout.DomainEventHandler) {
	e.cb = cb
}

func (e *MemoryEventBus) Start(ctx context.Context) {
	run := func() {
		for {
			select {
			case evt := <-e.ch:
				if e.cb == nil {
					continue
				}
				if err := e.cb(ctx, evt); err != nil {
					e.logger.Error(err, "handle event failed", "type", evt.Type, "id", evt.ID)
				}
			case <-ctx.Done():
				return
			}
		}
	}
	// 确保只启动一次
	e.once.Do(func() {
		go run()
	})
}
