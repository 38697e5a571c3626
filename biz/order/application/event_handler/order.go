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

package event_handler

import (
	"context"

	"github.com/go-logr/logr"

	ddd "github.com/storefront/checkout"
	order_event "github.com/storefront/checkout/common/domain_event/checkout"
)

// EventObserver 事件计数，可以为 nil
type EventObserver interface {
	ObserveEvent(t ddd.EventType)
}

type OnOrderCreatedHandler struct {
	event    *order_event.OrderCreatedEvent
	observer EventObserver
}

func NewOnOrderCreatedHandler(evt *order_event.OrderCreatedEvent, observer EventObserver) *OnOrderCreatedHandler {
	return &OnOrderCreatedHandler{event: evt, observer: observer}
}

func (h *OnOrderCreatedHandler) Main(ctx context.Context, s *ddd.Session) error {
	logr.FromContextOrDiscard(ctx).Info("order created",
		"order", h.event.OrderID, "user", h.event.UserID,
		"total", h.event.TotalAmount.String(), "paid", h.event.PaidAmount.String())
	observe(h.observer, order_event.EventOrderCreated)
	return nil
}

type OnOrderCanceledHandler struct {
	event    *order_event.OrderCanceledEvent
	observer EventObserver
}

func NewOnOrderCanceledHandler(evt *order_event.OrderCanceledEvent, observer EventObserver) *OnOrderCanceledHandler {
	return &OnOrderCanceledHandler{event: evt, observer: observer}
}

func (h *OnOrderCanceledHandler) Main(ctx context.Context, s *ddd.Session) error {
	logr.FromContextOrDiscard(ctx).Info("order canceled",
		"order", h.event.OrderID, "user", h.event.UserID, "refund", h.event.RefundAmount.String())
	observe(h.observer, order_event.EventOrderCanceled)
	return nil
}

type OnOrderCompletedHandler struct {
	event    *order_event.OrderCompletedEvent
	observer EventObserver
}

func NewOnOrderCompletedHandler(evt *order_event.OrderCompletedEvent, observer EventObserver) *OnOrderCompletedHandler {
	return &OnOrderCompletedHandler{event: evt, observer: observer}
}

func (h *OnOrderCompletedHandler) Main(ctx context.Context, s *ddd.Session) error {
	logr.FromContextOrDiscard(ctx).Info("order completed", "order", h.event.OrderID, "user", h.event.UserID)
	observe(h.observer, order_event.EventOrderCompleted)
	return nil
}

func observe(o EventObserver, t ddd.EventType) {
	if o != nil {
		o.ObserveEvent(t)
	}
}

// Register 把订单事件的处理命令注册到引擎
func Register(engine *ddd.Engine, observer EventObserver) {
	engine.RegisterEventHandler(order_event.EventOrderCreated, func(evt *order_event.OrderCreatedEvent) *OnOrderCreatedHandler {
		return NewOnOrderCreatedHandler(evt, observer)
	})
	engine.RegisterEventHandler(order_event.EventOrderCanceled, func(evt *order_event.OrderCanceledEvent) *OnOrderCanceledHandler {
		return NewOnOrderCanceledHandler(evt, observer)
	})
	engine.RegisterEventHandler(order_event.EventOrderCompleted, func(evt *order_event.OrderCompletedEvent) *OnOrderCompletedHandler {
		return NewOnOrderCompletedHandler(evt, observer)
	})
}
