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

package checkout

import (
	"strconv"

	"github.com/shopspring/decimal"

	ddd "github.com/storefront/checkout"
)

const EventOrderCreated ddd.EventType = "order_created"
const EventOrderCanceled ddd.EventType = "order_canceled"
const EventOrderCompleted ddd.EventType = "order_completed"

// OrderCreatedEvent 事件定义，建议以Event结尾，过去式命名
type OrderCreatedEvent struct {
	OrderID        int64
	UserID         string
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	PaidAmount     decimal.Decimal
	UserCouponID   *int64
}

func (e OrderCreatedEvent) GetType() ddd.EventType {
	return EventOrderCreated
}

func (e OrderCreatedEvent) GetSender() string {
	return strconv.FormatInt(e.OrderID, 10)
}

type OrderCanceledEvent struct {
	OrderID      int64
	UserID       string
	RefundAmount decimal.Decimal
}

func (e OrderCanceledEvent) GetType() ddd.EventType {
	return EventOrderCanceled
}

func (e OrderCanceledEvent) GetSender() string {
	return strconv.FormatInt(e.OrderID, 10)
}

type OrderCompletedEvent struct {
	OrderID int64
	UserID  string
}

func (e OrderCompletedEvent) GetType() ddd.EventType {
	return EventOrderCompleted
}

func (e OrderCompletedEvent) GetSender() string {
	return strconv.FormatInt(e.OrderID, 10)
}
