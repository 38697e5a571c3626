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

package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	ddd "github.com/storefront/checkout"
	order_event "github.com/storefront/checkout/common/domain_event/checkout"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCanceled  OrderStatus = "CANCELED"
)

type Order struct {
	ddd.BaseEntity

	userID         string
	status         OrderStatus
	items          []OrderItem
	discountAmount Money
	paidAmount     Money // 实际从积分扣除的金额，取消时按此退款
	userCouponID   *int64
	createdAt      time.Time
	canceledAt     *time.Time
	completedAt    *time.Time
}

type OrderAttrs struct {
	ID             int64
	UserID         string
	Status         OrderStatus
	Items          []OrderItem
	DiscountAmount Money
	PaidAmount     Money
	UserCouponID   *int64
	CreatedAt      time.Time
	CanceledAt     *time.Time
	CompletedAt    *time.Time
}

func NewOrder(userID string, items []OrderItem) (*Order, error) {
	if isBlank(userID) {
		return nil, ddd.InvalidArgument("user id is required")
	}
	if len(items) == 0 {
		return nil, ddd.InvalidArgument("order must have at least one item")
	}
	o := &Order{
		userID:    userID,
		status:    OrderPending,
		items:     append([]OrderItem(nil), items...),
		createdAt: now(),
	}
	o.paidAmount = o.TotalAmount()
	return o, nil
}

func RestoreOrder(a OrderAttrs) *Order {
	return &Order{
		BaseEntity:     ddd.NewBase(a.ID),
		userID:         a.UserID,
		status:         a.Status,
		items:          a.Items,
		discountAmount: a.DiscountAmount,
		paidAmount:     a.PaidAmount,
		userCouponID:   a.UserCouponID,
		createdAt:      a.CreatedAt,
		canceledAt:     a.CanceledAt,
		completedAt:    a.CompletedAt,
	}
}

func (o *Order) UserID() string {
	return o.userID
}

func (o *Order) Status() OrderStatus {
	return o.status
}

func (o *Order) Items() []OrderItem {
	return o.items
}

// TotalAmount 始终由明细计算，不单独存储修改入口
func (o *Order) TotalAmount() Money {
	total := decimal.Zero
	for _, item := range o.items {
		total = total.Add(item.Amount())
	}
	return total
}

func (o *Order) DiscountAmount() Money {
	return o.discountAmount
}

func (o *Order) PaidAmount() Money {
	return o.paidAmount
}

func (o *Order) UserCouponID() *int64 {
	return o.userCouponID
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) CanceledAt() *time.Time {
	return o.canceledAt
}

func (o *Order) CompletedAt() *time.Time {
	return o.completedAt
}

func (o *Order) IsOwnedBy(userID string) bool {
	return o.userID == userID
}

// ProductIDs 明细涉及的商品，升序去重
func (o *Order) ProductIDs() []int64 {
	ids := make([]int64, 0, len(o.items))
	for _, item := range o.items {
		ids = append(ids, item.ProductID())
	}
	return SortedUnique(ids)
}

// ApplyDiscount 记录使用的券和折扣，实付金额不会小于 0
func (o *Order) ApplyDiscount(userCouponID int64, discount Money) error {
	if o.status != OrderPending {
		return ddd.InvalidState("order %d is %s", o.GetID(), o.status)
	}
	if discount.IsNegative() {
		return ddd.InvalidArgument("discount must not be negative")
	}
	total := o.TotalAmount()
	if discount.GreaterThan(total) {
		discount = total
	}
	o.userCouponID = &userCouponID
	o.discountAmount = discount
	o.paidAmount = total.Sub(discount)
	o.Dirty()
	return nil
}

func (o *Order) Cancel() error {
	if o.status != OrderPending {
		return ddd.InvalidState("order %d is %s, cannot cancel after fulfillment started", o.GetID(), o.status)
	}
	t := now()
	o.status = OrderCanceled
	o.canceledAt = &t
	o.Dirty()
	o.AddEvent(order_event.OrderCanceledEvent{
		OrderID:      o.GetID(),
		UserID:       o.userID,
		RefundAmount: o.paidAmount,
	}, ddd.WithSendType(ddd.SendTypeTransaction))
	return nil
}

func (o *Order) Complete() error {
	if o.status != OrderPending {
		return ddd.InvalidState("order %d is %s, only pending orders can complete", o.GetID(), o.status)
	}
	t := now()
	o.status = OrderCompleted
	o.completedAt = &t
	o.Dirty()
	o.AddEvent(order_event.OrderCompletedEvent{
		OrderID: o.GetID(),
		UserID:  o.userID,
	}, ddd.WithSendType(ddd.SendTypeTransaction))
	return nil
}

// AfterCreate 持久化拿到 ID 后发送创建事件
func (o *Order) AfterCreate(ctx context.Context) error {
	o.AddEvent(order_event.OrderCreatedEvent{
		OrderID:        o.GetID(),
		UserID:         o.userID,
		TotalAmount:    o.TotalAmount(),
		DiscountAmount: o.discountAmount,
		PaidAmount:     o.paidAmount,
		UserCouponID:   o.userCouponID,
	}, ddd.WithSendType(ddd.SendTypeTransaction))
	return nil
}
