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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddd "github.com/storefront/checkout"
	order_event "github.com/storefront/checkout/common/domain_event/checkout"
)

func newItems(t *testing.T) []OrderItem {
	p1 := RestoreProduct(ProductAttrs{ID: 2, BrandName: "acme", Name: "pen", Price: money(10000), Stock: 10})
	p2 := RestoreProduct(ProductAttrs{ID: 1, BrandName: "acme", Name: "ink", Price: money(2500), Stock: 10})
	i1, err := NewOrderItem(p1, 1)
	require.NoError(t, err)
	i2, err := NewOrderItem(p2, 2)
	require.NoError(t, err)
	return []OrderItem{i1, i2}
}

func TestOrderItemSnapshot(t *testing.T) {
	p := RestoreProduct(ProductAttrs{ID: 7, BrandName: "acme", Name: "pen", Price: money(1000), Stock: 3})
	item, err := NewOrderItem(p, 3)
	require.NoError(t, err)

	require.NoError(t, p.ChangePrice(money(2000)))
	assertMoney(t, 1000, item.Price())
	assertMoney(t, 3000, item.Amount())
	assert.Equal(t, "acme", item.BrandName())

	_, err = NewOrderItem(p, 0)
	assert.ErrorIs(t, err, ddd.ErrInvalidArgument)
	_, err = RestoreOrderItem(1, "", "acme", money(1), 1)
	assert.ErrorIs(t, err, ddd.ErrInvalidArgument)
	_, err = RestoreOrderItem(1, "pen", "acme", money(-1), 1)
	assert.ErrorIs(t, err, ddd.ErrInvalidArgument)
}

func TestNewOrder(t *testing.T) {
	o, err := NewOrder("u1", newItems(t))
	require.NoError(t, err)
	assert.Equal(t, OrderPending, o.Status())
	assertMoney(t, 15000, o.TotalAmount())
	assertMoney(t, 15000, o.PaidAmount())
	assert.Equal(t, []int64{1, 2}, o.ProductIDs())

	_, err = NewOrder("u1", nil)
	assert.ErrorIs(t, err, ddd.ErrInvalidArgument)
	_, err = NewOrder("", newItems(t))
	assert.ErrorIs(t, err, ddd.ErrInvalidArgument)
}

func TestOrderApplyDiscount(t *testing.T) {
	o, err := NewOrder("u1", newItems(t))
	require.NoError(t, err)
	require.NoError(t, o.ApplyDiscount(9, money(5000)))
	assertMoney(t, 15000, o.TotalAmount())
	assertMoney(t, 5000, o.DiscountAmount())
	assertMoney(t, 10000, o.PaidAmount())
	assert.Equal(t, int64(9), *o.UserCouponID())

	require.NoError(t, o.ApplyDiscount(9, money(20000)))
	assert.True(t, o.PaidAmount().IsZero())
	assert.ErrorIs(t, o.ApplyDiscount(9, money(-1)), ddd.ErrInvalidArgument)
}

func TestOrderTransitions(t *testing.T) {
	o, err := NewOrder("u1", newItems(t))
	require.NoError(t, err)
	o.SetID(3)
	require.NoError(t, o.AfterCreate(context.Background()))
	require.NoError(t, o.Cancel())
	assert.Equal(t, OrderCanceled, o.Status())
	assert.NotNil(t, o.CanceledAt())
	assert.ErrorIs(t, o.Cancel(), ddd.ErrInvalidState)
	assert.ErrorIs(t, o.Complete(), ddd.ErrInvalidState)

	events := o.GetEvents()
	require.Len(t, events, 2)
	assert.Equal(t, order_event.EventOrderCreated, events[0].Type)
	assert.Equal(t, order_event.EventOrderCanceled, events[1].Type)
	assert.Equal(t, ddd.SendTypeTransaction, events[1].SendType)
	assert.Equal(t, "3", events[1].Sender)

	done, err := NewOrder("u1", newItems(t))
	require.NoError(t, err)
	require.NoError(t, done.Complete())
	assert.Equal(t, OrderCompleted, done.Status())
	assert.ErrorIs(t, done.Cancel(), ddd.ErrInvalidState)
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 5}, SortedUnique([]int64{5, 1, 3, 5, 1}))
	assert.Empty(t, SortedUnique(nil))
}
