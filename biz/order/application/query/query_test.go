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

package query

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/domain"
	"github.com/storefront/checkout/biz/order/infrastructure/po"
	"github.com/storefront/checkout/biz/order/infrastructure/repo"
	db_executor "github.com/storefront/checkout/executor/mysql"
	"github.com/storefront/checkout/testsuit"
)

func TestQueries(t *testing.T) {
	ctx := context.Background()
	db := testsuit.InitSqlite(t, po.Models()...)
	Init(db)
	repos := repo.NewRepositories(db_executor.NewExecutor(db))

	brand, err := domain.NewBrand("acme", "")
	require.NoError(t, err)
	require.NoError(t, repos.Brands.Create(ctx, brand))
	p, err := domain.NewProduct(brand, "pen", decimal.NewFromInt(100), 10, "")
	require.NoError(t, err)
	require.NoError(t, repos.Products.Create(ctx, p))

	ids := make([]int64, 0)
	for qty := 1; qty <= 2; qty++ {
		item, err := domain.NewOrderItem(p, qty)
		require.NoError(t, err)
		o, err := domain.NewOrder("u1", []domain.OrderItem{item})
		require.NoError(t, err)
		require.NoError(t, repos.Orders.Create(ctx, o))
		ids = append(ids, o.GetID())
	}

	orders, err := ListOrdersByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, ids[1], orders[0].ID)
	assert.True(t, decimal.NewFromInt(200).Equal(orders[0].TotalAmount))
	assert.Equal(t, "acme", orders[0].Items[0].BrandName)

	empty, err := ListOrdersByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, empty)

	got, err := GetOrder(ctx, ids[0], "u1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderPending), got.Status)
	_, err = GetOrder(ctx, ids[0], "u2")
	assert.ErrorIs(t, err, ddd.ErrForbidden)
	_, err = GetOrder(ctx, 404, "u1")
	assert.ErrorIs(t, err, ddd.ErrNotFound)

	point, err := domain.NewPoint("u1")
	require.NoError(t, err)
	require.NoError(t, repos.Points.Create(ctx, point))
	require.NoError(t, point.Charge(decimal.NewFromInt(500), "charge"))
	require.NoError(t, point.Use(decimal.NewFromInt(200), "order payment"))
	require.NoError(t, repos.Points.Save(ctx, point))

	balance, err := GetBalance(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(balance.Balance))
	_, err = GetBalance(ctx, "u2")
	assert.ErrorIs(t, err, ddd.ErrNotFound)

	histories, err := ListPointHistories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, histories, 2)
	assert.Equal(t, string(domain.TxUse), histories[0].Type)
	assert.Equal(t, string(domain.TxCharge), histories[1].Type)

	c, err := domain.NewCoupon("fixed", domain.CouponFixedAmount, decimal.NewFromInt(50), "")
	require.NoError(t, err)
	require.NoError(t, repos.Coupons.Create(ctx, c))
	for i := 0; i < 2; i++ {
		uc, err := domain.IssueUserCoupon("u1", c)
		require.NoError(t, err)
		require.NoError(t, repos.UserCoupons.Create(ctx, uc))
	}
	used, err := repos.UserCoupons.FindByIDForUpdate(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, used.UseBy("u1"))
	require.NoError(t, repos.UserCoupons.Save(ctx, used))

	coupons, err := ListAvailableUserCoupons(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, int64(2), coupons[0].ID)
	assert.Equal(t, "fixed", coupons[0].Coupon.Name)
}
