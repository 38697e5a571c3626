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

package locator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/domain"
)

type recorder struct {
	calls   []string
	missing map[string]bool
}

func (r *recorder) visit(key string) error {
	r.calls = append(r.calls, key)
	if r.missing[key] {
		return ddd.NotFound("%s", key)
	}
	return nil
}

type fakeProducts struct {
	domain.ProductRepository
	r *recorder
}

func (f fakeProducts) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	if err := f.r.visit(ProductKey(id)); err != nil {
		return nil, err
	}
	return domain.RestoreProduct(domain.ProductAttrs{ID: id, Name: fmt.Sprint(id), Stock: 1}), nil
}

type fakePoints struct {
	domain.PointRepository
	r *recorder
}

func (f fakePoints) FindByUserIDForUpdate(ctx context.Context, userID string) (*domain.Point, error) {
	if err := f.r.visit(PointKey(userID)); err != nil {
		return nil, err
	}
	return domain.RestorePoint(1, userID, domain.Money{}), nil
}

type fakeUserCoupons struct {
	domain.UserCouponRepository
	r *recorder
}

func (f fakeUserCoupons) FindByIDForUpdate(ctx context.Context, id int64) (*domain.UserCoupon, error) {
	if err := f.r.visit(UserCouponKey(id)); err != nil {
		return nil, err
	}
	return domain.RestoreUserCoupon(domain.UserCouponAttrs{ID: id, UserID: "u1"}), nil
}

func newLocator(r *recorder) *Locator {
	return New(&domain.Repositories{
		Products:    fakeProducts{r: r},
		Points:      fakePoints{r: r},
		UserCoupons: fakeUserCoupons{r: r},
	})
}

func TestAcquireOrder(t *testing.T) {
	r := &recorder{}
	couponID := int64(9)
	req := Request{UserID: "u1", ProductIDs: []int64{3, 1, 3, 2}, UserCouponID: &couponID}

	res, err := newLocator(r).Acquire(context.Background(), req)
	require.NoError(t, err)

	want := []string{"product:1", "product:2", "product:3", "point:u1", "user_coupon:9"}
	assert.Equal(t, want, r.calls)
	assert.Equal(t, want, req.LockKeys())
	assert.Len(t, res.Products, 3)
	assert.NotNil(t, res.Point)
	assert.NotNil(t, res.UserCoupon)

	ids := make([]int64, 0)
	for _, p := range res.SortedProducts() {
		ids = append(ids, p.GetID())
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestAcquireWithoutCoupon(t *testing.T) {
	r := &recorder{}
	res, err := newLocator(r).Acquire(context.Background(), Request{UserID: "u1", ProductIDs: []int64{5}})
	require.NoError(t, err)
	assert.Nil(t, res.UserCoupon)
	assert.Equal(t, []string{"product:5", "point:u1"}, r.calls)
}

func TestAcquireStopsAtMissing(t *testing.T) {
	r := &recorder{missing: map[string]bool{"product:2": true, "user_coupon:9": true}}
	couponID := int64(9)
	_, err := newLocator(r).Acquire(context.Background(), Request{
		UserID:       "u1",
		ProductIDs:   []int64{2, 1, 4},
		UserCouponID: &couponID,
	})
	assert.ErrorIs(t, err, ddd.ErrNotFound)
	assert.Contains(t, err.Error(), "product:2")
	assert.Equal(t, []string{"product:1", "product:2"}, r.calls)
}

func TestLockKeys(t *testing.T) {
	assert.Empty(t, Request{}.LockKeys())
	assert.Equal(t, []string{"point:u2"}, Request{UserID: "u2"}.LockKeys())
	assert.Equal(t, "order:7", OrderKey(7))
}
