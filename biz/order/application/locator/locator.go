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

// Package locator 负责按全局固定顺序锁定下单/取消涉及的资源。
//
// 加锁顺序：商品（id 升序、去重）-> 用户积分 -> 用户优惠券 -> 订单。
// 所有写同一批资源的操作都遵守该顺序，避免互相等待形成死锁。
// LockKeys 给出同一组资源对应的引擎锁 key，由引擎在开启事务前按序获取，
// Acquire 在事务内对数据库行加锁，两层锁保护的是同一个资源集合。
package locator

import (
	"context"
	"fmt"

	"github.com/storefront/checkout/biz/order/domain"
)

type Request struct {
	UserID       string
	ProductIDs   []int64
	UserCouponID *int64
}

type Resources struct {
	Products   map[int64]*domain.Product
	Point      *domain.Point
	UserCoupon *domain.UserCoupon
}

// SortedProducts 按加锁顺序返回商品，持久化时沿用同样的顺序
func (r *Resources) SortedProducts() []*domain.Product {
	ids := make([]int64, 0, len(r.Products))
	for id := range r.Products {
		ids = append(ids, id)
	}
	result := make([]*domain.Product, 0, len(ids))
	for _, id := range domain.SortedUnique(ids) {
		result = append(result, r.Products[id])
	}
	return result
}

func ProductKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func PointKey(userID string) string {
	return "point:" + userID
}

func UserCouponKey(id int64) string {
	return fmt.Sprintf("user_coupon:%d", id)
}

func OrderKey(id int64) string {
	return fmt.Sprintf("order:%d", id)
}

// LockKeys 与 Acquire 锁定的资源一一对应
func (r Request) LockKeys() []string {
	keys := make([]string, 0, len(r.ProductIDs)+2)
	for _, id := range domain.SortedUnique(r.ProductIDs) {
		keys = append(keys, ProductKey(id))
	}
	if r.UserID != "" {
		keys = append(keys, PointKey(r.UserID))
	}
	if r.UserCouponID != nil {
		keys = append(keys, UserCouponKey(*r.UserCouponID))
	}
	return keys
}

type Locator struct {
	repos *domain.Repositories
}

func New(repos *domain.Repositories) *Locator {
	return &Locator{repos: repos}
}

// Acquire 必须在事务内调用，任一资源不存在时直接返回，已加的行锁随事务回滚释放
func (l *Locator) Acquire(ctx context.Context, req Request) (*Resources, error) {
	res := &Resources{Products: make(map[int64]*domain.Product, len(req.ProductIDs))}
	for _, id := range domain.SortedUnique(req.ProductIDs) {
		p, err := l.repos.Products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		res.Products[id] = p
	}

	point, err := l.repos.Points.FindByUserIDForUpdate(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	res.Point = point

	if req.UserCouponID != nil {
		uc, err := l.repos.UserCoupons.FindByIDForUpdate(ctx, *req.UserCouponID)
		if err != nil {
			return nil, err
		}
		res.UserCoupon = uc
	}
	return res, nil
}

// LockOrder 订单行总是最后加锁
func (l *Locator) LockOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return l.repos.Orders.FindByIDForUpdate(ctx, id)
}
