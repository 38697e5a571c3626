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
	"sort"
)

// BrandRepository 只用于初始化数据，品牌管理不在本服务内
type BrandRepository interface {
	Create(ctx context.Context, b *Brand) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*Product, error)
	// FindByIDForUpdate 加行锁读取，包含已下架商品，由实体判断可售
	FindByIDForUpdate(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Save(ctx context.Context, p *Product) error
}

type PointRepository interface {
	FindByUserID(ctx context.Context, userID string) (*Point, error)
	FindByUserIDForUpdate(ctx context.Context, userID string) (*Point, error)
	Create(ctx context.Context, p *Point) error
	// Save 保存余额和待持久化的流水
	Save(ctx context.Context, p *Point) error
}

type CouponRepository interface {
	FindByID(ctx context.Context, id int64) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
}

type UserCouponRepository interface {
	// FindByIDForUpdate 加行锁读取，包含已删除的券，由实体判断可用
	FindByIDForUpdate(ctx context.Context, id int64) (*UserCoupon, error)
	Create(ctx context.Context, c *UserCoupon) error
	Save(ctx context.Context, c *UserCoupon) error
}

type OrderRepository interface {
	FindByID(ctx context.Context, id int64) (*Order, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*Order, error)
	Create(ctx context.Context, o *Order) error
	// Save 只允许从 PENDING 状态迁移
	Save(ctx context.Context, o *Order) error
}

type Repositories struct {
	Brands      BrandRepository
	Products    ProductRepository
	Points      PointRepository
	Coupons     CouponRepository
	UserCoupons UserCouponRepository
	Orders      OrderRepository
}

// SortedUnique 升序去重，加锁顺序依赖该顺序
func SortedUnique(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}
