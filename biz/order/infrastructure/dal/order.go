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

package dal

import (
	"context"

	"gorm.io/gorm"

	"github.com/storefront/checkout/biz/order/infrastructure/po"
)

// DAL 读侧查询，不加锁也不参与业务事务
type DAL struct {
	db *gorm.DB
}

func NewDAL(db *gorm.DB) *DAL {
	return &DAL{db: db}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})
}

func (d DAL) GetOrderByID(ctx context.Context, id int64) (*po.OrderPO, error) {
	m := &po.OrderPO{}
	if err := withItems(d.db.WithContext(ctx)).First(m, id).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetOrdersByUser 按创建时间倒序
func (d DAL) GetOrdersByUser(ctx context.Context, userID string) ([]*po.OrderPO, error) {
	result := make([]*po.OrderPO, 0)
	err := withItems(d.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d DAL) GetPoint(ctx context.Context, userID string) (*po.PointPO, error) {
	m := &po.PointPO{}
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (d DAL) GetPointHistories(ctx context.Context, userID string) ([]*po.PointHistoryPO, error) {
	result := make([]*po.PointHistoryPO, 0)
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetAvailableUserCoupons 未使用且未删除的券
func (d DAL) GetAvailableUserCoupons(ctx context.Context, userID string) ([]*po.UserCouponPO, error) {
	result := make([]*po.UserCouponPO, 0)
	err := d.db.WithContext(ctx).
		Preload("Coupon").
		Where("user_id = ? AND is_used = ?", userID, false).
		Order("id").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}
