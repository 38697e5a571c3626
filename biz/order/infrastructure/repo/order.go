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

package repo

import (
	"context"

	"gorm.io/gorm"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/domain"
	"github.com/storefront/checkout/biz/order/infrastructure/po"
	db_executor "github.com/storefront/checkout/executor/mysql"
)

type OrderRepo struct {
	p DBProvider
}

func (r *OrderRepo) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.find(r.p.DB(ctx), id)
}

func (r *OrderRepo) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.find(db_executor.ForUpdate(r.p.DB(ctx)), id)
}

func (r *OrderRepo) find(db *gorm.DB, id int64) (*domain.Order, error) {
	m := &po.OrderPO{}
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).First(m, id).Error
	if err != nil {
		return nil, notFound(err, "order %d", id)
	}
	return ToOrder(m)
}

// Create 订单和明细一起写入，拿到 ID 后触发实体的创建回调
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	m := &po.OrderPO{
		UserID:         o.UserID(),
		Status:         string(o.Status()),
		TotalAmount:    o.TotalAmount(),
		DiscountAmount: o.DiscountAmount(),
		PaidAmount:     o.PaidAmount(),
		UserCouponID:   o.UserCouponID(),
		CanceledAt:     o.CanceledAt(),
		CompletedAt:    o.CompletedAt(),
		CreatedAt:      o.CreatedAt(),
	}
	for _, item := range o.Items() {
		m.Items = append(m.Items, &po.OrderItemPO{
			ProductID:   item.ProductID(),
			ProductName: item.ProductName(),
			BrandName:   item.BrandName(),
			Price:       item.Price(),
			Quantity:    item.Quantity(),
		})
	}
	if err := r.p.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	o.SetID(m.ID)
	o.UnDirty()
	return ddd.AfterCreate(ctx, o)
}

// Save 状态只能从 PENDING 迁出，条件更新失败说明订单已被其他请求处理
func (r *OrderRepo) Save(ctx context.Context, o *domain.Order) error {
	if !o.IsDirty() {
		return nil
	}
	res := r.p.DB(ctx).Model(&po.OrderPO{}).
		Where("id = ? AND status = ?", o.GetID(), string(domain.OrderPending)).
		Updates(map[string]interface{}{
			"status":       string(o.Status()),
			"canceled_at":  o.CanceledAt(),
			"completed_at": o.CompletedAt(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflict("order %d is no longer pending", o.GetID())
	}
	o.UnDirty()
	return nil
}

// ToOrder 从存储模型重建订单，查询侧也会使用
func ToOrder(m *po.OrderPO) (*domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(m.Items))
	for _, it := range m.Items {
		item, err := domain.RestoreOrderItem(it.ProductID, it.ProductName, it.BrandName, it.Price, it.Quantity)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return domain.RestoreOrder(domain.OrderAttrs{
		ID:             m.ID,
		UserID:         m.UserID,
		Status:         domain.OrderStatus(m.Status),
		Items:          items,
		DiscountAmount: m.DiscountAmount,
		PaidAmount:     m.PaidAmount,
		UserCouponID:   m.UserCouponID,
		CreatedAt:      m.CreatedAt,
		CanceledAt:     m.CanceledAt,
		CompletedAt:    m.CompletedAt,
	}), nil
}
