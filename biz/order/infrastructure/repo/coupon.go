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

type CouponRepo struct {
	p DBProvider
}

func (r *CouponRepo) FindByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	m := &po.CouponPO{}
	if err := r.p.DB(ctx).First(m, id).Error; err != nil {
		return nil, notFound(err, "coupon %d", id)
	}
	return toCoupon(m), nil
}

func (r *CouponRepo) Create(ctx context.Context, c *domain.Coupon) error {
	m := &po.CouponPO{
		Name:          c.Name(),
		Type:          string(c.Type()),
		DiscountValue: c.DiscountValue(),
		Description:   c.Description(),
	}
	if err := r.p.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	c.SetID(m.ID)
	return nil
}

func toCoupon(m *po.CouponPO) *domain.Coupon {
	return domain.RestoreCoupon(m.ID, m.Name, domain.CouponType(m.Type), m.DiscountValue, m.Description)
}

type UserCouponRepo struct {
	p DBProvider
}

func (r *UserCouponRepo) FindByIDForUpdate(ctx context.Context, id int64) (*domain.UserCoupon, error) {
	db := db_executor.ForUpdate(r.p.DB(ctx).Unscoped())
	m := &po.UserCouponPO{}
	if err := db.Preload("Coupon", unscoped).First(m, id).Error; err != nil {
		return nil, notFound(err, "user coupon %d", id)
	}
	if m.Coupon == nil {
		return nil, ddd.NotFound("coupon %d of user coupon %d", m.CouponID, id)
	}
	return domain.RestoreUserCoupon(domain.UserCouponAttrs{
		ID:      m.ID,
		Version: m.Version,
		UserID:  m.UserID,
		Coupon:  toCoupon(m.Coupon),
		Used:    m.IsUsed,
		UsedAt:  m.UsedAt,
		Deleted: m.DeletedAt.Valid,
	}), nil
}

func (r *UserCouponRepo) Create(ctx context.Context, c *domain.UserCoupon) error {
	m := &po.UserCouponPO{
		UserID:   c.UserID(),
		CouponID: c.Coupon().GetID(),
		IsUsed:   c.IsUsed(),
		UsedAt:   c.UsedAt(),
	}
	if err := r.p.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	c.SetID(m.ID)
	c.SetVersion(m.Version)
	c.UnDirty()
	return nil
}

func (r *UserCouponRepo) Save(ctx context.Context, c *domain.UserCoupon) error {
	if !c.IsDirty() {
		return nil
	}
	res := r.p.DB(ctx).Unscoped().Model(&po.UserCouponPO{}).
		Where("id = ? AND version = ?", c.GetID(), c.GetVersion()).
		Updates(map[string]interface{}{
			"is_used": c.IsUsed(),
			"used_at": c.UsedAt(),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflict("user coupon %d version %d is stale", c.GetID(), c.GetVersion())
	}
	c.SetVersion(c.GetVersion() + 1)
	c.UnDirty()
	return nil
}
