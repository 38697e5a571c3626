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

	"github.com/storefront/checkout/biz/order/domain"
	"github.com/storefront/checkout/biz/order/infrastructure/po"
	db_executor "github.com/storefront/checkout/executor/mysql"
)

type BrandRepo struct {
	p DBProvider
}

func (r *BrandRepo) Create(ctx context.Context, b *domain.Brand) error {
	m := &po.BrandPO{Name: b.Name(), Description: b.Description()}
	if err := r.p.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	b.SetID(m.ID)
	return nil
}

type ProductRepo struct {
	p DBProvider
}

func (r *ProductRepo) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.find(r.p.DB(ctx), id)
}

func (r *ProductRepo) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return r.find(db_executor.ForUpdate(r.p.DB(ctx).Unscoped()), id)
}

func (r *ProductRepo) find(db *gorm.DB, id int64) (*domain.Product, error) {
	m := &po.ProductPO{}
	if err := db.Preload("Brand", unscoped).First(m, id).Error; err != nil {
		return nil, notFound(err, "product %d", id)
	}
	return toProduct(m), nil
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	m := &po.ProductPO{
		BrandID:     p.BrandID(),
		Name:        p.Name(),
		Price:       p.Price(),
		Stock:       p.Stock(),
		Description: p.Description(),
	}
	if err := r.p.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	p.SetID(m.ID)
	p.SetVersion(m.Version)
	p.UnDirty()
	return nil
}

// Save 按版本号更新，版本不一致说明有并发修改
func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	if !p.IsDirty() {
		return nil
	}
	res := r.p.DB(ctx).Unscoped().Model(&po.ProductPO{}).
		Where("id = ? AND version = ?", p.GetID(), p.GetVersion()).
		Updates(map[string]interface{}{
			"name":        p.Name(),
			"price":       p.Price(),
			"stock":       p.Stock(),
			"description": p.Description(),
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflict("product %d version %d is stale", p.GetID(), p.GetVersion())
	}
	p.SetVersion(p.GetVersion() + 1)
	p.UnDirty()
	return nil
}

func toProduct(m *po.ProductPO) *domain.Product {
	a := domain.ProductAttrs{
		ID:          m.ID,
		Version:     m.Version,
		BrandID:     m.BrandID,
		Name:        m.Name,
		Price:       m.Price,
		Stock:       m.Stock,
		Description: m.Description,
		Deleted:     m.DeletedAt.Valid,
	}
	if m.Brand != nil {
		a.BrandName = m.Brand.Name
	}
	return domain.RestoreProduct(a)
}
