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

type PointRepo struct {
	p DBProvider
}

func (r *PointRepo) FindByUserID(ctx context.Context, userID string) (*domain.Point, error) {
	return r.find(r.p.DB(ctx), userID)
}

func (r *PointRepo) FindByUserIDForUpdate(ctx context.Context, userID string) (*domain.Point, error) {
	return r.find(db_executor.ForUpdate(r.p.DB(ctx)), userID)
}

func (r *PointRepo) find(db *gorm.DB, userID string) (*domain.Point, error) {
	m := &po.PointPO{}
	if err := db.Where("user_id = ?", userID).First(m).Error; err != nil {
		return nil, notFound(err, "point of user %s", userID)
	}
	return domain.RestorePoint(m.ID, m.UserID, m.Balance), nil
}

func (r *PointRepo) Create(ctx context.Context, p *domain.Point) error {
	db := r.p.DB(ctx)
	m := &po.PointPO{UserID: p.UserID(), Balance: p.Balance()}
	if err := db.Create(m).Error; err != nil {
		return err
	}
	p.SetID(m.ID)
	return r.flush(db, p)
}

// Save 余额和流水需要在同一个事务里写入
func (r *PointRepo) Save(ctx context.Context, p *domain.Point) error {
	if !p.IsDirty() {
		return nil
	}
	db := r.p.DB(ctx)
	res := db.Model(&po.PointPO{}).Where("id = ?", p.GetID()).Update("balance", p.Balance())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflict("point %d not updated", p.GetID())
	}
	return r.flush(db, p)
}

func (r *PointRepo) flush(db *gorm.DB, p *domain.Point) error {
	pending := p.PendingHistories()
	if len(pending) > 0 {
		models := make([]*po.PointHistoryPO, 0, len(pending))
		for _, h := range pending {
			models = append(models, &po.PointHistoryPO{
				UserID:       h.UserID,
				Type:         string(h.Type),
				Amount:       h.Amount,
				BalanceAfter: h.BalanceAfter,
				Description:  h.Description,
				CreatedAt:    h.CreatedAt,
			})
		}
		if err := db.Create(&models).Error; err != nil {
			return err
		}
	}
	p.ClearPending()
	p.UnDirty()
	return nil
}
