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

package po

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CouponPO struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	Name          string          `gorm:"type:varchar(100)"`
	Type          string          `gorm:"type:varchar(20)"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(20,2)"`
	Description   string          `gorm:"type:varchar(500)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (s *CouponPO) TableName() string {
	return "checkout_coupon"
}

// UserCouponPO 发放给用户的券，一张券只能使用一次
type UserCouponPO struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"type:varchar(64);index"`
	CouponID  int64  `gorm:"index"`
	Coupon    *CouponPO
	IsUsed    bool
	UsedAt    *time.Time
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (s *UserCouponPO) TableName() string {
	return "checkout_user_coupon"
}
