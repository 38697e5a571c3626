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

type BrandPO struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:varchar(100);uniqueIndex"`
	Description string `gorm:"type:varchar(500)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (s *BrandPO) TableName() string {
	return "checkout_brand"
}

// ProductPO 商品，Version 为乐观锁版本号
type ProductPO struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	BrandID     int64 `gorm:"index"`
	Brand       *BrandPO
	Name        string          `gorm:"type:varchar(200)"`
	Price       decimal.Decimal `gorm:"type:decimal(20,2)"`
	Stock       int
	Description string `gorm:"type:varchar(1000)"`
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (s *ProductPO) TableName() string {
	return "checkout_product"
}
