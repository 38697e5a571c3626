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

type OrderPO struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	UserID         string          `gorm:"type:varchar(64);index"`
	Status         string          `gorm:"type:varchar(20)"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,2)"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,2)"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(20,2)"`
	UserCouponID   *int64
	Items          []*OrderItemPO `gorm:"foreignKey:OrderID"`
	CanceledAt     *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (s *OrderPO) TableName() string {
	return "checkout_order"
}

// OrderItemPO 下单时的商品快照，不随商品变更
type OrderItemPO struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	OrderID     int64           `gorm:"index"`
	ProductID   int64           `gorm:"index"`
	ProductName string          `gorm:"type:varchar(200)"`
	BrandName   string          `gorm:"type:varchar(100)"`
	Price       decimal.Decimal `gorm:"type:decimal(20,2)"`
	Quantity    int
	CreatedAt   time.Time
}

func (s *OrderItemPO) TableName() string {
	return "checkout_order_item"
}
