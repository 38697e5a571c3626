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

type PointPO struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	UserID    string          `gorm:"type:varchar(64);uniqueIndex"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2)"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (s *PointPO) TableName() string {
	return "checkout_point"
}

// PointHistoryPO 积分流水，只追加不修改
type PointHistoryPO struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	UserID       string          `gorm:"type:varchar(64);index"`
	Type         string          `gorm:"type:varchar(20)"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,2)"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(20,2)"`
	Description  string          `gorm:"type:varchar(200)"`
	CreatedAt    time.Time       `gorm:"index"`
}

func (s *PointHistoryPO) TableName() string {
	return "checkout_point_history"
}
