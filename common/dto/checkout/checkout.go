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

package checkout

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID   int64           `json:"ProductID"`
	ProductName string          `json:"ProductName"`
	BrandName   string          `json:"BrandName"`
	Price       decimal.Decimal `json:"Price"`
	Quantity    int             `json:"Quantity"`
	Amount      decimal.Decimal `json:"Amount"`
}

type OrderInfo struct {
	ID             int64           `json:"ID"`
	UserID         string          `json:"UserID"`
	Status         string          `json:"Status"`
	TotalAmount    decimal.Decimal `json:"TotalAmount"`
	DiscountAmount decimal.Decimal `json:"DiscountAmount"`
	PaidAmount     decimal.Decimal `json:"PaidAmount"`
	UserCouponID   *int64          `json:"UserCouponID,omitempty"`
	Items          []*OrderItem    `json:"Items"`
	CreatedAt      time.Time       `json:"CreatedAt"`
	CanceledAt     *time.Time      `json:"CanceledAt,omitempty"`
	CompletedAt    *time.Time      `json:"CompletedAt,omitempty"`
}

type Point struct {
	UserID  string          `json:"UserID"`
	Balance decimal.Decimal `json:"Balance"`
}

type PointHistory struct {
	ID           int64           `json:"ID"`
	Type         string          `json:"Type"`
	Amount       decimal.Decimal `json:"Amount"`
	BalanceAfter decimal.Decimal `json:"BalanceAfter"`
	Description  string          `json:"Description"`
	CreatedAt    time.Time       `json:"CreatedAt"`
}

type Coupon struct {
	ID            int64           `json:"ID"`
	Name          string          `json:"Name"`
	Type          string          `json:"Type"`
	DiscountValue decimal.Decimal `json:"DiscountValue"`
	Description   string          `json:"Description"`
}

type UserCoupon struct {
	ID     int64   `json:"ID"`
	UserID string  `json:"UserID"`
	Coupon *Coupon `json:"Coupon"`
	IsUsed bool    `json:"IsUsed"`
}
