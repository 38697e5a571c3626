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

package handler

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/checkout/common/dto/checkout"
)

type OrderLine struct {
	ProductID int64 `json:"ProductID"`
	Quantity  int   `json:"Quantity"`
}

type CreateOrderRequest struct {
	UserID       string       `json:"UserID"`
	Items        []*OrderLine `json:"Items"`
	UserCouponID *int64       `json:"UserCouponID,omitempty"`
}

type CreateOrderResponse struct {
	Order *checkout.OrderInfo `json:"Order"`
}

type CancelOrderRequest struct {
	OrderID int64  `json:"OrderID"`
	UserID  string `json:"UserID"`
}

type CancelOrderResponse struct {
	Order *checkout.OrderInfo `json:"Order"`
}

type CompleteOrderRequest struct {
	OrderID int64 `json:"OrderID"`
}

type CompleteOrderResponse struct {
	Order *checkout.OrderInfo `json:"Order"`
}

type GetOrderRequest struct {
	OrderID int64  `json:"OrderID"`
	UserID  string `json:"UserID"`
}

type GetOrderResponse struct {
	Order *checkout.OrderInfo `json:"Order"`
}

type ListOrdersRequest struct {
	UserID string `json:"UserID"`
}

type ListOrdersResponse struct {
	Orders []*checkout.OrderInfo `json:"Orders"`
}

type InitPointRequest struct {
	UserID string `json:"UserID"`
}

type InitPointResponse struct {
	Point *checkout.Point `json:"Point"`
}

type ChargePointRequest struct {
	UserID string          `json:"UserID"`
	Amount decimal.Decimal `json:"Amount"`
}

type ChargePointResponse struct {
	Point *checkout.Point `json:"Point"`
}

type GetBalanceRequest struct {
	UserID string `json:"UserID"`
}

type GetBalanceResponse struct {
	Point *checkout.Point `json:"Point"`
}

type ListPointHistoriesRequest struct {
	UserID string `json:"UserID"`
}

type ListPointHistoriesResponse struct {
	Histories []*checkout.PointHistory `json:"Histories"`
}

type CreateCouponRequest struct {
	Name          string          `json:"Name"`
	Type          string          `json:"Type"`
	DiscountValue decimal.Decimal `json:"DiscountValue"`
	Description   string          `json:"Description"`
}

type CreateCouponResponse struct {
	Coupon *checkout.Coupon `json:"Coupon"`
}

type IssueCouponRequest struct {
	CouponID int64  `json:"CouponID"`
	UserID   string `json:"UserID"`
}

type IssueCouponResponse struct {
	UserCoupon *checkout.UserCoupon `json:"UserCoupon"`
}

type ListAvailableCouponsRequest struct {
	UserID string `json:"UserID"`
}

type ListAvailableCouponsResponse struct {
	UserCoupons []*checkout.UserCoupon `json:"UserCoupons"`
}
