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

package domain

import (
	ddd "github.com/storefront/checkout"
)

// Coupon 券模板，创建后不可变
type Coupon struct {
	ddd.BaseEntity

	name          string
	couponType    CouponType
	discountValue Money
	description   string
}

func NewCoupon(name string, t CouponType, discountValue Money, description string) (*Coupon, error) {
	if isBlank(name) {
		return nil, ddd.InvalidArgument("coupon name is required")
	}
	if err := ValidateDiscountPolicy(t, discountValue); err != nil {
		return nil, err
	}
	return &Coupon{name: name, couponType: t, discountValue: discountValue, description: description}, nil
}

func RestoreCoupon(id int64, name string, t CouponType, discountValue Money, description string) *Coupon {
	return &Coupon{
		BaseEntity:    ddd.NewBase(id),
		name:          name,
		couponType:    t,
		discountValue: discountValue,
		description:   description,
	}
}

func (c *Coupon) Name() string {
	return c.name
}

func (c *Coupon) Type() CouponType {
	return c.couponType
}

func (c *Coupon) DiscountValue() Money {
	return c.discountValue
}

func (c *Coupon) Description() string {
	return c.description
}

func (c *Coupon) CalculateDiscountAmount(originalAmount Money) (Money, error) {
	return CalculateDiscountAmount(c.couponType, c.discountValue, originalAmount)
}
