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
	"github.com/shopspring/decimal"

	ddd "github.com/storefront/checkout"
)

type CouponType string

const (
	CouponFixedAmount CouponType = "FIXED_AMOUNT"
	CouponPercentage  CouponType = "PERCENTAGE"
)

var hundred = decimal.NewFromInt(100)

// ValidateDiscountPolicy 券面值必须为正，百分比券不超过 100
func ValidateDiscountPolicy(t CouponType, value Money) error {
	if !value.IsPositive() {
		return ddd.InvalidArgument("discount value must be positive")
	}
	if err := checkScale("discount value", value); err != nil {
		return err
	}
	switch t {
	case CouponFixedAmount:
	case CouponPercentage:
		if value.GreaterThan(hundred) {
			return ddd.InvalidArgument("percentage must not exceed 100, got %s", value)
		}
	default:
		return ddd.InvalidArgument("unknown coupon type %q", t)
	}
	return nil
}

// CalculateDiscountAmount 计算折扣金额
// 定额券不超过原价；百分比券向下取整到整数单位，7% x 12345 = 864
func CalculateDiscountAmount(t CouponType, value, originalAmount Money) (Money, error) {
	if !originalAmount.IsPositive() {
		return Money{}, ddd.InvalidArgument("original amount must be positive")
	}
	switch t {
	case CouponFixedAmount:
		return decimal.Min(value, originalAmount), nil
	case CouponPercentage:
		return originalAmount.Mul(value).Div(hundred).Floor(), nil
	default:
		return Money{}, ddd.InvalidArgument("unknown coupon type %q", t)
	}
}
