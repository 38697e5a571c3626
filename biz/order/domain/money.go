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
	"strings"
	"time"

	"github.com/shopspring/decimal"

	ddd "github.com/storefront/checkout"
)

var now = time.Now

// Money 金额，存储精度 decimal(20,2)
type Money = decimal.Decimal

const moneyScale = 2

// checkScale 小数位超过存储精度的金额直接拒绝，不做舍入
func checkScale(field string, amount Money) error {
	if !amount.Equal(amount.Truncate(moneyScale)) {
		return ddd.InvalidArgument("%s %s exceeds %d decimal places", field, amount, moneyScale)
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
