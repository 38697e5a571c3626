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

// OrderItem 下单时刻商品信息的快照，之后商品改名改价不影响已有订单
type OrderItem struct {
	productID   int64
	productName string
	brandName   string
	price       Money
	quantity    int
}

// NewOrderItem 从已加锁的商品生成快照
func NewOrderItem(p *Product, quantity int) (OrderItem, error) {
	if p == nil {
		return OrderItem{}, ddd.InvalidArgument("product is required")
	}
	return RestoreOrderItem(p.GetID(), p.Name(), p.BrandName(), p.Price(), quantity)
}

func RestoreOrderItem(productID int64, productName, brandName string, price Money, quantity int) (OrderItem, error) {
	if quantity < 1 {
		return OrderItem{}, ddd.InvalidArgument("quantity must be at least 1, got %d", quantity)
	}
	if price.IsNegative() {
		return OrderItem{}, ddd.InvalidArgument("price must not be negative")
	}
	if isBlank(productName) {
		return OrderItem{}, ddd.InvalidArgument("product name is required")
	}
	return OrderItem{
		productID:   productID,
		productName: productName,
		brandName:   brandName,
		price:       price,
		quantity:    quantity,
	}, nil
}

func (i OrderItem) ProductID() int64 {
	return i.productID
}

func (i OrderItem) ProductName() string {
	return i.productName
}

func (i OrderItem) BrandName() string {
	return i.brandName
}

func (i OrderItem) Price() Money {
	return i.price
}

func (i OrderItem) Quantity() int {
	return i.quantity
}

func (i OrderItem) Amount() Money {
	return i.price.Mul(decimal.NewFromInt(int64(i.quantity)))
}
