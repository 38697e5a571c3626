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
	"fmt"

	ddd "github.com/storefront/checkout"
)

type Product struct {
	ddd.BaseEntity

	brandID     int64
	brandName   string
	name        string
	price       Money
	stock       int
	description string
	deleted     bool
}

// ProductAttrs 从存储重建商品
type ProductAttrs struct {
	ID          int64
	Version     int64
	BrandID     int64
	BrandName   string
	Name        string
	Price       Money
	Stock       int
	Description string
	Deleted     bool
}

func NewProduct(brand *Brand, name string, price Money, stock int, description string) (*Product, error) {
	if brand == nil {
		return nil, ddd.InvalidArgument("brand is required")
	}
	if isBlank(name) {
		return nil, ddd.InvalidArgument("product name is required")
	}
	if price.IsNegative() {
		return nil, ddd.InvalidArgument("price must not be negative")
	}
	if err := checkScale("price", price); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, ddd.InvalidArgument("stock must not be negative")
	}
	return &Product{
		brandID:     brand.GetID(),
		brandName:   brand.Name(),
		name:        name,
		price:       price,
		stock:       stock,
		description: description,
	}, nil
}

func RestoreProduct(a ProductAttrs) *Product {
	return &Product{
		BaseEntity:  ddd.NewVersionedBase(a.ID, a.Version),
		brandID:     a.BrandID,
		brandName:   a.BrandName,
		name:        a.Name,
		price:       a.Price,
		stock:       a.Stock,
		description: a.Description,
		deleted:     a.Deleted,
	}
}

func (p *Product) BrandID() int64 {
	return p.brandID
}

func (p *Product) BrandName() string {
	return p.brandName
}

func (p *Product) Name() string {
	return p.name
}

func (p *Product) Price() Money {
	return p.price
}

func (p *Product) Stock() int {
	return p.stock
}

func (p *Product) Description() string {
	return p.description
}

func (p *Product) IsDeleted() bool {
	return p.deleted
}

// IsAvailable 有库存且未下架
func (p *Product) IsAvailable() bool {
	return p.stock > 0 && !p.deleted
}

func (p *Product) DeductStock(qty int) error {
	if qty <= 0 {
		return ddd.InvalidArgument("quantity must be positive, got %d", qty)
	}
	if qty > p.stock {
		return fmt.Errorf("%w: product %d has %d, requested %d", ddd.ErrInsufficientStock, p.GetID(), p.stock, qty)
	}
	p.stock -= qty
	p.Dirty()
	return nil
}

func (p *Product) RestoreStock(qty int) error {
	if qty <= 0 {
		return ddd.InvalidArgument("quantity must be positive, got %d", qty)
	}
	p.stock += qty
	p.Dirty()
	return nil
}

// ChangePrice 只影响之后的下单，已有订单持有下单时的价格快照
func (p *Product) ChangePrice(price Money) error {
	if price.IsNegative() {
		return ddd.InvalidArgument("price must not be negative")
	}
	if err := checkScale("price", price); err != nil {
		return err
	}
	p.price = price
	p.Dirty()
	return nil
}
