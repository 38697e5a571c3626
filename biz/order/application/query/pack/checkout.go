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

package pack

import (
	"github.com/storefront/checkout/biz/order/domain"
	"github.com/storefront/checkout/biz/order/infrastructure/po"
	"github.com/storefront/checkout/common/dto/checkout"
)

func MakeOrderItem(item domain.OrderItem) *checkout.OrderItem {
	return &checkout.OrderItem{
		ProductID:   item.ProductID(),
		ProductName: item.ProductName(),
		BrandName:   item.BrandName(),
		Price:       item.Price(),
		Quantity:    item.Quantity(),
		Amount:      item.Amount(),
	}
}

func MakeOrder(o *domain.Order) *checkout.OrderInfo {
	items := make([]*checkout.OrderItem, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, MakeOrderItem(item))
	}
	return &checkout.OrderInfo{
		ID:             o.GetID(),
		UserID:         o.UserID(),
		Status:         string(o.Status()),
		TotalAmount:    o.TotalAmount(),
		DiscountAmount: o.DiscountAmount(),
		PaidAmount:     o.PaidAmount(),
		UserCouponID:   o.UserCouponID(),
		Items:          items,
		CreatedAt:      o.CreatedAt(),
		CanceledAt:     o.CanceledAt(),
		CompletedAt:    o.CompletedAt(),
	}
}

func MakePoint(p *domain.Point) *checkout.Point {
	return &checkout.Point{
		UserID:  p.UserID(),
		Balance: p.Balance(),
	}
}

func MakePointHistory(m *po.PointHistoryPO) *checkout.PointHistory {
	return &checkout.PointHistory{
		ID:           m.ID,
		Type:         m.Type,
		Amount:       m.Amount,
		BalanceAfter: m.BalanceAfter,
		Description:  m.Description,
		CreatedAt:    m.CreatedAt,
	}
}

func MakePointHistoryList(pos []*po.PointHistoryPO) []*checkout.PointHistory {
	result := make([]*checkout.PointHistory, 0)
	for _, m := range pos {
		result = append(result, MakePointHistory(m))
	}
	return result
}

func MakeCoupon(c *domain.Coupon) *checkout.Coupon {
	return &checkout.Coupon{
		ID:            c.GetID(),
		Name:          c.Name(),
		Type:          string(c.Type()),
		DiscountValue: c.DiscountValue(),
		Description:   c.Description(),
	}
}

func MakeUserCoupon(uc *domain.UserCoupon) *checkout.UserCoupon {
	return &checkout.UserCoupon{
		ID:     uc.GetID(),
		UserID: uc.UserID(),
		Coupon: MakeCoupon(uc.Coupon()),
		IsUsed: uc.IsUsed(),
	}
}

// MakeUserCouponList 券模板已被删除的记录不展示
func MakeUserCouponList(pos []*po.UserCouponPO) []*checkout.UserCoupon {
	result := make([]*checkout.UserCoupon, 0)
	for _, m := range pos {
		if m.Coupon == nil {
			continue
		}
		result = append(result, &checkout.UserCoupon{
			ID:     m.ID,
			UserID: m.UserID,
			Coupon: &checkout.Coupon{
				ID:            m.Coupon.ID,
				Name:          m.Coupon.Name,
				Type:          m.Coupon.Type,
				DiscountValue: m.Coupon.DiscountValue,
				Description:   m.Coupon.Description,
			},
			IsUsed: m.IsUsed,
		})
	}
	return result
}
