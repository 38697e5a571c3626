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

package command

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/application/locator"
	"github.com/storefront/checkout/biz/order/application/query/pack"
	"github.com/storefront/checkout/biz/order/domain"
	"github.com/storefront/checkout/common/dto/checkout"
)

type OrderLine struct {
	ProductID int64
	Quantity  int
}

// CreateOrderCommand 下单：扣库存、核销优惠券、扣积分、生成订单，全部在一个事务内完成
type CreateOrderCommand struct {
	repos        *domain.Repositories
	userID       string
	lines        []OrderLine
	userCouponID *int64

	Result *checkout.OrderInfo
}

func NewCreateOrderCommand(repos *domain.Repositories, userID string, lines []OrderLine, userCouponID *int64) *CreateOrderCommand {
	return &CreateOrderCommand{
		repos:        repos,
		userID:       userID,
		lines:        lines,
		userCouponID: userCouponID,
	}
}

func (c *CreateOrderCommand) request() locator.Request {
	ids := make([]int64, 0, len(c.lines))
	for _, l := range c.lines {
		ids = append(ids, l.ProductID)
	}
	return locator.Request{UserID: c.userID, ProductIDs: ids, UserCouponID: c.userCouponID}
}

func (c *CreateOrderCommand) Init(ctx context.Context) (lockKeys []string, err error) {
	if c.userID == "" {
		return nil, ddd.InvalidArgument("user id is required")
	}
	if len(c.lines) == 0 {
		return nil, ddd.InvalidArgument("order must have at least one item")
	}
	for _, l := range c.lines {
		if l.Quantity <= 0 {
			return nil, ddd.InvalidArgument("quantity of product %d must be positive, got %d", l.ProductID, l.Quantity)
		}
	}
	return c.request().LockKeys(), nil
}

func (c *CreateOrderCommand) Main(ctx context.Context, s *ddd.Session) error {
	res, err := locator.New(c.repos).Acquire(ctx, c.request())
	if err != nil {
		return err
	}

	if res.UserCoupon != nil {
		if err := res.UserCoupon.UseBy(c.userID); err != nil {
			return err
		}
	}

	// 可售状态按扣减前的库存判断，同一请求内扣空不算下架
	for _, p := range res.SortedProducts() {
		if !p.IsAvailable() {
			return ddd.InvalidState("product %d is not for sale", p.GetID())
		}
	}

	// 同一商品出现多次时，每一行都从同一个已加锁的实体上扣减
	items := make([]domain.OrderItem, 0, len(c.lines))
	for _, l := range c.lines {
		p := res.Products[l.ProductID]
		if err := p.DeductStock(l.Quantity); err != nil {
			return err
		}
		item, err := domain.NewOrderItem(p, l.Quantity)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	order, err := domain.NewOrder(c.userID, items)
	if err != nil {
		return err
	}
	if uc := res.UserCoupon; uc != nil {
		discount, err := uc.Coupon().CalculateDiscountAmount(order.TotalAmount())
		if err != nil {
			return err
		}
		if err := order.ApplyDiscount(uc.GetID(), discount); err != nil {
			return err
		}
	}

	// 全额抵扣时不扣积分，也不产生流水
	if order.PaidAmount().IsPositive() {
		if err := res.Point.Use(order.PaidAmount(), "order payment"); err != nil {
			return err
		}
	}

	for _, p := range res.SortedProducts() {
		if err := c.repos.Products.Save(ctx, p); err != nil {
			return err
		}
	}
	if err := c.repos.Points.Save(ctx, res.Point); err != nil {
		return err
	}
	if res.UserCoupon != nil {
		if err := c.repos.UserCoupons.Save(ctx, res.UserCoupon); err != nil {
			return err
		}
	}
	if err := c.repos.Orders.Create(ctx, order); err != nil {
		return fmt.Errorf("create order failed: %w", err)
	}
	s.Track(order)

	logr.FromContextOrDiscard(ctx).V(1).Info("order created",
		"order", order.GetID(), "user", c.userID, "paid", order.PaidAmount().String())

	c.Result = pack.MakeOrder(order)
	s.Output(c.Result)
	return nil
}
