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

// CancelOrderCommand 取消订单，按下单的反向操作恢复库存并退回实付积分，优惠券不退回
type CancelOrderCommand struct {
	repos   *domain.Repositories
	orderID int64
	userID  string

	productIDs []int64
	Result     *checkout.OrderInfo
}

func NewCancelOrderCommand(repos *domain.Repositories, orderID int64, userID string) *CancelOrderCommand {
	return &CancelOrderCommand{
		repos:   repos,
		orderID: orderID,
		userID:  userID,
	}
}

// Init 先读一次订单拿到商品列表，用于计算锁 key，加锁后会重新读取
func (c *CancelOrderCommand) Init(ctx context.Context) (lockKeys []string, err error) {
	if c.userID == "" {
		return nil, ddd.InvalidArgument("user id is required")
	}
	order, err := c.repos.Orders.FindByID(ctx, c.orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(c.userID) {
		return nil, ddd.Forbidden("order %d does not belong to user %s", c.orderID, c.userID)
	}
	c.productIDs = order.ProductIDs()
	keys := locator.Request{UserID: c.userID, ProductIDs: c.productIDs}.LockKeys()
	return append(keys, locator.OrderKey(c.orderID)), nil
}

func (c *CancelOrderCommand) Main(ctx context.Context, s *ddd.Session) error {
	l := locator.New(c.repos)
	res, err := l.Acquire(ctx, locator.Request{UserID: c.userID, ProductIDs: c.productIDs})
	if err != nil {
		return err
	}
	order, err := l.LockOrder(ctx, c.orderID)
	if err != nil {
		return err
	}
	if !order.IsOwnedBy(c.userID) {
		return ddd.Forbidden("order %d does not belong to user %s", c.orderID, c.userID)
	}
	if err := order.Cancel(); err != nil {
		return err
	}

	for _, item := range order.Items() {
		p, ok := res.Products[item.ProductID()]
		if !ok {
			return ddd.InvalidState("product %d of order %d is not locked", item.ProductID(), c.orderID)
		}
		if err := p.RestoreStock(item.Quantity()); err != nil {
			return err
		}
	}
	if order.PaidAmount().IsPositive() {
		if err := res.Point.Refund(order.PaidAmount(), fmt.Sprintf("order %d canceled", order.GetID())); err != nil {
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
	if err := c.repos.Orders.Save(ctx, order); err != nil {
		return err
	}
	s.Track(order)

	logr.FromContextOrDiscard(ctx).V(1).Info("order canceled",
		"order", order.GetID(), "user", c.userID, "refund", order.PaidAmount().String())

	c.Result = pack.MakeOrder(order)
	s.Output(c.Result)
	return nil
}

type CompleteOrderCommand struct {
	repos   *domain.Repositories
	orderID int64

	Result *checkout.OrderInfo
}

func NewCompleteOrderCommand(repos *domain.Repositories, orderID int64) *CompleteOrderCommand {
	return &CompleteOrderCommand{repos: repos, orderID: orderID}
}

func (c *CompleteOrderCommand) Init(ctx context.Context) (lockKeys []string, err error) {
	return []string{locator.OrderKey(c.orderID)}, nil
}

func (c *CompleteOrderCommand) Main(ctx context.Context, s *ddd.Session) error {
	order, err := locator.New(c.repos).LockOrder(ctx, c.orderID)
	if err != nil {
		return err
	}
	if err := order.Complete(); err != nil {
		return err
	}
	if err := c.repos.Orders.Save(ctx, order); err != nil {
		return err
	}
	s.Track(order)
	c.Result = pack.MakeOrder(order)
	s.Output(c.Result)
	return nil
}
