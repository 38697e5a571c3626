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
	"errors"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/application/locator"
	"github.com/storefront/checkout/biz/order/application/query/pack"
	"github.com/storefront/checkout/biz/order/domain"
	"github.com/storefront/checkout/common/dto/checkout"
)

// InitPointCommand 为用户开通积分账户，每个用户只有一个
type InitPointCommand struct {
	repos  *domain.Repositories
	userID string

	Result *checkout.Point
}

func NewInitPointCommand(repos *domain.Repositories, userID string) *InitPointCommand {
	return &InitPointCommand{repos: repos, userID: userID}
}

func (c *InitPointCommand) Init(ctx context.Context) (lockKeys []string, err error) {
	if c.userID == "" {
		return nil, ddd.InvalidArgument("user id is required")
	}
	return []string{locator.PointKey(c.userID)}, nil
}

func (c *InitPointCommand) Main(ctx context.Context, s *ddd.Session) error {
	_, err := c.repos.Points.FindByUserID(ctx, c.userID)
	if err == nil {
		return ddd.InvalidState("point of user %s already exists", c.userID)
	}
	if !errors.Is(err, ddd.ErrNotFound) {
		return err
	}
	p, err := domain.NewPoint(c.userID)
	if err != nil {
		return err
	}
	if err := c.repos.Points.Create(ctx, p); err != nil {
		return err
	}
	c.Result = pack.MakePoint(p)
	s.Output(c.Result)
	return nil
}

type ChargePointCommand struct {
	repos  *domain.Repositories
	userID string
	amount domain.Money

	Result *checkout.Point
}

func NewChargePointCommand(repos *domain.Repositories, userID string, amount domain.Money) *ChargePointCommand {
	return &ChargePointCommand{repos: repos, userID: userID, amount: amount}
}

func (c *ChargePointCommand) Init(ctx context.Context) (lockKeys []string, err error) {
	if !c.amount.IsPositive() {
		return nil, ddd.InvalidArgument("charge amount must be positive")
	}
	return []string{locator.PointKey(c.userID)}, nil
}

func (c *ChargePointCommand) Main(ctx context.Context, s *ddd.Session) error {
	p, err := c.repos.Points.FindByUserIDForUpdate(ctx, c.userID)
	if err != nil {
		return err
	}
	if err := p.Charge(c.amount, "charge"); err != nil {
		return err
	}
	if err := c.repos.Points.Save(ctx, p); err != nil {
		return err
	}
	c.Result = pack.MakePoint(p)
	s.Output(c.Result)
	return nil
}
