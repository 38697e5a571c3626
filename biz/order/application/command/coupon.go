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

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/application/query/pack"
	"github.com/storefront/checkout/biz/order/domain"
	"github.com/storefront/checkout/common/dto/checkout"
)

type CreateCouponCommand struct {
	repos         *domain.Repositories
	name          string
	couponType    domain.CouponType
	discountValue domain.Money
	description   string

	Result *checkout.Coupon
}

func NewCreateCouponCommand(repos *domain.Repositories, name string, t domain.CouponType, value domain.Money, description string) *CreateCouponCommand {
	return &CreateCouponCommand{
		repos:         repos,
		name:          name,
		couponType:    t,
		discountValue: value,
		description:   description,
	}
}

func (c *CreateCouponCommand) Main(ctx context.Context, s *ddd.Session) error {
	coupon, err := domain.NewCoupon(c.name, c.couponType, c.discountValue, c.description)
	if err != nil {
		return err
	}
	if err := c.repos.Coupons.Create(ctx, coupon); err != nil {
		return err
	}
	c.Result = pack.MakeCoupon(coupon)
	s.Output(c.Result)
	return nil
}

// IssueCouponCommand 给用户发券
type IssueCouponCommand struct {
	repos    *domain.Repositories
	couponID int64
	userID   string

	Result *checkout.UserCoupon
}

func NewIssueCouponCommand(repos *domain.Repositories, couponID int64, userID string) *IssueCouponCommand {
	return &IssueCouponCommand{repos: repos, couponID: couponID, userID: userID}
}

func (c *IssueCouponCommand) Main(ctx context.Context, s *ddd.Session) error {
	coupon, err := c.repos.Coupons.FindByID(ctx, c.couponID)
	if err != nil {
		return err
	}
	uc, err := domain.IssueUserCoupon(c.userID, coupon)
	if err != nil {
		return err
	}
	if err := c.repos.UserCoupons.Create(ctx, uc); err != nil {
		return err
	}
	c.Result = pack.MakeUserCoupon(uc)
	s.Output(c.Result)
	return nil
}
