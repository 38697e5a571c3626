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

package query

import (
	"context"
	"errors"

	"gorm.io/gorm"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/application/query/pack"
	"github.com/storefront/checkout/biz/order/domain"
	"github.com/storefront/checkout/biz/order/infrastructure/dal"
	"github.com/storefront/checkout/biz/order/infrastructure/repo"
	"github.com/storefront/checkout/common/dto/checkout"
)

var checkoutDAL *dal.DAL

func Init(db *gorm.DB) {
	checkoutDAL = dal.NewDAL(db)
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ddd.NotFound(format, args...)
	}
	return err
}

// GetOrder 只允许下单用户查看
func GetOrder(ctx context.Context, id int64, userID string) (*checkout.OrderInfo, error) {
	m, err := checkoutDAL.GetOrderByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order %d", id)
	}
	if m.UserID != userID {
		return nil, ddd.Forbidden("order %d does not belong to user %s", id, userID)
	}
	order, err := repo.ToOrder(m)
	if err != nil {
		return nil, err
	}
	return pack.MakeOrder(order), nil
}

func ListOrdersByUser(ctx context.Context, userID string) ([]*checkout.OrderInfo, error) {
	pos, err := checkoutDAL.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]*checkout.OrderInfo, 0, len(pos))
	for _, m := range pos {
		order, err := repo.ToOrder(m)
		if err != nil {
			return nil, err
		}
		result = append(result, pack.MakeOrder(order))
	}
	return result, nil
}

func GetBalance(ctx context.Context, userID string) (*checkout.Point, error) {
	m, err := checkoutDAL.GetPoint(ctx, userID)
	if err != nil {
		return nil, notFound(err, "point of user %s", userID)
	}
	return pack.MakePoint(domain.RestorePoint(m.ID, m.UserID, m.Balance)), nil
}

func ListPointHistories(ctx context.Context, userID string) ([]*checkout.PointHistory, error) {
	pos, err := checkoutDAL.GetPointHistories(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pack.MakePointHistoryList(pos), nil
}

func ListAvailableUserCoupons(ctx context.Context, userID string) ([]*checkout.UserCoupon, error) {
	pos, err := checkoutDAL.GetAvailableUserCoupons(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pack.MakeUserCouponList(pos), nil
}
