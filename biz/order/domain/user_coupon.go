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
	"time"

	ddd "github.com/storefront/checkout"
)

// UserCoupon 发放给用户的券，只能使用一次
type UserCoupon struct {
	ddd.BaseEntity

	userID  string
	coupon  *Coupon
	used    bool
	usedAt  *time.Time
	deleted bool
}

type UserCouponAttrs struct {
	ID      int64
	Version int64
	UserID  string
	Coupon  *Coupon
	Used    bool
	UsedAt  *time.Time
	Deleted bool
}

func IssueUserCoupon(userID string, coupon *Coupon) (*UserCoupon, error) {
	if isBlank(userID) {
		return nil, ddd.InvalidArgument("user id is required")
	}
	if coupon == nil {
		return nil, ddd.InvalidArgument("coupon is required")
	}
	return &UserCoupon{userID: userID, coupon: coupon}, nil
}

func RestoreUserCoupon(a UserCouponAttrs) *UserCoupon {
	return &UserCoupon{
		BaseEntity: ddd.NewVersionedBase(a.ID, a.Version),
		userID:     a.UserID,
		coupon:     a.Coupon,
		used:       a.Used,
		usedAt:     a.UsedAt,
		deleted:    a.Deleted,
	}
}

func (u *UserCoupon) UserID() string {
	return u.userID
}

func (u *UserCoupon) Coupon() *Coupon {
	return u.coupon
}

func (u *UserCoupon) IsUsed() bool {
	return u.used
}

func (u *UserCoupon) UsedAt() *time.Time {
	return u.usedAt
}

func (u *UserCoupon) IsDeleted() bool {
	return u.deleted
}

func (u *UserCoupon) IsAvailable() bool {
	return !u.used && !u.deleted
}

// UseBy 先校验归属再校验可用性
func (u *UserCoupon) UseBy(userID string) error {
	if u.userID != userID {
		return ddd.Forbidden("user coupon %d does not belong to user %s", u.GetID(), userID)
	}
	if !u.IsAvailable() {
		return ddd.InvalidState("user coupon %d is not available", u.GetID())
	}
	t := now()
	u.used = true
	u.usedAt = &t
	u.Dirty()
	return nil
}
