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

package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/domain"
)

// DBProvider 提供当前上下文的 db 句柄，事务内返回事务句柄
type DBProvider interface {
	DB(ctx context.Context) *gorm.DB
}

func NewRepositories(p DBProvider) *domain.Repositories {
	return &domain.Repositories{
		Brands:      &BrandRepo{p: p},
		Products:    &ProductRepo{p: p},
		Points:      &PointRepo{p: p},
		Coupons:     &CouponRepo{p: p},
		UserCoupons: &UserCouponRepo{p: p},
		Orders:      &OrderRepo{p: p},
	}
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ddd.NotFound(format, args...)
	}
	return err
}

func conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ddd.ErrConflict, fmt.Sprintf(format, args...))
}

func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}
