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

package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	driver "github.com/go-sql-driver/mysql"

	"github.com/storefront/checkout"
)

// MySQL 错误码
const (
	errLockWaitTimeout uint16 = 1205
	errDeadlock        uint16 = 1213
	errLockNowait      uint16 = 3572
)

// TranslateError 把驱动层的锁等待超时、死锁转换为可重试的业务错误，其余错误原样返回
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, checkout.ErrLockTimeout) || errors.Is(err, checkout.ErrConflict) {
		return err
	}
	var myErr *driver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errLockWaitTimeout, errLockNowait:
			return fmt.Errorf("%w: %v", checkout.ErrLockTimeout, err)
		case errDeadlock:
			return fmt.Errorf("%w: deadlock: %v", checkout.ErrConflict, err)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", checkout.ErrLockTimeout, err)
	}
	// sqlite 的忙等待
	if msg := err.Error(); strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked") {
		return fmt.Errorf("%w: %v", checkout.ErrLockTimeout, err)
	}
	return err
}
