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

package checkout

import (
	"errors"
	"fmt"
	"strings"
)

// 业务错误分类，调用方通过 errors.Is 判断
var (
	ErrNotFound            = fmt.Errorf("not found")
	ErrForbidden           = fmt.Errorf("forbidden")
	ErrInvalidState        = fmt.Errorf("invalid state")
	ErrInvalidArgument     = fmt.Errorf("invalid argument")
	ErrInsufficientStock   = fmt.Errorf("insufficient stock")
	ErrInsufficientBalance = fmt.Errorf("insufficient balance")
	ErrLockTimeout         = fmt.Errorf("lock timeout")
	ErrConflict            = fmt.Errorf("conflict")
)

// ErrEntityLocked 资源锁被他人持有，锁实现内部使用，引擎会转换为 ErrLockTimeout
var ErrEntityLocked = fmt.Errorf("entity locked")

var ErrBreak = fmt.Errorf("break process") // 中断流程，不返回错误

var kinds = []struct {
	err  error
	kind string
}{
	{ErrNotFound, "NOT_FOUND"},
	{ErrForbidden, "FORBIDDEN"},
	{ErrInvalidState, "INVALID_STATE"},
	{ErrInvalidArgument, "INVALID_ARGUMENT"},
	{ErrInsufficientStock, "INSUFFICIENT_STOCK"},
	{ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
	{ErrLockTimeout, "LOCK_TIMEOUT"},
	{ErrConflict, "CONFLICT"},
}

// Kind 返回错误的稳定分类名，未归类的错误为 INTERNAL
func Kind(err error) string {
	if err == nil {
		return "OK"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "INTERNAL"
}

// IsRetriable 只有锁等待超时和并发冲突允许调用方重试
func IsRetriable(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrConflict)
}

func NotFound(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return wrap(ErrForbidden, format, args...)
}

func InvalidState(format string, args ...interface{}) error {
	return wrap(ErrInvalidState, format, args...)
}

func InvalidArgument(format string, args ...interface{}) error {
	return wrap(ErrInvalidArgument, format, args...)
}

func wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

type ErrList []error

func (e ErrList) Error() string {
	errs := make([]string, 0)
	for _, err := range e {
		errs = append(errs, err.Error())
	}
	return strings.Join(errs, ", ")
}

// Is 任一错误匹配即可
func (e ErrList) Is(target error) bool {
	for _, err := range e {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
