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
	"testing"

	driver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/storefront/checkout"
)

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"lock wait timeout", &driver.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, checkout.ErrLockTimeout},
		{"nowait", fmt.Errorf("select: %w", &driver.MySQLError{Number: 3572}), checkout.ErrLockTimeout},
		{"deadlock", &driver.MySQLError{Number: 1213, Message: "Deadlock found"}, checkout.ErrConflict},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), checkout.ErrLockTimeout},
		{"sqlite busy", errors.New("database is locked"), checkout.ErrLockTimeout},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := TranslateError(c.err)
			assert.ErrorIs(t, err, c.want)
			assert.True(t, checkout.IsRetriable(err))
		})
	}

	dup := &driver.MySQLError{Number: 1062, Message: "Duplicate entry"}
	assert.Equal(t, error(dup), TranslateError(dup))
	assert.Nil(t, TranslateError(nil))

	already := fmt.Errorf("%w: version mismatch", checkout.ErrConflict)
	assert.Equal(t, already, TranslateError(already))
}
