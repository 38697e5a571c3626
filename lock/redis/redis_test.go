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

package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/bsm/redislock"
	"github.com/stretchr/testify/assert"

	"github.com/storefront/checkout"
)

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate("product:1", redislock.ErrNotObtained), checkout.ErrEntityLocked)
	assert.ErrorIs(t, translate("product:1", context.DeadlineExceeded), checkout.ErrEntityLocked)

	other := errors.New("dial tcp: connection refused")
	assert.Equal(t, other, translate("product:1", other))
}
