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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddd "github.com/storefront/checkout"
)

func TestObserve(t *testing.T) {
	m := New()
	start := time.Now()
	m.Observe("create_order", start, nil)
	m.Observe("create_order", start, nil)
	m.Observe("create_order", start, ddd.InvalidState("coupon used"))
	m.ObserveEvent("order_created")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("create_order", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("create_order", "INVALID_STATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("order_created")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe("cancel_order", time.Now(), ddd.ErrLockTimeout)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `checkout_operations_total{kind="LOCK_TIMEOUT",operation="cancel_order"} 1`))
}
