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

package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/application/query"
	"github.com/storefront/checkout/biz/order/domain"
	"github.com/storefront/checkout/biz/order/infrastructure/po"
	"github.com/storefront/checkout/biz/order/infrastructure/repo"
	db_executor "github.com/storefront/checkout/executor/mysql"
	"github.com/storefront/checkout/handler"
	"github.com/storefront/checkout/lock/mem"
	"github.com/storefront/checkout/metrics"
	"github.com/storefront/checkout/testsuit"
)

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func (c *client) call(action string, req interface{}, resp interface{}) int {
	body, err := json.Marshal(req)
	require.NoError(c.t, err)
	r, err := http.Post(fmt.Sprintf("%s/?Action=%s", c.srv.URL, action), "application/json", bytes.NewReader(body))
	require.NoError(c.t, err)
	defer r.Body.Close()
	if resp != nil {
		require.NoError(c.t, json.NewDecoder(r.Body).Decode(resp))
	}
	return r.StatusCode
}

func newService(t *testing.T) (*handler.CheckoutServiceImpl, *domain.Repositories, *metrics.Metrics) {
	db := testsuit.InitSqlite(t, po.Models()...)
	exec := db_executor.NewExecutor(db)
	repos := repo.NewRepositories(exec)
	query.Init(db)
	m := metrics.New()
	engine := ddd.NewEngine(mem.NewKeyLock(), exec)
	return handler.NewCheckoutService(engine, repos, m), repos, m
}

func newClient(t *testing.T) (*client, *domain.Repositories) {
	service, repos, m := newService(t)
	srv := httptest.NewServer(NewRouter(service, m.Handler()))
	t.Cleanup(srv.Close)
	return &client{t: t, srv: srv}, repos
}

func TestCheckoutFlow(t *testing.T) {
	c, repos := newClient(t)
	ctx := context.Background()

	brand, err := domain.NewBrand("acme", "")
	require.NoError(t, err)
	require.NoError(t, repos.Brands.Create(ctx, brand))
	p, err := domain.NewProduct(brand, "pen", decimal.NewFromInt(10000), 10, "")
	require.NoError(t, err)
	require.NoError(t, repos.Products.Create(ctx, p))

	require.Equal(t, http.StatusOK, c.call("InitPoint", &handler.InitPointRequest{UserID: "u1"}, nil))
	require.Equal(t, http.StatusOK, c.call("ChargePoint", &handler.ChargePointRequest{UserID: "u1", Amount: decimal.NewFromInt(50000)}, nil))

	coupon := &handler.CreateCouponResponse{}
	require.Equal(t, http.StatusOK, c.call("CreateCoupon", &handler.CreateCouponRequest{
		Name: "fixed", Type: string(domain.CouponFixedAmount), DiscountValue: decimal.NewFromInt(5000),
	}, coupon))
	issued := &handler.IssueCouponResponse{}
	require.Equal(t, http.StatusOK, c.call("IssueCoupon", &handler.IssueCouponRequest{CouponID: coupon.Coupon.ID, UserID: "u1"}, issued))

	created := &handler.CreateOrderResponse{}
	req := &handler.CreateOrderRequest{
		UserID:       "u1",
		Items:        []*handler.OrderLine{{ProductID: p.GetID(), Quantity: 1}},
		UserCouponID: &issued.UserCoupon.ID,
	}
	require.Equal(t, http.StatusOK, c.call("CreateOrder", req, created))
	assert.True(t, decimal.NewFromInt(5000).Equal(created.Order.PaidAmount))
	assert.Equal(t, "acme", created.Order.Items[0].BrandName)

	errResp := &ErrorResponse{}
	assert.Equal(t, http.StatusConflict, c.call("CreateOrder", req, errResp))
	assert.Equal(t, "INVALID_STATE", errResp.Code)

	balance := &handler.GetBalanceResponse{}
	require.Equal(t, http.StatusOK, c.call("GetBalance", &handler.GetBalanceRequest{UserID: "u1"}, balance))
	assert.True(t, decimal.NewFromInt(45000).Equal(balance.Point.Balance))

	assert.Equal(t, http.StatusForbidden, c.call("CancelOrder", &handler.CancelOrderRequest{OrderID: created.Order.ID, UserID: "u2"}, nil))
	canceled := &handler.CancelOrderResponse{}
	require.Equal(t, http.StatusOK, c.call("CancelOrder", &handler.CancelOrderRequest{OrderID: created.Order.ID, UserID: "u1"}, canceled))
	assert.Equal(t, string(domain.OrderCanceled), canceled.Order.Status)

	orders := &handler.ListOrdersResponse{}
	require.Equal(t, http.StatusOK, c.call("ListOrders", &handler.ListOrdersRequest{UserID: "u1"}, orders))
	assert.Len(t, orders.Orders, 1)

	r, err := http.Get(c.srv.URL + "/metrics")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)
}

func TestHandlerBadRequests(t *testing.T) {
	c, _ := newClient(t)

	errResp := &ErrorResponse{}
	assert.Equal(t, http.StatusNotFound, c.call("Unknown", struct{}{}, errResp))
	assert.Equal(t, "NOT_FOUND", errResp.Code)

	r, err := http.Post(c.srv.URL+"/?Action=CreateOrder", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)

	assert.Equal(t, http.StatusBadRequest, c.call("CreateOrder", &handler.CreateOrderRequest{UserID: "u1"}, nil))
	assert.Equal(t, http.StatusNotFound, c.call("GetBalance", &handler.GetBalanceRequest{UserID: "nobody"}, nil))
}

func TestHandlerBodyTooLarge(t *testing.T) {
	service, _, _ := newService(t)
	h := chimw.RequestSize(16)(Handler(service))

	body := `{"UserID":"` + strings.Repeat("u", 64) + `"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/?Action=InitPoint", strings.NewReader(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	errResp := &ErrorResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(errResp))
	assert.Equal(t, "INVALID_ARGUMENT", errResp.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/?Action=InitPoint", strings.NewReader(`{"UserID":"u1"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(ddd.InvalidArgument("x")))
	assert.Equal(t, http.StatusConflict, StatusOf(ddd.ErrInsufficientBalance))
	assert.Equal(t, http.StatusConflict, StatusOf(ddd.ErrConflict))
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(ddd.ErrLockTimeout))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(fmt.Errorf("boom")))
}
