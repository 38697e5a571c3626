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

package handler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ddd "github.com/storefront/checkout"
	"github.com/storefront/checkout/biz/order/application/command"
	"github.com/storefront/checkout/biz/order/application/query"
	"github.com/storefront/checkout/biz/order/domain"
)

var tracer = otel.Tracer("github.com/storefront/checkout/handler")

// Observer 记录接口耗时和结果，可以为 nil
type Observer interface {
	Observe(operation string, start time.Time, err error)
}

type CheckoutServiceImpl struct {
	engine   *ddd.Engine
	repos    *domain.Repositories
	observer Observer
}

func NewCheckoutService(engine *ddd.Engine, repos *domain.Repositories, observer Observer) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{engine: engine, repos: repos, observer: observer}
}

// observe 为每个接口开 span，并按错误分类记录指标
func (s *CheckoutServiceImpl) observe(ctx context.Context, operation string, f func(ctx context.Context, span trace.Span) error) error {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "checkout."+operation)
	defer span.End()

	err := f(ctx, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("checkout.error_kind", ddd.Kind(err)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	if s.observer != nil {
		s.observer.Observe(operation, start, err)
	}
	return err
}

func (s *CheckoutServiceImpl) CreateOrder(ctx context.Context, req *CreateOrderRequest) (resp *CreateOrderResponse, err error) {
	err = s.observe(ctx, "create_order", func(ctx context.Context, span trace.Span) error {
		lines := make([]command.OrderLine, 0, len(req.Items))
		for _, item := range req.Items {
			if item == nil {
				continue
			}
			lines = append(lines, command.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		span.SetAttributes(attribute.String("checkout.user_id", req.UserID), attribute.Int("checkout.lines", len(lines)))

		cmd := command.NewCreateOrderCommand(s.repos, req.UserID, lines, req.UserCouponID)
		if err := s.engine.Run(ctx, cmd).Error; err != nil {
			return err
		}
		span.SetAttributes(attribute.Int64("checkout.order_id", cmd.Result.ID))
		resp = &CreateOrderResponse{Order: cmd.Result}
		return nil
	})
	return resp, err
}

func (s *CheckoutServiceImpl) CancelOrder(ctx context.Context, req *CancelOrderRequest) (resp *CancelOrderResponse, err error) {
	err = s.observe(ctx, "cancel_order", func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.Int64("checkout.order_id", req.OrderID), attribute.String("checkout.user_id", req.UserID))
		cmd := command.NewCancelOrderCommand(s.repos, req.OrderID, req.UserID)
		if err := s.engine.Run(ctx, cmd).Error; err != nil {
			return err
		}
		resp = &CancelOrderResponse{Order: cmd.Result}
		return nil
	})
	return resp, err
}

func (s *CheckoutServiceImpl) CompleteOrder(ctx context.Context, req *CompleteOrderRequest) (resp *CompleteOrderResponse, err error) {
	err = s.observe(ctx, "complete_order", func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.Int64("checkout.order_id", req.OrderID))
		cmd := command.NewCompleteOrderCommand(s.repos, req.OrderID)
		if err := s.engine.Run(ctx, cmd).Error; err != nil {
			return err
		}
		resp = &CompleteOrderResponse{Order: cmd.Result}
		return nil
	})
	return resp, err
}

func (s *CheckoutServiceImpl) GetOrder(ctx context.Context, req *GetOrderRequest) (resp *GetOrderResponse, err error) {
	order, err := query.GetOrder(ctx, req.OrderID, req.UserID)
	if err != nil {
		return nil, err
	}
	return &GetOrderResponse{Order: order}, nil
}

func (s *CheckoutServiceImpl) ListOrders(ctx context.Context, req *ListOrdersRequest) (resp *ListOrdersResponse, err error) {
	orders, err := query.ListOrdersByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &ListOrdersResponse{Orders: orders}, nil
}

func (s *CheckoutServiceImpl) InitPoint(ctx context.Context, req *InitPointRequest) (resp *InitPointResponse, err error) {
	err = s.observe(ctx, "init_point", func(ctx context.Context, span trace.Span) error {
		cmd := command.NewInitPointCommand(s.repos, req.UserID)
		if err := s.engine.Run(ctx, cmd).Error; err != nil {
			return err
		}
		resp = &InitPointResponse{Point: cmd.Result}
		return nil
	})
	return resp, err
}

func (s *CheckoutServiceImpl) ChargePoint(ctx context.Context, req *ChargePointRequest) (resp *ChargePointResponse, err error) {
	err = s.observe(ctx, "charge_point", func(ctx context.Context, span trace.Span) error {
		cmd := command.NewChargePointCommand(s.repos, req.UserID, req.Amount)
		if err := s.engine.Run(ctx, cmd).Error; err != nil {
			return err
		}
		resp = &ChargePointResponse{Point: cmd.Result}
		return nil
	})
	return resp, err
}

func (s *CheckoutServiceImpl) GetBalance(ctx context.Context, req *GetBalanceRequest) (resp *GetBalanceResponse, err error) {
	point, err := query.GetBalance(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &GetBalanceResponse{Point: point}, nil
}

func (s *CheckoutServiceImpl) ListPointHistories(ctx context.Context, req *ListPointHistoriesRequest) (resp *ListPointHistoriesResponse, err error) {
	histories, err := query.ListPointHistories(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &ListPointHistoriesResponse{Histories: histories}, nil
}

func (s *CheckoutServiceImpl) CreateCoupon(ctx context.Context, req *CreateCouponRequest) (resp *CreateCouponResponse, err error) {
	err = s.observe(ctx, "create_coupon", func(ctx context.Context, span trace.Span) error {
		cmd := command.NewCreateCouponCommand(s.repos, req.Name, domain.CouponType(req.Type), req.DiscountValue, req.Description)
		if err := s.engine.Run(ctx, cmd).Error; err != nil {
			return err
		}
		resp = &CreateCouponResponse{Coupon: cmd.Result}
		return nil
	})
	return resp, err
}

func (s *CheckoutServiceImpl) IssueCoupon(ctx context.Context, req *IssueCouponRequest) (resp *IssueCouponResponse, err error) {
	err = s.observe(ctx, "issue_coupon", func(ctx context.Context, span trace.Span) error {
		cmd := command.NewIssueCouponCommand(s.repos, req.CouponID, req.UserID)
		if err := s.engine.Run(ctx, cmd).Error; err != nil {
			return err
		}
		resp = &IssueCouponResponse{UserCoupon: cmd.Result}
		return nil
	})
	return resp, err
}

func (s *CheckoutServiceImpl) ListAvailableCoupons(ctx context.Context, req *ListAvailableCouponsRequest) (resp *ListAvailableCouponsResponse, err error) {
	coupons, err := query.ListAvailableUserCoupons(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &ListAvailableCouponsResponse{UserCoupons: coupons}, nil
}
