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
	"fmt"
	"time"

	ddd "github.com/storefront/checkout"
)

type TxType string

const (
	TxCharge TxType = "CHARGE"
	TxUse    TxType = "USE"
	TxRefund TxType = "REFUND"
)

// PointHistory 积分流水，只追加不修改
type PointHistory struct {
	ID           int64
	UserID       string
	Type         TxType
	Amount       Money
	BalanceAfter Money
	Description  string
	CreatedAt    time.Time
}

func NewPointHistory(userID string, t TxType, amount, balanceAfter Money, description string) (*PointHistory, error) {
	if isBlank(userID) {
		return nil, ddd.InvalidArgument("user id is required")
	}
	switch t {
	case TxCharge, TxUse, TxRefund:
	default:
		return nil, ddd.InvalidArgument("unknown point tx type %q", t)
	}
	if !amount.IsPositive() {
		return nil, ddd.InvalidArgument("amount must be positive")
	}
	if balanceAfter.IsNegative() {
		return nil, ddd.InvalidArgument("balance after must not be negative")
	}
	return &PointHistory{
		UserID:       userID,
		Type:         t,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Description:  description,
		CreatedAt:    now(),
	}, nil
}

// Point 用户积分账户，每个用户唯一
// 余额的每次变动都会产生一条待持久化的流水，与余额一起保存
type Point struct {
	ddd.BaseEntity

	userID  string
	balance Money
	pending []*PointHistory
}

func NewPoint(userID string) (*Point, error) {
	if isBlank(userID) {
		return nil, ddd.InvalidArgument("user id is required")
	}
	return &Point{userID: userID, balance: Money{}}, nil
}

func RestorePoint(id int64, userID string, balance Money) *Point {
	return &Point{BaseEntity: ddd.NewBase(id), userID: userID, balance: balance}
}

func (p *Point) UserID() string {
	return p.userID
}

func (p *Point) Balance() Money {
	return p.balance
}

func (p *Point) Charge(amount Money, description string) error {
	if !amount.IsPositive() {
		return ddd.InvalidArgument("charge amount must be positive")
	}
	if err := checkScale("charge amount", amount); err != nil {
		return err
	}
	return p.apply(TxCharge, amount, p.balance.Add(amount), description)
}

func (p *Point) Use(amount Money, description string) error {
	if !amount.IsPositive() {
		return ddd.InvalidArgument("use amount must be positive")
	}
	if err := checkScale("use amount", amount); err != nil {
		return err
	}
	if amount.GreaterThan(p.balance) {
		return fmt.Errorf("%w: balance %s, requested %s", ddd.ErrInsufficientBalance, p.balance, amount)
	}
	return p.apply(TxUse, amount, p.balance.Sub(amount), description)
}

func (p *Point) Refund(amount Money, description string) error {
	if !amount.IsPositive() {
		return ddd.InvalidArgument("refund amount must be positive")
	}
	if err := checkScale("refund amount", amount); err != nil {
		return err
	}
	return p.apply(TxRefund, amount, p.balance.Add(amount), description)
}

func (p *Point) apply(t TxType, amount, balanceAfter Money, description string) error {
	h, err := NewPointHistory(p.userID, t, amount, balanceAfter, description)
	if err != nil {
		return err
	}
	p.balance = balanceAfter
	p.pending = append(p.pending, h)
	p.Dirty()
	return nil
}

// PendingHistories 尚未持久化的流水
func (p *Point) PendingHistories() []*PointHistory {
	return p.pending
}

func (p *Point) ClearPending() {
	p.pending = nil
}
