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
	"fmt"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidDB = fmt.Errorf("invalid db")
var ErrNoTransaction = fmt.Errorf("no transaction")

// 确保外面拿不到内部的 key
type contextKey string

// Executor 基于 gorm 的事务管理，事务句柄保存在 context 中
type Executor struct {
	db    *gorm.DB
	txKey contextKey
}

func NewExecutor(db *gorm.DB) *Executor {
	return &Executor{
		db:    db,
		txKey: contextKey("executor_tx_" + xid.New().String()),
	}
}

func (e *Executor) Begin(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.db == nil {
		return ctx, ErrInvalidDB
	}

	tx := e.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, fmt.Errorf("start transation failed, err=%w", tx.Error)
	}
	return context.WithValue(ctx, e.txKey, tx), nil
}

func (e *Executor) Commit(ctx context.Context) error {
	tx, err := e.tx(ctx)
	if err != nil {
		return err
	}
	return tx.Commit().Error
}

func (e *Executor) RollBack(ctx context.Context) error {
	tx, err := e.tx(ctx)
	if err != nil {
		return err
	}
	return tx.Rollback().Error
}

func (e *Executor) tx(ctx context.Context) (*gorm.DB, error) {
	if e.db == nil {
		return nil, ErrInvalidDB
	}
	val := ctx.Value(e.txKey)
	if val == nil {
		return nil, ErrNoTransaction
	}
	return val.(*gorm.DB), nil
}

// DB 获取上下文中的 db 句柄，事务内的读写必须用该方法获取 DB
func (e *Executor) DB(ctx context.Context) *gorm.DB {
	if tx, err := e.tx(ctx); err == nil {
		return tx
	}
	return e.db.WithContext(ctx)
}

// InTransaction 判断 ctx 是否处于事务中
func (e *Executor) InTransaction(ctx context.Context) bool {
	_, err := e.tx(ctx)
	return err == nil
}

// ForUpdate 返回加了行锁的查询句柄，sqlite 不支持行锁，单连接下事务天然串行
func ForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (e *Executor) TranslateError(err error) error {
	return TranslateError(err)
}
