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
	"context"
)

type IEntity interface {
	IDirty

	SetID(id int64)
	GetID() int64

	GetEvents() []*DomainEvent
}

// IVersioned 带乐观锁版本号的实体
type IVersioned interface {
	GetVersion() int64
	SetVersion(v int64)
}

type IAfterCreate interface {
	AfterCreate(ctx context.Context) error
}

type IDirty interface {
	// Dirty 标记实体对象是否需要更新
	Dirty()
	// UnDirty 取消实体的更新标记
	UnDirty()
	// IsDirty 判断实体是否需要更新
	IsDirty() bool
}

type BaseEntity struct {
	id      int64
	version int64
	isDirty bool
	events  []*DomainEvent
}

func NewBase(id int64) BaseEntity {
	return BaseEntity{id: id}
}

func NewVersionedBase(id, version int64) BaseEntity {
	return BaseEntity{id: id, version: version}
}

func (e *BaseEntity) SetID(id int64) {
	e.id = id
}

func (e *BaseEntity) GetID() int64 {
	return e.id
}

func (e *BaseEntity) GetVersion() int64 {
	return e.version
}

func (e *BaseEntity) SetVersion(v int64) {
	e.version = v
}

func (e *BaseEntity) Dirty() {
	e.isDirty = true
}

func (e *BaseEntity) UnDirty() {
	e.isDirty = false
}

func (e *BaseEntity) IsDirty() bool {
	return e.isDirty
}

// AddEvent 实体发送事件，调用方需要保证事件是可序列化的，否则会导致 panic
func (e *BaseEntity) AddEvent(evt IEvent, opts ...EventOpt) {
	e.events = append(e.events, NewDomainEvent(evt, opts...))
}

func (e *BaseEntity) GetEvents() []*DomainEvent {
	return e.events
}

// AfterCreate 新建实体持久化后回调，实体实现了 IAfterCreate 才会执行
func AfterCreate(ctx context.Context, entity IEntity) error {
	if h, ok := entity.(IAfterCreate); ok {
		return h.AfterCreate(ctx)
	}
	return nil
}
