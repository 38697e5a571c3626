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
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"
)

type EventType string

// SendType 事件发送类型
type SendType string

const (
	SendTypeNormal      SendType = "normal"      // 普通事件，事务提交后发送
	SendTypeTransaction SendType = "transaction" // 事务事件，与业务数据在同一个事务内落库
)

type EventOption struct {
	SendType SendType
}

type EventOpt func(opt *EventOption)

func WithSendType(t SendType) EventOpt {
	return func(opt *EventOption) {
		opt.SendType = t
	}
}

// EventHandler 指定特定领域事件的事件处理器，必须是带有 2 个入参的函数类型，第一个参数为 context.Context 类型
// 第二个为与 EventType 匹配的事件数据指针类型， 示例 func(ctx context.Context, evt *OrderCreatedEvent) error
// 当第二个参数声明为 *DomainEvent，EventHandler 回调时会传入原始的事件类型，用户定义事件以序列化形式存在 DomainEvent.Payload 中
type EventHandler interface{}

// DomainEventHandler 通用 DomainEvent 的事件处理器
type DomainEventHandler func(ctx context.Context, evt *DomainEvent) error

var eventBusMu sync.Mutex
var eventRouter = map[EventType][]*eventHandler{}

type eventHandler struct {
	f         reflect.Value
	eventType reflect.Type // 存储实际事件类型
}

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errType = reflect.TypeOf((*error)(nil)).Elem()
var domainEventType = reflect.TypeOf(DomainEvent{})

// RegisterEventHandler 注册事件处理器
func RegisterEventHandler(t EventType, handler EventHandler) {
	eventBusMu.Lock()
	defer eventBusMu.Unlock()

	handlerType := reflect.TypeOf(handler)
	if handlerType.Kind() != reflect.Func {
		panic("handler must type of reflect.Func")
	}
	if handlerType.NumIn() != 2 || !handlerType.In(0).Implements(ctxType) {
		panic("handler must has 2 args and the first must be type of context.Context")
	}
	if handlerType.NumOut() != 1 || !handlerType.Out(0).Implements(errType) {
		panic("handler must has error as output")
	}
	argType := handlerType.In(1)
	if argType.Kind() != reflect.Ptr {
		panic("event type must be pointer")
	}
	eventRouter[t] = append(eventRouter[t], &eventHandler{
		f:         reflect.ValueOf(handler),
		eventType: argType.Elem(),
	})
}

// RegisterEventBus 注册事件总线
func RegisterEventBus(eventBus IEventBus) {
	eventBus.RegisterEventHandler(onEvent)
}

// onEvent EventBus 的统一的回调入口
func onEvent(ctx context.Context, evt *DomainEvent) error {
	eventBusMu.Lock()
	handlers := eventRouter[evt.Type]
	eventBusMu.Unlock()

	for _, h := range handlers {
		var bizEvt reflect.Value
		if h.eventType == domainEventType {
			bizEvt = reflect.ValueOf(evt)
		} else {
			bizEvt = reflect.New(h.eventType)
			if err := json.Unmarshal(evt.Payload, bizEvt.Interface()); err != nil {
				return err
			}
		}

		outs := h.f.Call([]reflect.Value{reflect.ValueOf(ctx), bizEvt})
		if !outs[0].IsNil() {
			return outs[0].Interface().(error)
		}
	}

	return nil
}

type IEvent interface {
	GetType() EventType // 事件类型
	GetSender() string  // 发送者id
}

type DomainEvent struct {
	ID        string
	Type      EventType
	SendType  SendType
	Sender    string // 事件发出实体 ID
	Payload   []byte
	CreatedAt time.Time
}

func (d *DomainEvent) GetType() EventType {
	return d.Type
}

func (d *DomainEvent) GetSender() string {
	return d.Sender
}

func NewDomainEvent(event IEvent, opts ...EventOpt) *DomainEvent {
	opt := &EventOption{
		SendType: SendTypeNormal,
	}
	for _, o := range opts {
		o(opt)
	}
	bs, err := json.Marshal(event)
	if err != nil {
		panic(fmt.Sprintf("event marshal failed, err=%s", err))
	}
	return &DomainEvent{
		ID:        xid.New().String(),
		Type:      event.GetType(),
		SendType:  opt.SendType,
		Sender:    event.GetSender(),
		Payload:   bs,
		CreatedAt: time.Now(),
	}
}

// sortEvents 事件根据发送时间 + id 的顺序排序，id 由 xid 保证单节点严格自增
func sortEvents(events []*DomainEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt) ||
			(events[i].CreatedAt.Equal(events[j].CreatedAt) && events[i].ID < events[j].ID)
	})
}

type IEventBus interface {
	// Dispatch 发送领域事件到 EventBus，普通事件在事务提交后调用
	Dispatch(ctx context.Context, evt ...*DomainEvent) error

	// RegisterEventHandler 注册事件回调，IEventBus 的实现必须保证收到事件同步调用该回调
	RegisterEventHandler(cb DomainEventHandler)
}

// ITransactionEventBus 支持事务性消息的实现
// 如果 eventbus 实现了这个接口，DomainEvent.SendType == SendTypeTransaction 的事件会在业务事务内发送
type ITransactionEventBus interface {
	IEventBus

	// DispatchBegin 在业务事务内落库事件，ctx 中带有业务事务
	// 返回值 context.Context 会传递给 Commit 和 Rollback 接口
	DispatchBegin(ctx context.Context, evt ...*DomainEvent) (context.Context, error)

	// Commit 业务事务提交后调用
	Commit(ctx context.Context) error

	// Rollback 业务事务回滚后调用
	Rollback(ctx context.Context) error
}

type noEventBus struct {
}

func (d *noEventBus) Dispatch(ctx context.Context, evt ...*DomainEvent) error {
	return nil
}

func (d *noEventBus) RegisterEventHandler(cb DomainEventHandler) {

}
