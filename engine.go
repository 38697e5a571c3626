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
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/go-logr/logr"

	"github.com/storefront/checkout/logger/stdr"
)

var defaultLogger = stdr.NewStdr("checkout_engine")

const defaultLockPrefix = "checkout_"

type ILock interface {
	Lock(ctx context.Context, key string) (keyLock interface{}, err error)
	UnLock(ctx context.Context, keyLock interface{}) error
}

// IErrorTranslator 由存储层实现，把驱动错误（锁等待超时、死锁）转换为业务错误分类
type IErrorTranslator interface {
	TranslateError(err error) error
}

type Result struct {
	Error  error
	Break  bool
	Events []*DomainEvent
	Output interface{}
}

func ResultErrors(err ...error) *Result {
	return &Result{Error: ErrList(err)}
}

func ResultError(err error) *Result {
	return &Result{Error: err}
}

func ResultErrOrBreak(err error) *Result {
	if errors.Is(err, ErrBreak) {
		return &Result{Break: true}
	}
	return ResultError(err)
}

type MainFunc func(ctx context.Context, s *Session) error
type PostSaveFunc func(ctx context.Context, res *Result)

// EventHandlerConstruct EventHandler 的构造函数，带一个入参和一个返回值，入参是与事件类型匹配的事件数据指针类型，
// 返回值支持 ICommandMain interface 或者 MainFunc type
// 示例 func(evt *OrderCreatedEvent) *OnOrderCreatedHandler
type EventHandlerConstruct interface{}

type Options struct {
	WithTransaction bool
	Locker          ILock
	Executor        ITransaction
	Logger          logr.Logger
	EventBus        IEventBus
	LockPrefix      string
	LockTimeout     time.Duration // 获取全部锁的最长等待时间，0 表示只受 ctx 控制
	PostSaveHooks   []PostSaveFunc
}

type Option interface {
	ApplyToOptions(opts *Options)
}

type TransactionOption bool

func (t TransactionOption) ApplyToOptions(opts *Options) {
	opts.WithTransaction = bool(t)
}

const WithTransaction = TransactionOption(true)
const WithoutTransaction = TransactionOption(false)

type LoggerOption struct {
	logger logr.Logger
}

func (t LoggerOption) ApplyToOptions(opts *Options) {
	opts.Logger = t.logger
}

func WithLogger(logger logr.Logger) LoggerOption {
	return LoggerOption{logger: logger}
}

type LockOption struct {
	lock ILock
}

func (t LockOption) ApplyToOptions(opts *Options) {
	opts.Locker = t.lock
}

func WithLock(lock ILock) LockOption {
	return LockOption{lock: lock}
}

type LockTimeoutOption time.Duration

func (t LockTimeoutOption) ApplyToOptions(opts *Options) {
	opts.LockTimeout = time.Duration(t)
}

func WithLockTimeout(d time.Duration) LockTimeoutOption {
	return LockTimeoutOption(d)
}

type LockPrefixOption string

func (t LockPrefixOption) ApplyToOptions(opts *Options) {
	opts.LockPrefix = string(t)
}

func WithLockPrefix(prefix string) LockPrefixOption {
	return LockPrefixOption(prefix)
}

type ExecutorOption struct {
	executor ITransaction
}

func (t ExecutorOption) ApplyToOptions(opts *Options) {
	opts.Executor = t.executor
}

func WithExecutor(executor ITransaction) ExecutorOption {
	return ExecutorOption{executor: executor}
}

type EventBusOption struct {
	eventBus IEventBus
}

func (t EventBusOption) ApplyToOptions(opts *Options) {
	opts.EventBus = t.eventBus
}

func WithEventBus(eventBus IEventBus) EventBusOption {
	return EventBusOption{eventBus: eventBus}
}

type PostSaveOption PostSaveFunc

func (t PostSaveOption) ApplyToOptions(opts *Options) {
	opts.PostSaveHooks = append(opts.PostSaveHooks, PostSaveFunc(t))
}

func WithPostSave(f PostSaveFunc) PostSaveOption {
	return PostSaveOption(f)
}

type Engine struct {
	locker   ILock
	executor ITransaction
	eventbus IEventBus
	logger   logr.Logger
	options  Options
}

func NewEngine(l ILock, e ITransaction, opts ...Option) *Engine {
	options := Options{
		Locker:   l,
		Executor: e,

		// 默认开启事务
		WithTransaction: true,
		Logger:          defaultLogger,
		EventBus:        &noEventBus{},
		LockPrefix:      defaultLockPrefix,
	}
	for _, opt := range opts {
		opt.ApplyToOptions(&options)
	}
	eventBus := options.EventBus
	eventBus.RegisterEventHandler(onEvent)
	return &Engine{
		locker:   options.Locker,
		executor: options.Executor,
		eventbus: eventBus,
		options:  options,
		logger:   options.Logger,
	}
}

func (e *Engine) NewStage() *Stage {
	options := e.options
	// 每次运行独立的 hook 列表，避免并发 append 共享底层数组
	options.PostSaveHooks = append([]PostSaveFunc(nil), e.options.PostSaveHooks...)
	return &Stage{
		locker:   e.locker,
		executor: e.executor,
		eventBus: e.eventbus,
		tracked:  map[IEntity]bool{},
		result:   &Result{},
		options:  options,
		logger:   e.logger,
	}
}

// Run 运行命令，支持以下格式：
// 实现 ICommandMain 接口的对象，可选实现 ICommandInit、ICommandPostSave
// 类型为 func(ctx context.Context, s *Session) error 的函数
func (e *Engine) Run(ctx context.Context, c interface{}, opts ...Option) *Result {
	return e.NewStage().WithOption(opts...).Run(ctx, c)
}

// RegisterEventHandler 注册事件处理命令，事件到达后通过 construct 构造命令并由引擎执行
func (e *Engine) RegisterEventHandler(eventType EventType, construct EventHandlerConstruct) {
	handlerType := reflect.TypeOf(construct)
	if handlerType.Kind() != reflect.Func {
		panic("construct must type of reflect.Func")
	}
	if handlerType.NumIn() != 1 || handlerType.NumOut() != 1 {
		panic("construct num of arg or output must 1")
	}

	evtType := handlerType.In(0)
	if evtType.Kind() != reflect.Ptr {
		panic("event type must be pointer")
	}
	evtType = evtType.Elem() // event type 引用实际类型
	constructFunc := reflect.ValueOf(construct)

	RegisterEventHandler(eventType, func(ctx context.Context, evt *DomainEvent) error {
		var bizEvt reflect.Value
		if evtType == domainEventType {
			bizEvt = reflect.ValueOf(evt)
		} else {
			bizEvt = reflect.New(evtType)
			if err := json.Unmarshal(evt.Payload, bizEvt.Interface()); err != nil {
				e.logger.Error(err, "unmarshal event failed")
				return err
			}
		}

		outputs := constructFunc.Call([]reflect.Value{bizEvt})

		if res := e.Run(ctx, outputs[0].Interface()); res.Error != nil {
			e.logger.Error(res.Error, "event handler exec failed", "event", evt.Type)
			return res.Error
		}
		return nil
	})
}

// Stage 取舞台的意思，表示单次运行
type Stage struct {
	lockKeys []string
	main     MainFunc

	locker   ILock
	executor ITransaction
	eventBus IEventBus
	logger   logr.Logger
	options  Options

	tracked  map[IEntity]bool
	entities []IEntity
	result   *Result
	eventCtx context.Context
	pending  []*DomainEvent // 事务提交后发送的普通事件
}

func (e *Stage) WithOption(opts ...Option) *Stage {
	if len(opts) == 0 {
		return e
	}
	for _, opt := range opts {
		opt.ApplyToOptions(&e.options)
	}

	if e.options.EventBus != e.eventBus {
		e.options.EventBus.RegisterEventHandler(onEvent)
		e.eventBus = e.options.EventBus
	}
	e.locker = e.options.Locker
	e.executor = e.options.Executor
	e.logger = e.options.Logger
	return e
}

func (e *Stage) Lock(keys ...string) *Stage {
	e.lockKeys = keys
	return e
}

func (e *Stage) Main(f MainFunc) *Stage {
	e.main = f
	return e
}

func (e *Stage) Run(ctx context.Context, cmd interface{}) *Result {
	ctx = logr.NewContext(ctx, e.logger)
	switch c := cmd.(type) {
	case ICommandMain:
		var keys []string
		var options []Option
		if cmdInit, ok := cmd.(ICommandInit); ok {
			initKeys, err := cmdInit.Init(ctx)
			if err != nil {
				return e.translate(ResultErrOrBreak(err))
			}
			keys = initKeys
		}
		if cmdPostSave, ok := cmd.(ICommandPostSave); ok {
			options = append(options, PostSaveOption(cmdPostSave.PostSave))
		}
		return e.WithOption(options...).Lock(keys...).Main(c.Main).Save(ctx)
	case func(ctx context.Context, s *Session) error:
		return e.Main(c).Save(ctx)
	case MainFunc:
		return e.Main(c).Save(ctx)
	default:
		panic(fmt.Sprintf("cmd type %T is invalid", c))
	}
}

func (e *Stage) collectEvents() []*DomainEvent {
	seen := make(map[string]bool)
	events := make([]*DomainEvent, 0)
	for _, entity := range e.entities {
		for _, evt := range entity.GetEvents() {
			if !seen[evt.ID] {
				seen[evt.ID] = true
				events = append(events, evt)
			}
		}
	}
	sortEvents(events)
	return events
}

// dispatchEvents 事务事件在事务内交给 ITransactionEventBus，其余事件等待提交后发送
func (e *Stage) dispatchEvents(ctx context.Context, events []*DomainEvent) (err error) {
	txEvents := make([]*DomainEvent, 0)
	for _, evt := range events {
		if evt.SendType == SendTypeTransaction && e.options.WithTransaction {
			txEvents = append(txEvents, evt)
		} else {
			e.pending = append(e.pending, evt)
		}
	}
	if len(txEvents) == 0 {
		return nil
	}
	if txEventBus, ok := e.eventBus.(ITransactionEventBus); ok {
		e.eventCtx, err = txEventBus.DispatchBegin(ctx, txEvents...)
		return err
	}
	// 如果 eventbus 不支持事务，所有事件默认按照普通方式发送
	e.pending = append(e.pending, txEvents...)
	return nil
}

func (e *Stage) do(ctx context.Context) *Result {
	if e.main != nil {
		if err := e.main(ctx, &Session{stage: e}); err != nil {
			return ResultErrOrBreak(err)
		}
	}

	events := e.collectEvents()
	if len(events) > 0 {
		if err := e.dispatchEvents(ctx, events); err != nil {
			return ResultError(err)
		}
	}
	e.result.Events = events
	return e.result
}

type doSave func(ctx context.Context) *Result

func (e *Stage) runOnLock(f doSave, lockKeys ...string) doSave {
	return func(ctx context.Context) *Result {
		sort.Strings(lockKeys)
		for i := 1; i < len(lockKeys); i++ {
			if lockKeys[i] == lockKeys[i-1] {
				return ResultErrors(fmt.Errorf("lockKey(%s) repeated", lockKeys[i]))
			}
		}

		lockCtx := ctx
		if e.options.LockTimeout > 0 {
			var cancel context.CancelFunc
			lockCtx, cancel = context.WithTimeout(ctx, e.options.LockTimeout)
			defer cancel()
		}

		var lockErr error
		ls := make([]interface{}, 0)
		for _, id := range lockKeys {
			l, err := e.locker.Lock(lockCtx, e.options.LockPrefix+id)
			if err != nil {
				lockErr = fmt.Errorf("%w: acquiring lock %s failed: %v", ErrLockTimeout, id, err)
				break
			}
			ls = append(ls, l)
		}
		defer func() {
			// 逆序释放
			for i := len(ls) - 1; i >= 0; i-- {
				if err := e.locker.UnLock(ctx, ls[i]); err != nil {
					e.logger.Error(err, "unlock failed")
				}
			}
		}()

		if lockErr != nil {
			return ResultError(lockErr)
		}
		return f(ctx)
	}
}

func (e *Stage) runWithTransaction(f doSave) doSave {
	return func(ctx context.Context) *Result {
		ctx, err := e.executor.Begin(ctx)
		if err != nil {
			return ResultError(err)
		}
		defer func() {
			if r := recover(); r != nil {
				if err := e.executor.RollBack(ctx); err != nil {
					e.logger.Error(err, "rollback failed")
				}
				panic(r)
			}
		}()
		result := f(ctx)
		if result.Error != nil || result.Break {
			if err := e.executor.RollBack(ctx); err != nil {
				e.logger.Error(err, "rollback failed")
			}
			e.pending = nil
			if e.eventCtx != nil {
				if txEventBus, ok := e.eventBus.(ITransactionEventBus); ok {
					_ = txEventBus.Rollback(e.eventCtx)
				}
			}
			return result
		}
		if err := e.executor.Commit(ctx); err != nil {
			result.Error = err
			e.pending = nil
			e.logger.Error(err, "commit failed")
		} else if e.eventCtx != nil {
			// commit 成功后才提交消息事务
			if txEventBus, ok := e.eventBus.(ITransactionEventBus); ok {
				if err := txEventBus.Commit(e.eventCtx); err != nil {
					e.logger.Error(err, "eventbus commit failed")
				}
			}
		}

		return result
	}
}

func (e *Stage) translate(res *Result) *Result {
	if res.Error == nil {
		return res
	}
	if t, ok := e.executor.(IErrorTranslator); ok {
		res.Error = t.TranslateError(res.Error)
	}
	return res
}

func (e *Stage) Save(ctx context.Context) *Result {
	do := e.do
	if e.options.WithTransaction {
		do = e.runWithTransaction(do)
	}

	if len(e.lockKeys) > 0 {
		do = e.runOnLock(do, e.lockKeys...)
	}

	res := e.translate(do(ctx))
	if res.Error == nil && !res.Break && len(e.pending) > 0 {
		if err := e.eventBus.Dispatch(ctx, e.pending...); err != nil {
			e.logger.Error(err, "dispatch events failed")
		}
	}
	if res.Error == nil && len(e.options.PostSaveHooks) > 0 {
		for _, h := range e.options.PostSaveHooks {
			h(ctx, res)
		}
	}
	return res
}
