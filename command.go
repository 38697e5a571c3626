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

// ICommandMain Command 的业务逻辑，在锁和事务内执行
type ICommandMain interface {
	Main(ctx context.Context, s *Session) (err error)
}

// ICommandInit Command 的初始化方法，会在锁和事务之前执行，可进行数据校验，前置准备工作
// 可选返回 lockKeys，框架会用 lockKeys 自动加锁
type ICommandInit interface {
	Init(ctx context.Context) (lockKeys []string, err error)
}

// ICommandPostSave Command 事务完成后回调，可以执行组装返回数据等操作
type ICommandPostSave interface {
	PostSave(ctx context.Context, res *Result)
}

// Session 单次命令执行的上下文，收集实体事件和返回值
type Session struct {
	stage *Stage
}

// Track 登记本次变更涉及的实体，事务提交前会收集这些实体的领域事件
func (s *Session) Track(entities ...IEntity) {
	for _, e := range entities {
		if e == nil {
			continue
		}
		if !s.stage.tracked[e] {
			s.stage.tracked[e] = true
			s.stage.entities = append(s.stage.entities, e)
		}
	}
}

// Output 设定命令的返回值，data 会被赋值到 Result.Output
func (s *Session) Output(data interface{}) {
	s.stage.result.Output = data
}
