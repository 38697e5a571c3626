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
	"time"
)

type IRetryStrategy interface {
	// Next 获取下一次重试的策略，返回 nil 表示不再重试
	// 当 RetryInfo.RetryCount == 0 表示初始化状态，通过 Next 获取第一次重试信息
	Next(info *RetryInfo) *RetryInfo
}

// LimitRetry 设定最大重试次数，不指定间隔
type LimitRetry struct {
	Limit int
}

func (c *LimitRetry) Next(info *RetryInfo) *RetryInfo {
	if info.RetryCount >= c.Limit {
		return nil
	}
	return &RetryInfo{
		ID:         info.ID,
		RetryCount: info.RetryCount + 1,
		RetryTime:  time.Now(),
	}
}

// IntervalRetry 指定固定间隔和次数
type IntervalRetry struct {
	Interval time.Duration
	Limit    int
}

func (c *IntervalRetry) Next(info *RetryInfo) *RetryInfo {
	if info.RetryCount >= c.Limit {
		return nil
	}
	lastTime := info.RetryTime
	if info.RetryCount == 0 {
		lastTime = time.Now()
	}
	return &RetryInfo{
		ID:         info.ID,
		RetryCount: info.RetryCount + 1,
		RetryTime:  lastTime.Add(c.Interval),
	}
}

// CustomRetry 自定义重试次数和间隔
type CustomRetry struct {
	Intervals []time.Duration
}

func (c *CustomRetry) Next(info *RetryInfo) *RetryInfo {
	if info.RetryCount >= len(c.Intervals) {
		return nil
	}
	lastTime := info.RetryTime
	if info.RetryCount == 0 {
		lastTime = time.Now()
	}
	return &RetryInfo{
		ID:         info.ID,
		RetryCount: info.RetryCount + 1,
		RetryTime:  lastTime.Add(c.Intervals[info.RetryCount]),
	}
}
