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

	"github.com/storefront/checkout"
)

// EventPO 事件存储模型，与业务数据在同一个事务内写入
/*
CREATE TABLE `checkout_domain_event` (
   `id` bigint NOT NULL AUTO_INCREMENT,
   `event_id` varchar(64) NOT NULL,
   `event_type` varchar(64) NOT NULL,
   `event` text NOT NULL,
   `event_created_at` datetime(3) DEFAULT NULL,
   `created_at` datetime(3) DEFAULT NULL,
   PRIMARY KEY (`id`),
   KEY `idx_checkout_domain_event_event_id` (`event_id`),
   KEY `idx_checkout_domain_event_created_at` (`created_at`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
type EventPO struct {
	ID             int64                 `gorm:"primaryKey;autoIncrement"`
	EventID        string                `gorm:"column:event_id;type:varchar(64);index"`
	EventType      string                `gorm:"column:event_type;type:varchar(64)"`
	Event          *checkout.DomainEvent `gorm:"serializer:json;type:text"`
	EventCreatedAt time.Time             // 事件的创建时间
	CreatedAt      time.Time             `gorm:"index"` // 记录创建时间
}

func (o *EventPO) TableName() string {
	return "checkout_domain_event"
}

type RetryInfo struct {
	ID         int64
	RetryCount int       // 第 RetryCount 次重试， 有限范围从 1 开始， 0 表示初始状态
	RetryTime  time.Time // 重试时间
}

// ServicePO 消费方的消费进度
/*
CREATE TABLE `checkout_eventbus_service` (
	`name` varchar(30) NOT NULL,
	`failed` text,
	`retry` text,
	`offset` bigint(20) DEFAULT NULL,
	`created_at` datetime(3) DEFAULT NULL,
	`updated_at` datetime(3) DEFAULT NULL,
	PRIMARY KEY (`name`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
type ServicePO struct {
	Name      string       `gorm:"primaryKey;type:varchar(30)"`
	Retry     []*RetryInfo `gorm:"serializer:json;type:text"` // 等待重试的事件
	Failed    []*RetryInfo `gorm:"serializer:json;type:text"` // 超过重试次数的事件，相当于死信，留给人工处理
	Offset    int64        `gorm:"column:offset"`             // 消费位置，等于最后一次消费的事件id
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *ServicePO) TableName() string {
	return "checkout_eventbus_service"
}

func eventPersist(event *checkout.DomainEvent) *EventPO {
	return &EventPO{
		EventID:        event.ID,
		EventType:      string(event.Type),
		Event:          event,
		EventCreatedAt: event.CreatedAt,
	}
}
