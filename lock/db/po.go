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

package db

import (
	"time"
)

// ResourceLock 资源锁记录，resource 唯一，记录存在且未过期即视为被占用
/*
CREATE TABLE `checkout_resource_lock` (
	`id` int unsigned NOT NULL AUTO_INCREMENT,
	`resource` varchar(191) NOT NULL,
	`locker_id` varchar(64) NOT NULL,
	`created_at` datetime(3) DEFAULT NULL,
	`updated_at` datetime(3) DEFAULT NULL,
	PRIMARY KEY (`id`),
	UNIQUE KEY `idx_resource` (`resource`),
	KEY `idx_locker_id` (`locker_id`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
type ResourceLock struct {
	ID       uint   `gorm:"primarykey;autoIncrement"`
	Resource string `gorm:"type:varchar(191);uniqueIndex:idx_resource"`
	// 持有者 ID，解锁和续期都要匹配，避免过期后误解他人的锁
	LockerID  string `gorm:"type:varchar(64);index:idx_locker_id"`
	CreatedAt time.Time
	UpdatedAt time.Time // 最近一次加锁或续期时间，超过 ttl 视为过期
}

func (ResourceLock) TableName() string {
	return "checkout_resource_lock"
}
