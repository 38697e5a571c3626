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

package po

// Models 需要建表的模型，测试和本地开发时用于 AutoMigrate
func Models() []interface{} {
	return []interface{}{
		&BrandPO{},
		&ProductPO{},
		&PointPO{},
		&PointHistoryPO{},
		&CouponPO{},
		&UserCouponPO{},
		&OrderPO{},
		&OrderItemPO{},
	}
}
