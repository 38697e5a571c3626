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
	ddd "github.com/storefront/checkout"
)

// Brand 只作为商品快照中品牌名的来源
type Brand struct {
	ddd.BaseEntity

	name        string
	description string
	deleted     bool
}

func NewBrand(name, description string) (*Brand, error) {
	if isBlank(name) {
		return nil, ddd.InvalidArgument("brand name is required")
	}
	return &Brand{name: name, description: description}, nil
}

func RestoreBrand(id int64, name, description string, deleted bool) *Brand {
	return &Brand{BaseEntity: ddd.NewBase(id), name: name, description: description, deleted: deleted}
}

func (b *Brand) Name() string {
	return b.name
}

func (b *Brand) Description() string {
	return b.description
}

func (b *Brand) IsDeleted() bool {
	return b.deleted
}
