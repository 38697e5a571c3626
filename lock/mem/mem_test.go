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

package mem

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/checkout"
)

func TestKeyLockMutualExclusion(t *testing.T) {
	l := NewKeyLock()
	counter, maxInside, inside := 0, 0, 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := l.Lock(context.Background(), "product:1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)
			counter++

			mu.Lock()
			inside--
			mu.Unlock()
			assert.NoError(t, l.UnLock(context.Background(), h))
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, counter)
	assert.Equal(t, 1, maxInside)
	assert.Empty(t, l.entries)
}

func TestKeyLockTimeout(t *testing.T) {
	l := NewKeyLock(WithWait(20 * time.Millisecond))
	h, err := l.Lock(context.Background(), "point:u1")
	require.NoError(t, err)

	_, err = l.Lock(context.Background(), "point:u1")
	assert.ErrorIs(t, err, checkout.ErrEntityLocked)

	// 不同 key 互不影响
	other, err := l.Lock(context.Background(), "point:u2")
	require.NoError(t, err)
	require.NoError(t, l.UnLock(context.Background(), other))

	require.NoError(t, l.UnLock(context.Background(), h))
	assert.Error(t, l.UnLock(context.Background(), h))
}

func TestKeyLockContextCanceled(t *testing.T) {
	l := NewKeyLock()
	h, err := l.Lock(context.Background(), "order:1")
	require.NoError(t, err)
	defer func() { _ = l.UnLock(context.Background(), h) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "order:1")
	assert.ErrorIs(t, err, checkout.ErrEntityLocked)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
