/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/sqlpoller/pkg/models"
)

func TestResultRejectsEmptyRows(t *testing.T) {
	t.Parallel()

	r := NewResult()

	assert.False(t, r.AddMetric(nil))
	assert.False(t, r.AddInventory("a/b/c", map[string]string{}))
	assert.False(t, r.AddInventory("", map[string]string{"k": "v"}))
	assert.False(t, r.AddRaw(map[string]interface{}{}))

	assert.Empty(t, r.Metrics)
	assert.Empty(t, r.Inventory)
	assert.Empty(t, r.Raw)
}

func TestResultInventoryLastRowWins(t *testing.T) {
	t.Parallel()

	r := NewResult()

	assert.True(t, r.AddInventory("p/db/t", map[string]string{"k": "first"}))
	assert.True(t, r.AddInventory("p/db/t", map[string]string{"k": "second"}))

	assert.Equal(t, map[string]map[string]string{"p/db/t": {"k": "second"}}, r.Inventory)
}

func TestResultAppends(t *testing.T) {
	t.Parallel()

	r := NewResult()

	assert.True(t, r.AddMetric(models.MetricRow{models.NewNumeric("n", models.MetricTypeGauge, int64(1))}))
	assert.True(t, r.AddRaw(map[string]interface{}{"n": int64(1)}))

	assert.Len(t, r.Metrics, 1)
	assert.Len(t, r.Raw, 1)
}
