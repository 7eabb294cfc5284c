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
	"github.com/carverauto/sqlpoller/pkg/models"
)

// SQLError is a database failure that ended a poll cycle, classified by the
// command's dialect.
type SQLError struct {
	// Code is the vendor error code, or "0" when the driver supplies none.
	Code    string
	Message string
	Err     error
}

func (e *SQLError) Error() string {
	return "sql error " + e.Code + ": " + e.Message
}

func (e *SQLError) Unwrap() error {
	return e.Err
}

// Result is everything one poll cycle produced.
type Result struct {
	Metrics   []models.MetricRow
	Inventory map[string]map[string]string
	Raw       []map[string]interface{}
	// Err is the *SQLError that ended the cycle, if any.
	Err error
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{Inventory: make(map[string]map[string]string)}
}

// AddMetric appends a non-empty metric row.
func (r *Result) AddMetric(row models.MetricRow) bool {
	if len(row) == 0 {
		return false
	}

	r.Metrics = append(r.Metrics, row)

	return true
}

// AddInventory stores a non-empty mapping under path, replacing any earlier
// mapping for the same path.
func (r *Result) AddInventory(path string, row map[string]string) bool {
	if path == "" || len(row) == 0 {
		return false
	}

	r.Inventory[path] = row

	return true
}

// AddRaw appends a non-empty raw row.
func (r *Result) AddRaw(row map[string]interface{}) bool {
	if len(row) == 0 {
		return false
	}

	r.Raw = append(r.Raw, row)

	return true
}
