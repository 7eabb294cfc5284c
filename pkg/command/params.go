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
	"strings"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
)

// ParamState carries positional query parameters from one poll to the next.
// Values are seeded once from the first row of an initial query and then
// refreshed from the last row of every poll.
type ParamState struct {
	initialQuery string
	columns      []string
	values       []interface{}
	set          []bool
	consumed     bool
}

// NewParamState builds the state for opts, which may be nil.
func NewParamState(opts *models.QueryOptions) *ParamState {
	p := &ParamState{}
	if opts == nil {
		return p
	}

	p.initialQuery = strings.TrimSpace(opts.InitialQuery)

	for _, c := range opts.QueryParameterColumns {
		p.columns = append(p.columns, strings.ToLower(strings.TrimSpace(c)))
	}

	p.values = make([]interface{}, len(p.columns))
	p.set = make([]bool, len(p.columns))

	return p
}

// Tracked reports whether any parameter columns are configured.
func (p *ParamState) Tracked() bool { return len(p.columns) > 0 }

// InitialQuery returns the configured seed query.
func (p *ParamState) InitialQuery() string { return p.initialQuery }

// NeedsSeed reports whether the initial query has yet to run.
func (p *ParamState) NeedsSeed() bool { return p.initialQuery != "" && !p.consumed }

// MarkConsumed records that the initial query ran, successfully or not.
func (p *ParamState) MarkConsumed() { p.consumed = true }

// Args returns the values to bind, in configured order. Columns that were
// never found are left out.
func (p *ParamState) Args() []interface{} {
	args := make([]interface{}, 0, len(p.values))

	for i, v := range p.values {
		if p.set[i] {
			args = append(args, v)
		}
	}

	return args
}

// Value returns the stored value for column.
func (p *ParamState) Value(column string) (interface{}, bool) {
	column = strings.ToLower(strings.TrimSpace(column))

	for i, c := range p.columns {
		if c == column && p.set[i] {
			return p.values[i], true
		}
	}

	return nil, false
}

// Update replaces every stored value with the matching entry of row, whose
// keys are lower-case column names. Columns missing from row become unset.
func (p *ParamState) Update(row map[string]interface{}, log logger.Logger) {
	if row == nil {
		return
	}

	for i, c := range p.columns {
		v, ok := row[c]
		if !ok {
			p.values[i], p.set[i] = nil, false

			log.Error().Str("parameter", c).Msg("Could not find query parameter in result set")

			continue
		}

		p.values[i], p.set[i] = v, true

		log.Info().Str("parameter", c).Interface("value", v).Msg("Updating query parameter value")
	}
}
