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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingName     = errors.New("command name is required")
	ErrMissingProvider = errors.New("provider is required")
	ErrMissingDatabase = errors.New("database is required")
	ErrMissingQuery    = errors.New("query is required")
	ErrMissingType     = errors.New("type is required")
	ErrInvalidType     = errors.New("type must be metric, inventory or raw")
)

// QueryType selects which result container a command's rows are routed to.
type QueryType string

const (
	QueryTypeMetric    QueryType = "metric"
	QueryTypeInventory QueryType = "inventory"
	QueryTypeRaw       QueryType = "raw"
)

// ParseQueryType normalizes a configured query type.
func ParseQueryType(s string) (QueryType, bool) {
	switch QueryType(strings.ToLower(strings.TrimSpace(s))) {
	case QueryTypeMetric:
		return QueryTypeMetric, true
	case QueryTypeInventory:
		return QueryTypeInventory, true
	case QueryTypeRaw:
		return QueryTypeRaw, true
	default:
		return "", false
	}
}

const (
	DefaultPrefix            = "_"
	DefaultUniqueHistorySize = 1000
	DefaultRowBufferSize     = 5120
)

// QueryOptions configures incremental (tailing) polling.
type QueryOptions struct {
	InitialQuery          string   `json:"initialQuery,omitempty"`
	QueryParameterColumns []string `json:"queryParameterColumns,omitempty"`
}

// CommandDefinition is one entry of the command definition file.
type CommandDefinition struct {
	Name              string          `json:"name"`
	Provider          string          `json:"provider"`
	Database          *string         `json:"database"`
	Query             *string         `json:"query"`
	Type              *string         `json:"type"`
	Prefix            *string         `json:"prefix,omitempty"`
	MetricType        string          `json:"metricType,omitempty"`
	Parser            string          `json:"parser,omitempty"`
	ParserOptions     json.RawMessage `json:"parserOptions,omitempty"`
	QueryOptions      *QueryOptions   `json:"queryOptions,omitempty"`
	Deduplicate       bool            `json:"deduplicate,omitempty"`
	UniqueHistorySize int             `json:"uniqueHistorySize,omitempty"`
	RowBufferSize     int             `json:"rowBufferSize,omitempty"`
	EventType         string          `json:"eventType,omitempty"`
}

// Validate reports every missing or malformed required field.
func (d *CommandDefinition) Validate() error {
	var errs []error

	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, ErrMissingName)
	}

	if strings.TrimSpace(d.Provider) == "" {
		errs = append(errs, ErrMissingProvider)
	}

	if d.Database == nil {
		errs = append(errs, ErrMissingDatabase)
	}

	if d.Query == nil || strings.TrimSpace(*d.Query) == "" {
		errs = append(errs, ErrMissingQuery)
	}

	if d.Type == nil {
		errs = append(errs, ErrMissingType)
	} else if _, ok := ParseQueryType(*d.Type); !ok {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidType, *d.Type))
	}

	return errors.Join(errs...)
}

// TLSOptions are the optional transport security settings shared by every
// command of an agent.
type TLSOptions struct {
	Enabled            bool   `json:"enabled"`
	Encrypt            bool   `json:"encrypt"`
	TrustServerCert    bool   `json:"trust_server_cert"`
	HostnameInCert     string `json:"hostname_in_cert,omitempty"`
	TrustStoreLocation string `json:"trust_store_location,omitempty"`
	TrustStorePassword string `json:"trust_store_password,omitempty"` //nolint:gosec // decrypted at load
}

// ConnectionConfig carries everything a dialect needs to open a connection.
type ConnectionConfig struct {
	Hostname       string     `json:"host"`
	Port           int        `json:"port,omitempty"`
	Database       string     `json:"database"`
	Username       string     `json:"username"`
	Password       string     `json:"password"` //nolint:gosec // decrypted at load
	TLS            TLSOptions `json:"tls"`
	ConnectTimeout Duration   `json:"connect_timeout,omitempty"`
}
