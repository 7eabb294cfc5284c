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

import "time"

const (
	CloudEventSpecVersion = "1.0"
	CloudEventContentType = "application/json"
)

// CloudEvent represents a CloudEvents v1.0 compliant event.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// MetricEventData is the payload of a metric event: one result row of one
// command.
type MetricEventData struct {
	Agent     string    `json:"agent"`
	EventType string    `json:"event_type"`
	EntityKey string    `json:"entity_key"`
	Metrics   MetricRow `json:"metrics"`
	Timestamp time.Time `json:"timestamp"`
}

// InventoryEventData is the payload of an inventory event.
type InventoryEventData struct {
	Agent     string            `json:"agent"`
	Path      string            `json:"path"`
	Values    map[string]string `json:"values"`
	Timestamp time.Time         `json:"timestamp"`
}
