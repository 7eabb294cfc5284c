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

package config

import (
	"encoding/json"
	"strings"

	"github.com/carverauto/sqlpoller/pkg/models"
)

const redacted = "[REDACTED]"

// Redact renders cfg as JSON with credentials masked, for startup logging.
func Redact(cfg *models.AgentConfig) ([]byte, error) {
	safe := *cfg

	if safe.Password != "" {
		safe.Password = redacted
	}

	if safe.TLS.TrustStorePassword != "" {
		safe.TLS.TrustStorePassword = redacted
	}

	if nc := safe.Reporters.NATS; nc != nil && (nc.CredsFile != "" || nc.NKeySeedFile != "") {
		natsCopy := *nc
		natsCopy.CredsFile = redactPath(natsCopy.CredsFile)
		natsCopy.NKeySeedFile = redactPath(natsCopy.NKeySeedFile)
		safe.Reporters.NATS = &natsCopy
	}

	return json.Marshal(safe)
}

// redactPath keeps only the file name of a credentials path.
func redactPath(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return redacted + path[i:]
	}

	return path
}
