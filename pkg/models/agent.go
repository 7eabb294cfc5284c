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
	"errors"
	"strings"
	"time"

	"github.com/carverauto/sqlpoller/pkg/logger"
)

const (
	DefaultPollInterval   = Duration(60 * time.Second)
	DefaultConnectTimeout = Duration(30 * time.Second)
	DefaultNATSStream     = "SQLPOLLER"
	DefaultSubjectPrefix  = "sqlpoller"
)

var (
	ErrMissingAgentName = errors.New("agent name is required")
	ErrMissingHost      = errors.New("host is required")
	ErrMissingInputFile = errors.New("inputfile is required")
	ErrMissingNATSURL   = errors.New("nats reporter requires url")
	ErrMissingOTLP      = errors.New("otel reporter requires endpoint")
	ErrNATSAuthConflict = errors.New("nats reporter accepts creds_file or nkey_seed_file, not both")
)

// AgentConfig is the top-level configuration of one polling agent. The
// connection settings are shared by every command read from InputFile.
type AgentConfig struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	// Password may be an ENC(...) value.
	Password         string            `json:"password,omitempty"` //nolint:gosec // decrypted at load
	TLS              TLSOptions        `json:"tls"`
	InputFile        string            `json:"inputfile"`
	PollInterval     Duration          `json:"poll_interval,omitempty"`
	ConnectTimeout   Duration          `json:"connect_timeout,omitempty"`
	StaticAttributes map[string]string `json:"static_attributes,omitempty"`
	PasswordFile     string            `json:"password_file,omitempty"`
	Logging          *logger.Config    `json:"logging,omitempty"`
	Reporters        ReportersConfig   `json:"reporters"`
}

// ReportersConfig selects where poll results are delivered. A nil entry
// disables that reporter.
type ReportersConfig struct {
	Log  *LogReporterConfig  `json:"log,omitempty"`
	NATS *NATSReporterConfig `json:"nats,omitempty"`
	OTel *OTelReporterConfig `json:"otel,omitempty"`
}

type LogReporterConfig struct {
	Enabled bool `json:"enabled"`
}

type NATSReporterConfig struct {
	URL           string `json:"url"`
	Stream        string `json:"stream,omitempty"`
	SubjectPrefix string `json:"subject_prefix,omitempty"`
	Domain        string `json:"domain,omitempty"`
	CredsFile     string `json:"creds_file,omitempty"`
	// NKeySeedFile holds a user nkey seed. It cannot be combined with CredsFile.
	NKeySeedFile string `json:"nkey_seed_file,omitempty"`
	// TLS enables mutual TLS towards the NATS server.
	TLS *NATSTLSConfig `json:"tls,omitempty"`
}

type NATSTLSConfig struct {
	CAFile     string `json:"ca_file"`
	CertFile   string `json:"cert_file"`
	KeyFile    string `json:"key_file"`
	ServerName string `json:"server_name,omitempty"`
}

type OTelReporterConfig struct {
	Enabled        bool              `json:"enabled"`
	Endpoint       string            `json:"endpoint"`
	Insecure       bool              `json:"insecure"`
	Headers        map[string]string `json:"headers,omitempty"`
	ExportInterval Duration          `json:"export_interval,omitempty"`
}

// Validate fills defaults and reports every missing required field.
func (c *AgentConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, ErrMissingAgentName)
	}

	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, ErrMissingHost)
	}

	if strings.TrimSpace(c.InputFile) == "" {
		errs = append(errs, ErrMissingInputFile)
	}

	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}

	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}

	if nc := c.Reporters.NATS; nc != nil {
		if nc.URL == "" {
			errs = append(errs, ErrMissingNATSURL)
		}

		if nc.CredsFile != "" && nc.NKeySeedFile != "" {
			errs = append(errs, ErrNATSAuthConflict)
		}

		if nc.Stream == "" {
			nc.Stream = DefaultNATSStream
		}

		if nc.SubjectPrefix == "" {
			nc.SubjectPrefix = DefaultSubjectPrefix
		}
	}

	if oc := c.Reporters.OTel; oc != nil && oc.Enabled && oc.Endpoint == "" {
		errs = append(errs, ErrMissingOTLP)
	}

	if c.Reporters.NATS == nil && (c.Reporters.OTel == nil || !c.Reporters.OTel.Enabled) {
		if c.Reporters.Log == nil {
			c.Reporters.Log = &LogReporterConfig{}
		}

		c.Reporters.Log.Enabled = true
	}

	return errors.Join(errs...)
}

// Connection returns the connection settings for database.
func (c *AgentConfig) Connection(database string) ConnectionConfig {
	return ConnectionConfig{
		Hostname:       c.Host,
		Port:           c.Port,
		Database:       database,
		Username:       c.Username,
		Password:       c.Password,
		TLS:            c.TLS,
		ConnectTimeout: c.ConnectTimeout,
	}
}
