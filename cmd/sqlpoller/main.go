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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/carverauto/sqlpoller/pkg/config"
	"github.com/carverauto/sqlpoller/pkg/lifecycle"
	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/poller"
	"github.com/carverauto/sqlpoller/pkg/version"
)

const (
	serviceName     = "sqlpoller"
	shutdownTimeout = 30 * time.Second
)

var errNoCommands = errors.New("no valid commands loaded")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/sqlpoller/sqlpoller.json", "Path to agent config file")
	once := flag.Bool("once", false, "Run every command once and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())

		return nil
	}

	ctx := context.Background()

	agent, err := config.NewConfig(nil).LoadAgent(ctx, *configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logConfig := agent.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	res := logger.Resource{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersion(),
		Agent:          agent.Name,
		Host:           agent.Host,
	}

	agentLogger, err := lifecycle.CreateComponentLogger(ctx, serviceName, logConfig, res)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			log.Printf("Failed to shutdown logger: %v", err)
		}
	}()

	if redacted, err := config.Redact(agent); err == nil {
		agentLogger.Debug().RawJSON("config", redacted).Msg("Loaded agent configuration")
	}

	defs, err := config.LoadCommands(agent.InputFile, agentLogger)
	if len(defs) == 0 {
		if err != nil {
			return fmt.Errorf("%w: %w", errNoCommands, err)
		}

		return fmt.Errorf("%w from %s", errNoCommands, agent.InputFile)
	}

	if err != nil {
		agentLogger.Warn().Err(err).Int("loaded", len(defs)).Msg("Some command definitions were skipped")
	}

	for i := range defs {
		res.Providers = append(res.Providers, defs[i].Provider)
	}

	tp, ctx, rootSpan, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		Resource: res,
		Logger:   agentLogger,
		OTel:     &logConfig.OTel,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	defer func() {
		rootSpan.End()

		if err := tp.Shutdown(context.Background()); err != nil {
			agentLogger.Error().Err(err).Msg("Failed to shutdown tracer provider")
		}
	}()

	reporter, err := buildReporter(ctx, agent, res, agentLogger)
	if err != nil {
		return err
	}

	defer func() {
		if err := reporter.Close(context.Background()); err != nil {
			agentLogger.Error().Err(err).Msg("Failed to close reporter")
		}
	}()

	p, err := poller.New(poller.Config{
		Agent:       agent,
		Definitions: defs,
		Reporter:    reporter,
	}, nil, agentLogger)
	if err != nil {
		return fmt.Errorf("failed to create poller: %w", err)
	}

	if *once {
		p.RunOnce(ctx)

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return p.Stop(stopCtx)
	}

	return lifecycle.RunService(ctx, &lifecycle.ServerOptions{
		ServiceName:     serviceName,
		Service:         p,
		Logger:          agentLogger,
		ShutdownTimeout: shutdownTimeout,
	})
}
