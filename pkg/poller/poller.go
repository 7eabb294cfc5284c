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

// Package poller runs the configured SQL commands of one agent on a fixed
// interval and hands their results to a reporter.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/sqlpoller/pkg/command"
	"github.com/carverauto/sqlpoller/pkg/dialect"
	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/parser"
	"github.com/carverauto/sqlpoller/pkg/report"
)

const tracerName = "github.com/carverauto/sqlpoller/pkg/poller"

// Config is everything a Poller is built from.
type Config struct {
	Agent       *models.AgentConfig
	Definitions []models.CommandDefinition
	Reporter    report.Reporter
	// Parsers defaults to the built-in registry.
	Parsers *parser.Registry
}

// scheduledCommand pairs a command with the lock that keeps its poll cycles
// from overlapping.
type scheduledCommand struct {
	cmd *command.Command
	mu  sync.Mutex
}

// Poller polls every command of an agent once per interval.
type Poller struct {
	agent    string
	interval time.Duration
	static   models.MetricRow
	commands []*scheduledCommand
	reporter report.Reporter
	pool     *dbPool
	clock    Clock
	logger   logger.Logger
	tracer   trace.Tracer

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	startWg   sync.WaitGroup
}

// New builds a command per definition. Definitions naming an unknown
// provider are logged and skipped. Database handles are opened lazily and
// shared by commands on the same dialect and database.
func New(cfg Config, clock Clock, log logger.Logger) (*Poller, error) {
	if cfg.Agent == nil {
		return nil, errMissingAgent
	}

	if cfg.Reporter == nil {
		return nil, errMissingReport
	}

	if clock == nil {
		clock = SystemClock{}
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	p := &Poller{
		agent:    cfg.Agent.Name,
		interval: time.Duration(cfg.Agent.PollInterval),
		static:   StaticAttributes(cfg.Agent.StaticAttributes),
		reporter: cfg.Reporter,
		pool:     newDBPool(cfg.Agent),
		clock:    clock,
		logger:   log,
		tracer:   logger.GetTracer(tracerName),
		done:     make(chan struct{}),
	}

	if p.interval <= 0 {
		p.interval = time.Duration(models.DefaultPollInterval)
	}

	for i := range cfg.Definitions {
		def := cfg.Definitions[i]

		cmd, err := p.buildCommand(def, cfg.Parsers)
		if dialect.IsUnknownProvider(err) {
			p.logger.Warn().Str("command", def.Name).Str("provider", def.Provider).Msg("Skipping command with unknown provider")

			continue
		}

		if err != nil {
			_ = p.pool.Close()

			return nil, err
		}

		p.commands = append(p.commands, &scheduledCommand{cmd: cmd})
	}

	if len(p.commands) == 0 {
		return nil, ErrNoCommands
	}

	p.logger.Info().
		Int("commands", len(p.commands)).
		Int("databases", p.pool.size()).
		Msg("Poller initialized")

	return p, nil
}

func (p *Poller) buildCommand(def models.CommandDefinition, parsers *parser.Registry) (*command.Command, error) {
	d, err := dialect.Lookup(def.Provider)
	if err != nil {
		return nil, err
	}

	if def.Database == nil {
		return nil, fmt.Errorf("command %q: %w", def.Name, models.ErrMissingDatabase)
	}

	db, err := p.pool.get(d, *def.Database)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", def.Name, err)
	}

	return command.New(command.Config{
		Definition: def,
		Dialect:    d,
		DB:         db,
		Host:       p.pool.agent.Host,
		Parsers:    parsers,
		Logger:     p.logger,
	})
}

// Commands returns the commands being polled.
func (p *Poller) Commands() []*command.Command {
	out := make([]*command.Command, len(p.commands))
	for i, sc := range p.commands {
		out[i] = sc.cmd
	}

	return out
}

// Start implements the lifecycle.Service interface. It seeds every command,
// polls once and then polls on every tick until stopped.
func (p *Poller) Start(ctx context.Context) error {
	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.interval).Str("agent", p.agent).Msg("Starting poller")

	p.startWg.Add(1)
	defer p.startWg.Done()

	p.seed(ctx)
	p.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return nil
		case <-ticker.Chan():
			p.wg.Add(1)

			go func() {
				defer p.wg.Done()

				p.Poll(ctx)
			}()
		}
	}
}

// Stop implements the lifecycle.Service interface. It waits for running
// poll cycles and closes the database handles.
func (p *Poller) Stop(ctx context.Context) error {
	p.closeOnce.Do(func() {
		close(p.done)
	})

	finished := make(chan struct{})

	go func() {
		p.startWg.Wait()
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		p.logger.Warn().Err(ctx.Err()).Msg("Timed out waiting for poll cycles to finish")
	}

	return p.pool.Close()
}

// RunOnce seeds every command and runs a single polling cycle.
func (p *Poller) RunOnce(ctx context.Context) {
	p.seed(ctx)
	p.Poll(ctx)
}

func (p *Poller) seed(ctx context.Context) {
	for _, sc := range p.commands {
		sc.mu.Lock()
		sc.cmd.Seed(ctx)
		sc.mu.Unlock()
	}
}

// Poll runs one cycle of every command concurrently and waits for all of
// them. A command whose previous cycle is still running is skipped.
func (p *Poller) Poll(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, logger.CycleSpanName,
		trace.WithAttributes(
			attribute.String(logger.AttrAgent, p.agent),
			attribute.Int("sqlpoller.commands", len(p.commands)),
		))
	defer span.End()

	started := p.clock.Now()

	var wg sync.WaitGroup

	for _, sc := range p.commands {
		wg.Add(1)

		go func(sc *scheduledCommand) {
			defer wg.Done()

			p.pollCommand(ctx, sc)
		}(sc)
	}

	wg.Wait()

	p.logger.Debug().
		Int("commands", len(p.commands)).
		Dur("took", p.clock.Now().Sub(started)).
		Msg("Polling cycle completed")
}

func (p *Poller) pollCommand(ctx context.Context, sc *scheduledCommand) {
	if !sc.mu.TryLock() {
		p.logger.Warn().Str("command", sc.cmd.Name()).Msg("Previous poll still running, skipping cycle")

		return
	}
	defer sc.mu.Unlock()

	result := sc.cmd.Execute(ctx)

	var sqlErr *command.SQLError
	if errors.As(result.Err, &sqlErr) {
		p.logger.Warn().
			Str("command", sc.cmd.Name()).
			Str("error_code", sqlErr.Code).
			Str("error", sqlErr.Message).
			Msg("Query failed")
	}

	if err := PopulateMetrics(ctx, p.reporter, p.agent, sc.cmd, result.Metrics, p.static); err != nil {
		p.logger.Error().Err(err).Str("command", sc.cmd.Name()).Msg("Failed to report metrics")
	}

	if err := PopulateInventory(ctx, p.reporter, result.Inventory); err != nil {
		p.logger.Error().Err(err).Str("command", sc.cmd.Name()).Msg("Failed to report inventory")
	}
}
