/*
 * Copyright 2025 the Y Monitor Authors.
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
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/ymonitor/ymonitor/pkg/config"
	"github.com/ymonitor/ymonitor/pkg/core"
	"github.com/ymonitor/ymonitor/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/ymonitor/ymonitor.json", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logConfig := cfg.Logging
	if logConfig.Level == "" {
		logConfig.Level = "info"
	}

	rootLogger, err := logger.New(logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitor, err := core.NewMonitor(ctx, cfg, rootLogger)
	if err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	monitor.Start(ctx)

	<-ctx.Done()
	rootLogger.Info().Msg("shutdown signal received")

	monitor.Stop()

	return nil
}
