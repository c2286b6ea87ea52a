/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
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
	"os"
	"os/signal"
	"strings"
	"syscall"

	"coincore-go/internal/common"
	"coincore-go/internal/config"
	"coincore-go/internal/listener"

	"go.uber.org/zap"
)

func main() {
	assetsFlag := flag.String("assets", "", "Comma-separated asset tickers to watch (default: all custodial assets)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting custodial deposit listener")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	assets := watchedAssets(*assetsFlag, services)
	if len(assets) == 0 {
		zap.L().Fatal("No custodial assets to watch")
	}

	l := listener.NewDepositListener(listener.Config{
		PrimeService:    services.Prime,
		Ledger:          services.Ledger,
		Assets:          assets,
		LookbackWindow:  cfg.Listener.LookbackWindow,
		PollingInterval: cfg.Listener.PollingInterval,
		CleanupInterval: cfg.Listener.CleanupInterval,
	})

	if err := l.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start listener", zap.Error(err))
	}

	zap.L().Info("Listener running", zap.Strings("assets", assets))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received")
	l.Stop()
}

// watchedAssets resolves the ticker list: an explicit --assets flag wins,
// otherwise every custodial asset in the catalogue is watched.
func watchedAssets(flagValue string, services *common.Services) []string {
	if flagValue != "" {
		var out []string
		for _, t := range strings.Split(flagValue, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, strings.ToUpper(t))
			}
		}
		return out
	}

	var out []string
	for _, asset := range services.Core.Assets() {
		if asset.Asset().IsCustodial() {
			out = append(out, asset.Ticker())
		}
	}
	return out
}
