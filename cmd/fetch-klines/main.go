// Command fetch-klines downloads Bybit klines into the CSV layout the
// backtester reads: {outdir}/{SYMBOL}/{timeframe}/candles.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/config"
	"github.com/ducminhle1904/upbit-backtester/internal/exchange/bybit"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/pkg/data"
)

func main() {
	var (
		symbols    = flag.String("symbols", "BTCUSDT", "Comma-separated symbols")
		timeframes = flag.String("timeframes", "1h", "Comma-separated timeframes (1m, 5m, 15m, 1h, 4h, 1d, 1w, ...)")
		outdir     = flag.String("outdir", "data", "Data root to write CSV files under")
		startDate  = flag.String("start", "", "Start date (YYYY-MM-DD), default 30 days ago")
		endDate    = flag.String("end", "", "End date (YYYY-MM-DD), default now")
		envFile    = flag.String("env", "", "Environment file (default .env when present)")
		testnet    = flag.Bool("testnet", false, "Use the Bybit testnet")
	)
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ failed to load env file: %v\n", err)
		os.Exit(1)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)
	var err error
	if *startDate != "" {
		if start, err = config.ParseDate(*startDate); err != nil {
			fmt.Fprintf(os.Stderr, "❌ -start: %v\n", err)
			os.Exit(2)
		}
	}
	if *endDate != "" {
		if end, err = config.ParseDate(*endDate); err != nil {
			fmt.Fprintf(os.Stderr, "❌ -end: %v\n", err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Default()
	client := bybit.NewClient(bybit.Config{
		APIKey:    os.Getenv("BYBIT_API_KEY"),
		APISecret: os.Getenv("BYBIT_API_SECRET"),
		Testnet:   *testnet,
	})
	storage := bybit.NewKlineStorage(client, log)
	log.Info("downloading from Bybit %s: %s .. %s", client.GetEnvironment(),
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	failed := 0
	for _, symbol := range splitList(*symbols) {
		for _, tf := range splitList(*timeframes) {
			bars, err := storage.LoadMarketData(ctx, symbol, tf, start, end)
			if err != nil {
				log.Error("%s %s: %v", symbol, tf, err)
				failed++
				continue
			}
			path := data.DataFilePath(*outdir, strings.ToUpper(symbol), tf)
			if err := data.WriteCSV(path, bars); err != nil {
				log.Error("%s %s: %v", symbol, tf, err)
				failed++
				continue
			}
			log.Info("%s %s: %d bars written to %s", symbol, tf, len(bars), path)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
