package main

import (
	"fmt"
	"runtime"
)

const (
	appName        = "upbit-backtest"
	projectVersion = "0.3.0"
)

// set with -ldflags "-X main.buildCommit=... -X main.buildDate=..."
var (
	buildCommit = "dev"
	buildDate   = "unknown"
)

func printVersion() {
	fmt.Printf("%s v%s\n", appName, projectVersion)
	fmt.Printf("Build: %s (%s)\n", buildCommit, buildDate)
	fmt.Printf("Go: %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
