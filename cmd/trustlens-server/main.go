// @title TrustLens API
// @version 1.0
// @description Heuristic media authenticity and job-fraud scoring.
// @BasePath /
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"trustlens-server-go/internal/bootstrap"
	platformerrors "trustlens-server-go/internal/platform/errors"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the yaml config (default: $TRUSTLENS_CONFIG, .config.yaml or config.yaml)")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	fmt.Printf("[%s] [INFO] [Bootstrap] starting trustlens-server %s\n", time.Now().Format("2006-01-02 15:04:05.000"), version)
	if err := bootstrap.Run(context.Background(), bootstrap.Options{ConfigPath: *configPath, Version: version}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "trustlens-server failed: %v\n", err)
		os.Exit(platformerrors.ExitCode(err))
	}
}
