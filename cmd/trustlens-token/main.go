// Command trustlens-token mints bearer tokens for a server running with
// server.auth.enabled.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	domainauth "trustlens-server-go/internal/domain/auth"
	platformconfig "trustlens-server-go/internal/platform/config"
)

func main() {
	configPath := flag.String("config", "", "path to the yaml config")
	subject := flag.String("subject", "cli", "token subject (client name)")
	ttl := flag.Duration("ttl", 0, "token lifetime (default: server.auth.token_ttl)")
	flag.Parse()

	if err := run(*configPath, *subject, *ttl); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "trustlens-token: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, subject string, ttl time.Duration) error {
	result, err := platformconfig.NewLoader().WithPath(configPath).Load()
	if err != nil {
		return err
	}
	cfg := result.Config
	if cfg.Server.Token == "" {
		return fmt.Errorf("server.token is empty in %s", result.Path)
	}
	if ttl <= 0 {
		ttl = cfg.Server.Auth.TokenTTL
	}

	token, err := domainauth.NewAuthToken(cfg.Server.Token).WithTTL(ttl).GenerateToken(subject)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
