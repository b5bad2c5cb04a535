// cmd/token mints a bearer token signed with JWT_SECRET, for local use and
// for operators who hand tokens to organisers.
package main

import (
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Shivanand-hulikatti/event-booking/internal/auth"
	"github.com/Shivanand-hulikatti/event-booking/internal/config"
)

func main() {
	subject := flag.StringP("subject", "s", "", "caller identity recorded as event creator (required)")
	name := flag.StringP("name", "n", "", "optional display name")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "token: --subject is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.NewTokens(cfg.JWTSecret, nil).Issue(*subject, *name, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
