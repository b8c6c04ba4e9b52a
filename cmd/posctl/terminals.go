package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
	"tradepost/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/subcommands"
)

type tokenCmd struct {
	terminal string
	ttl      time.Duration
}

func (*tokenCmd) Name() string { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a bearer token for a till" }
func (*tokenCmd) Usage() string {
	return `posctl token -terminal <id> [-ttl <duration>]

  Signs a token with JWT_SECRET. The terminal id is recorded against every
  request the till makes.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.terminal, "terminal", "", "Terminal id, e.g. till-1.")
	f.DurationVar(&c.ttl, "ttl", 30*24*time.Hour, "Token lifetime.")
}

func (c *tokenCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.terminal == "" {
		fmt.Fprintln(os.Stderr, "-terminal is required")
		return subcommands.ExitUsageError
	}

	secret := configFrom(ctx).JWTSecret
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		return subcommands.ExitFailure
	}

	now := time.Now()
	token, err := middleware.IssueTerminalToken(secret, c.terminal, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Println(token)
	return subcommands.ExitSuccess
}
