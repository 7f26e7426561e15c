// Command token-generator mints a development bearer token for a given
// user ID so the API can be exercised locally without the identity
// service. Never use it against a production secret.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/config"
	"github.com/bacready/bacready-api/internal/service/auth"
)

func main() {
	userIDFlag := flag.String("user", "", "user UUID to mint a token for (default: random)")
	flag.Parse()

	secret := os.Getenv("BACREADY_AUTH_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "BACREADY_AUTH_JWT_SECRET must be set")
		os.Exit(1)
	}

	userID := uuid.New()
	if *userIDFlag != "" {
		parsed, err := uuid.Parse(*userIDFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid user ID %q: %v\n", *userIDFlag, err)
			os.Exit(1)
		}
		userID = parsed
	}

	tokenService, err := auth.NewTokenService(config.AuthConfig{
		JWTSecret:          secret,
		TokenLifetimeHours: 24,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create token service: %v\n", err)
		os.Exit(1)
	}

	token, err := tokenService.GenerateToken(context.Background(), userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User:  %s\nToken: %s\n", userID, token)
}
