// Command token mints a gateway bearer token for an operator account.
//
//	go run ./cmd/token -user frontdesk01 -role frontdesk
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"clinic-system/config"
	"clinic-system/internal/authz"
	"clinic-system/internal/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	userID := flag.Int64("id", 1, "user id")
	username := flag.String("user", "", "username recorded as submitted_by on day closes")
	role := flag.String("role", authz.RoleFrontDesk, "one of admin, frontdesk, billing")
	ttl := flag.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	flag.Parse()

	if *username == "" {
		flag.Usage()
		os.Exit(2)
	}
	if _, ok := authz.DefaultPolicy()[*role]; !ok {
		log.Fatalf("unknown role %q", *role)
	}

	token, exp, err := utils.GenerateToken([]byte(cfg.Auth.JWTSecret), *userID, *username, *role, *ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
}
