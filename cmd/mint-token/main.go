// Mints an access token for local API testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/procurecart/procurecart-backend/pkg/auth"
	"github.com/procurecart/procurecart-backend/pkg/config"
	"github.com/procurecart/procurecart-backend/pkg/enums"
	"github.com/procurecart/procurecart-backend/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "mint-token"})

	_ = godotenv.Load()

	email := flag.String("email", "", "actor email")
	orgID := flag.String("org-id", "", "organization id")
	costCenterID := flag.String("cost-center-id", "", "cost center id")
	role := flag.String("role", string(enums.RoleMember), "actor role: member|approver")
	flag.Parse()

	if *email == "" || *orgID == "" {
		fmt.Fprintln(os.Stderr, "missing -email or -org-id")
		os.Exit(1)
	}

	actorRole, err := enums.ParseActorRole(*role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid role: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "resource not working: config", err)
		os.Exit(1)
	}

	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		Email:        *email,
		OrgID:        *orgID,
		CostCenterID: *costCenterID,
		Role:         actorRole,
	})
	if err != nil {
		logg.Error(ctx, "mint token", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
