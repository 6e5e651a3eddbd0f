package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/hearthchat/chat-service/config"
	"github.com/hearthchat/chat-service/internal/domain"
	"github.com/hearthchat/chat-service/internal/pg"
	"github.com/hearthchat/chat-service/internal/postgres"
	"github.com/hearthchat/chat-service/internal/security"

	"github.com/google/uuid"
)

// Seeds one user per name and prints the generated secret keys. The keys
// are shown exactly once; they are the only way to sign in.
func main() {
	names := flag.String("names", "", "comma-separated display names to create")
	flag.Parse()

	if strings.TrimSpace(*names) == "" {
		log.Fatal("usage: seed -names \"Alice,Bob\"")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, pg.Config{DSN: cfg.Postgres.DSN, ApplicationName: "chat-seed"})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool)

	for _, name := range strings.Split(*names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		secret, err := security.RandomStringURLSafe(18)
		if err != nil {
			log.Fatalf("generate secret: %v", err)
		}
		// keys must fit the lookup contract
		if len(secret) > 32 {
			secret = secret[:32]
		}

		u := &domain.User{
			ID:          uuid.NewString(),
			DisplayName: name,
			SecretKey:   secret,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create %q: %v", name, err)
		}
		fmt.Printf("%s\t%s\n", name, secret)
	}
}
