package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"shopify-auth-layer/internal/application"
	"shopify-auth-layer/internal/config"
	"shopify-auth-layer/internal/infrastructure/encryption"
	"shopify-auth-layer/internal/infrastructure/metrics"
	"shopify-auth-layer/internal/infrastructure/password"
	"shopify-auth-layer/internal/infrastructure/repository"
	shopifyinfra "shopify-auth-layer/internal/infrastructure/shopify"
	"shopify-auth-layer/internal/ports"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cmd := &cli.Command{
		Name:  "createsuperuser",
		Usage: "create a shop user with a local password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Usage: "myshopify domain of the shop", Required: true},
			&cli.StringFlag{Name: "password", Usage: "local password", Sources: cli.EnvVars("SUPERUSER_PASSWORD"), Required: true},
			&cli.StringFlag{Name: "email", Usage: "contact email"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd, logger)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Fatal().Err(err).Msg("createsuperuser failed")
	}
}

func run(ctx context.Context, cmd *cli.Command, logger zerolog.Logger) error {
	cfg, _, err := config.Load()
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer client.Disconnect(context.Background())

	var encryptionService ports.EncryptionService = encryption.NoopService{}
	if cfg.EncryptionKey != "" {
		if encryptionService, err = encryption.NewService(cfg.EncryptionKey); err != nil {
			return err
		}
	}

	clock := clockwork.NewRealClock()
	repo := repository.NewMongoShopUserRepository(client.Database(cfg.MongoDatabase), shopifyinfra.NewTokenManager(encryptionService, logger), clock)
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		return err
	}

	manager := application.NewShopUserManager(repo, password.NewBcryptHasher(cfg.BcryptCost), clock, metrics.Nop{}, logger)

	var email *string
	if e := cmd.String("email"); e != "" {
		email = &e
	}

	user, err := manager.CreateSuperuser(ctx, cmd.String("domain"), cmd.String("password"), email)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "created %s (%s)\n", user, user.ID)
	return nil
}
