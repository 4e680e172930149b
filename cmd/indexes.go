package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/projectcamp/ms-go-projects/app/repository"
	"github.com/projectcamp/ms-go-projects/config"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create the MongoDB indexes the data model relies on",
	Long: `Create the unique indexes on users (username, email) and project
members (project_id, user_id). Idempotent; run once per environment before
serving traffic.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()

		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		if err := repository.EnsureIndexes(ctx, client.Database(cfg.MongoDB)); err != nil {
			return fmt.Errorf("create indexes: %w", err)
		}

		fmt.Println("indexes ensured")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ensureIndexesCmd)
}
