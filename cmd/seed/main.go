package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/config"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/database"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/testdata"
	"github.com/spf13/cobra"
)

var (
	businessID string
	ownerID    string
	count      int
	months     int
	category   string
	seed       int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a business with fake sustainability metric samples",
		RunE:  runSeed,
	}

	rootCmd.Flags().StringVarP(&businessID, "business", "b", "demo-business", "Business ID to seed")
	rootCmd.Flags().StringVarP(&ownerID, "owner", "o", "", "User ID granted membership of the business")
	rootCmd.Flags().IntVarP(&count, "count", "n", 200, "Number of samples to insert")
	rootCmd.Flags().IntVar(&months, "months", 3, "Spread samples over this many past months")
	rootCmd.Flags().StringVar(&category, "category", "", "Restrict samples to one category (environmental, social, governance)")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed, 0 for a random run")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.DatabaseURL, database.DefaultPoolConfig(), &database.SSLConfig{Mode: cfg.DBSSLMode})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	metricsRepo := database.NewMetricRepository(db)
	businessRepo := database.NewBusinessRepository(db)

	business := testdata.Business(businessID)
	if err := businessRepo.UpsertBusiness(ctx, *business, ownerID); err != nil {
		return err
	}
	log.Printf("🏢 Business %s (%s) ready", business.ID, business.Name)

	for _, def := range testdata.Catalog {
		if err := metricsRepo.UpsertDefinition(ctx, def); err != nil {
			return err
		}
	}

	until := time.Now().UTC()
	samples := testdata.GenerateSamples(testdata.MetricGeneratorConfig{
		BusinessID: businessID,
		Count:      count,
		Category:   category,
		Since:      until.AddDate(0, -months, 0),
		Until:      until,
		Seed:       seed,
	})

	defined := make(map[string]bool, len(testdata.Catalog))
	for _, def := range testdata.Catalog {
		defined[def.ID] = true
	}

	for i, s := range samples {
		if !defined[s.MetricID] {
			if err := metricsRepo.UpsertDefinition(ctx, s.Definition); err != nil {
				return err
			}
			defined[s.MetricID] = true
		}
		if err := metricsRepo.InsertSample(ctx, s); err != nil {
			return err
		}
		if (i+1)%100 == 0 {
			log.Printf("📊 Inserted %d/%d samples", i+1, len(samples))
		}
	}

	log.Printf("✅ Seeded %d samples for %s over %d months", len(samples), businessID, months)
	logCategories(samples)
	return nil
}

func logCategories(samples []models.MetricSample) {
	byCategory := make(map[string]int)
	for _, s := range samples {
		byCategory[s.Definition.Category]++
	}
	for cat, n := range byCategory {
		log.Printf("   %s: %d", cat, n)
	}
}
