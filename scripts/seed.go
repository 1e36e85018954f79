// Seeds a development database with a family, a patient with care
// preferences, and a handful of published agencies so a matching run has
// something to chew on. Runs in a single transaction so a failed seed
// leaves the database untouched. Destructive when RESET_DB=true.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/carematch/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/carematch/internal/infrastructure/observability"
	"github.com/zatekoja/carematch/pkg/config"
)

type agencySeed struct {
	name    string
	city    string
	state   string
	ratings map[string]float64
	rates   map[string][2]float64
}

func main() {
	observability.InitLogger("carematch-seed", "development")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	ctx := context.Background()

	tx, err := pgClient.BeginTx(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to begin transaction")
	}
	db := goqu.NewTx("postgres", tx)

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := tx.ExecContext(ctx, `
			TRUNCATE TABLE
				matches,
				agency_service_rates,
				agency_service_ratings,
				agency_service_areas,
				agencies,
				care_preferences,
				patients
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to truncate tables")
		}
	}

	now := time.Now().UTC()

	patientID := uuid.New().String()
	familyUserID := uuid.New().String()

	if _, err := db.Insert("patients").Rows(goqu.Record{
		"id":             patientID,
		"family_user_id": familyUserID,
		"first_name":     "Ada",
		"last_name":      "Lee",
		"city":           "Los Angeles",
		"state":          "CA",
		"created_at":     now,
		"updated_at":     now,
	}).Executor().ExecContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed patient")
	}

	selectedServices, _ := json.Marshal([]map[string]string{
		{"service_id": "medication-management", "level": "full"},
		{"service_id": "mobility-support", "level": "substantial"},
		{"service_id": "companionship", "level": "minimal"},
	})
	budget, _ := json.Marshal(map[string]float64{"amount": 2000})

	if _, err := db.Insert("care_preferences").Rows(goqu.Record{
		"patient_id":         patientID,
		"budget_preferences": budget,
		"selected_services":  selectedServices,
		"created_at":         now,
		"updated_at":         now,
	}).Executor().ExecContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed care preferences")
	}

	agencies := []agencySeed{
		{
			name:  "Sunrise Home Care",
			city:  "Los Angeles",
			state: "CA",
			ratings: map[string]float64{
				"medication-management": 5,
				"mobility-assistance":   4.5,
				"companionship":         4,
			},
			rates: map[string][2]float64{
				"medication-management": {1800, 2200},
				"mobility-assistance":   {1500, 1900},
			},
		},
		{
			name:  "Golden Years Support",
			city:  "Los Angeles",
			state: "CA",
			ratings: map[string]float64{
				"medication-management": 4,
				"companionship":         5,
			},
			rates: map[string][2]float64{
				"medication-management": {2100, 2500},
			},
		},
		{
			name:  "Bay Area Caregivers",
			city:  "San Francisco",
			state: "CA",
			ratings: map[string]float64{
				"medication-management": 5,
			},
			rates: map[string][2]float64{
				"medication-management": {2400, 2800},
			},
		},
	}

	for _, seed := range agencies {
		agencyID := uuid.New().String()

		if _, err := db.Insert("agencies").Rows(goqu.Record{
			"id":            agencyID,
			"business_name": seed.name,
			"status":        "published",
			"created_at":    now,
			"updated_at":    now,
		}).Executor().ExecContext(ctx); err != nil {
			log.Fatal().Err(err).Str("agency", seed.name).Msg("failed to seed agency")
		}

		if _, err := db.Insert("agency_service_areas").Rows(goqu.Record{
			"agency_id": agencyID,
			"city":      seed.city,
			"state":     seed.state,
		}).Executor().ExecContext(ctx); err != nil {
			log.Fatal().Err(err).Str("agency", seed.name).Msg("failed to seed service area")
		}

		for slug, stars := range seed.ratings {
			if _, err := db.Insert("agency_service_ratings").Rows(goqu.Record{
				"agency_id":    agencyID,
				"service_slug": slug,
				"stars":        stars,
			}).Executor().ExecContext(ctx); err != nil {
				log.Fatal().Err(err).Str("agency", seed.name).Msg("failed to seed rating")
			}
		}

		for slug, minMax := range seed.rates {
			if _, err := db.Insert("agency_service_rates").Rows(goqu.Record{
				"agency_id":      agencyID,
				"service_slug":   slug,
				"min_amount":     minMax[0],
				"max_amount":     minMax[1],
				"pricing_format": "monthly",
			}).Executor().ExecContext(ctx); err != nil {
				log.Fatal().Err(err).Str("agency", seed.name).Msg("failed to seed rate")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatal().Err(err).Msg("failed to commit seed transaction")
	}

	log.Info().
		Str("patient_id", patientID).
		Str("family_user_id", familyUserID).
		Int("agencies", len(agencies)).
		Msg("seeding complete")
}
