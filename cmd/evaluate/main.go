package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/carematch/internal/application/services"
	"github.com/zatekoja/carematch/internal/evaluation"
	"github.com/zatekoja/carematch/internal/infrastructure/observability"
)

func main() {
	casesPath := flag.String("cases", "testdata/golden_cases.json", "path to the golden cases JSON file")
	flag.Parse()

	observability.InitLogger("carematch-evaluate", os.Getenv("APP_ENV"))

	cases, err := evaluation.LoadGoldenCases(*casesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load golden cases")
	}
	if err := evaluation.ValidateGoldenCases(cases); err != nil {
		log.Fatal().Err(err).Msg("golden case set is invalid")
	}

	runner := evaluation.NewRunner(services.NewMatchScoringService())
	summary := runner.Run(cases)

	log.Info().
		Int("total", summary.TotalCases).
		Int("passed", summary.PassedCases).
		Float64("pass_rate", summary.PassRate()).
		Float64("tag_recall", summary.TagRecall).
		Msg("scoring evaluation complete")

	for difficulty, ds := range summary.ByDifficulty {
		log.Info().
			Str("difficulty", difficulty).
			Int("count", ds.Count).
			Int("passed", ds.Passed).
			Msg("difficulty breakdown")
	}

	for _, failure := range summary.Failures {
		for _, deviation := range failure.Deviations {
			log.Warn().
				Str("case", failure.CaseID).
				Str("deviation", deviation).
				Msg("golden case failed")
		}
	}

	if summary.PassedCases != summary.TotalCases {
		fmt.Fprintln(os.Stderr, "scoring evaluation failed")
		os.Exit(1)
	}
}
