package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/patterns"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/internal/domain/services/scoring"
	grpcserver "scamshield/internal/grpc/scamshield"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "score a message locally, or against a running server with --remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		message, _ := cmd.Flags().GetString("message")
		phone, _ := cmd.Flags().GetString("phone")
		sender, _ := cmd.Flags().GetString("sender")
		business, _ := cmd.Flags().GetString("business")
		remote, _ := cmd.Flags().GetString("remote")

		in := models.ScanInput{Text: message, Phone: phone, SenderName: sender, BusinessType: business}
		if in.Text == "" {
			return fmt.Errorf("--message is required")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		var result *models.ScanResult
		if remote != "" {
			conn, err := grpc.NewClient(remote, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("failed to dial %s: %w", remote, err)
			}
			defer conn.Close()
			result, err = grpcserver.ScoreMessage(ctx, conn, in)
			if err != nil {
				return err
			}
		} else {
			log := cliLogger(cfg)
			catalog, err := patterns.Default()
			if err != nil {
				return err
			}
			// Local scoring has no registry to consult; seeded numbers still count.
			seeds := newSeedChecker(phoneintel.NewNormalizer(cfg.Scoring.DefaultRegion), cfg.Scoring.SeedBlacklist)
			analyzer := phoneintel.NewAnalyzer(seeds, phoneintel.Config{
				DefaultRegion:        cfg.Scoring.DefaultRegion,
				BlacklistWeight:      cfg.Scoring.BlacklistWeight,
				RepeatedDigitsWeight: cfg.Scoring.RepeatedDigitsWeight,
			}, log)
			result, err = scoring.NewScorer(catalog, analyzer, log).Score(ctx, in)
			if err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	scoreCmd.Flags().String("message", "", "message text to score")
	scoreCmd.Flags().String("phone", "", "sender phone number")
	scoreCmd.Flags().String("sender", "", "sender display name")
	scoreCmd.Flags().String("business", "", "recipient business type")
	scoreCmd.Flags().String("remote", "", "gRPC address of a running server, e.g. localhost:9090")
}
