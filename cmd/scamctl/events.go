package main

import (
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/internal/streaming"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "tail community events from NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := cliLogger(cfg)
		types, _ := cmd.Flags().GetStringSlice("type")
		phone, _ := cmd.Flags().GetString("phone")
		since, _ := cmd.Flags().GetDuration("since")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		publisher, err := streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			return err
		}
		defer publisher.Close()

		sub := (&streaming.Subscription{Phone: phone}).Normalized(phoneintel.NewNormalizer(cfg.Scoring.DefaultRegion))
		for _, t := range types {
			sub.Types = append(sub.Types, models.EventType(t))
		}

		var replay []streaming.ReplayFrom
		if since > 0 {
			replay = append(replay, streaming.ReplayFrom(time.Now().Add(-since)))
		}

		ch, err := publisher.Subscribe(ctx, sub, replay...)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for event := range ch {
			if err := enc.Encode(event); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringSlice("type", nil, "event types to show, e.g. report.verified,blacklist.updated")
	eventsCmd.Flags().String("phone", "", "only show events for this phone")
	eventsCmd.Flags().Duration("since", 0, "replay stored events from this long ago, e.g. 1h")
}
