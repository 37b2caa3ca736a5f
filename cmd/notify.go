/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/taskhub/apiserver/config"
	"github.com/taskhub/apiserver/internal/logging"
	"github.com/taskhub/apiserver/internal/mq"
)

// notifyCmd consumes task events from the configured broker and logs them.
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Consume task events and log them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(cfg.Env)
		if cfg.MQ.Backend == "" || cfg.MQ.Backend == "none" {
			return fmt.Errorf("MQ_BACKEND must be rabbitmq or pubsub to consume events")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ, log)
		if err != nil {
			return err
		}
		defer broker.Close()

		log.Info("consuming events", "backend", broker.Name(), "channel", cfg.MQ.EventsChannel)
		err = broker.Subscribe(ctx, cfg.MQ.EventsChannel, func(ctx context.Context, msg mq.Message) error {
			env, err := mq.DecodeEnvelope(msg)
			if err != nil {
				// Undecodable messages are acked and dropped.
				log.Warn("discarding event", "message_id", msg.ID, "error", err)
				return nil
			}
			log.Info("event",
				"event", env.Event,
				"occurred_at", env.OccurredAt,
				"message_id", msg.ID,
				"payload", string(env.Payload))
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
