package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/adapters/event"
	"github.com/khoahotran/internmatch-client/internal/application/service"
)

var (
	eventsGroup string

	eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Print profile lifecycle events as they are published",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadBase()
		},
		RunE: runEvents,
	}
)

func runEvents(cmd *cobra.Command, args []string) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is not configured")
	}
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = event.TopicProfileEvents
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    topic,
		GroupID:  eventsGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	log.Info("Listening for profile events", zap.String("topic", topic), zap.String("group", eventsGroup))

	w := cmd.OutOrStdout()
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("Failed to read message from Kafka", err)
			continue
		}

		var ev service.ProfileEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Warn("Skipping undecodable event", zap.String("key", string(msg.Key)), zap.Error(err))
			continue
		}
		fmt.Fprintf(w, "%s %s profile=%s subject=%s assets=%v\n",
			ev.At.Format(time.RFC3339), ev.Type, ev.ProfileID, ev.Subject, ev.Assets)
	}
}

func init() {
	eventsCmd.Flags().StringVar(&eventsGroup, "group", "internmatch-cli", "Kafka consumer group")
}
