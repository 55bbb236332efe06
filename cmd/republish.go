package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/psds-microservice/inquiry-service/internal/database"
	"github.com/psds-microservice/inquiry-service/internal/kafka"
	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/psds-microservice/inquiry-service/internal/notify"
	"github.com/psds-microservice/inquiry-service/internal/service"
	"github.com/psds-microservice/inquiry-service/internal/workflow"
	"github.com/spf13/cobra"
)

var republishCmd = &cobra.Command{
	Use:   "republish",
	Short: "Re-emit inquiry.updated for every inquiry. Prefers Kafka; falls back to NOTIFY_WEBHOOK_URL.",
	RunE:  runRepublish,
}

func init() {
	rootCmd.AddCommand(republishCmd)
}

func runRepublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var (
		sink notify.Notifier
		via  string
	)
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicInquiry)
	defer producer.Close()
	switch {
	case producer.Enabled():
		sink, via = producer, "kafka"
	case cfg.NotifyWebhookURL != "":
		sink, via = notify.NewWebhook(cfg.NotifyWebhookURL), "webhook"
	default:
		slog.Warn("republish: neither KAFKA_BROKERS nor NOTIFY_WEBHOOK_URL set, nothing to do")
		return nil
	}

	db, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	svc := service.NewInquiryService(db, workflow.NewMachine(workflow.Default()), nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	failed := 0
	n, err := svc.Each(ctx, 100, func(inq model.Inquiry) error {
		e := notify.Event{
			Name:      notify.EventUpdated,
			InquiryID: inq.ID,
			NamaToko:  inq.NamaToko,
			Status:    inq.Status,
			Divisi:    inq.Divisi,
			Actor:     inq.EditedBy,
			At:        inq.UpdatedAt,
		}
		if err := sink.Notify(ctx, e); err != nil {
			failed++
			slog.Warn("republish: send", slog.String("inquiry_id", inq.ID.String()), slog.Any("err", err))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list inquiries: %w", err)
	}
	slog.Info("republish: done", slog.String("via", via), slog.Int("inquiries", n), slog.Int("failed", failed))
	return nil
}
