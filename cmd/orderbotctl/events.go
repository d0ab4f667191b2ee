package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	kafkax "github.com/ariefcatur/go-qris-orderbot/internal/kafka"
	"github.com/ariefcatur/go-qris-orderbot/internal/logging"
	"github.com/ariefcatur/go-qris-orderbot/internal/orders"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail order events from Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			brokers, _ := cmd.Flags().GetStringSlice("brokers")
			topic, _ := cmd.Flags().GetString("topic")
			group, _ := cmd.Flags().GetString("group")
			if len(brokers) == 0 {
				return fmt.Errorf("at least one broker required")
			}

			log, err := logging.New("warn", "orderbotctl")
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			c := kafkax.NewConsumer(brokers, group, topic, 1, log)
			return c.Start(ctx, func(_ context.Context, m kafka.Message) error {
				return printEvent(out, m.Value)
			})
		},
	}
	cmd.Flags().StringSlice("brokers", []string{"localhost:9092"}, "Kafka brokers")
	cmd.Flags().String("topic", orders.TopicOrderPaid, "Topic (order.created or order.paid)")
	cmd.Flags().String("group", "orderbotctl", "Consumer group")
	return cmd
}

func printEvent(w io.Writer, value []byte) error {
	var env orders.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	ts := env.OccurredAt.Format("2006-01-02 15:04:05")

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s %s order=%s user=%d product=%d amount=%d\n",
			ts, env.EventType, p.OrderID, p.UserID, p.ProductID, p.Amount)
		return err
	case orders.EventOrderPaid:
		p, err := kafkax.UnwrapPayload[orders.OrderPaidPayload](env.Payload)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s %s order=%s user=%d product=%d amount=%d paid_at=%s\n",
			ts, env.EventType, p.OrderID, p.UserID, p.ProductID, p.Amount, p.PaidAt.Format("15:04:05"))
		return err
	default:
		_, err := fmt.Fprintf(w, "%s %s %s\n", ts, env.EventType, env.Payload)
		return err
	}
}
