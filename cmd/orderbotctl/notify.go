package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariefcatur/go-qris-orderbot/internal/midtrans"
)

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [order_id] [status_code] [gross_amount]",
		Short: "Print the Midtrans notification signature",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := serverKey(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), midtrans.Signature(args[0], args[1], args[2], key))
			return nil
		},
	}
	cmd.Flags().String("server-key", "", "Midtrans server key (default $MIDTRANS_SERVER_KEY)")
	return cmd
}

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify [order_id]",
		Short: "Send a signed Midtrans notification to the webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := serverKey(cmd)
			if err != nil {
				return err
			}
			url, _ := cmd.Flags().GetString("url")
			status, _ := cmd.Flags().GetString("status")
			code, _ := cmd.Flags().GetString("status-code")
			gross, _ := cmd.Flags().GetString("gross")
			bad, _ := cmd.Flags().GetBool("bad-signature")

			n := buildNotification(args[0], status, code, gross, key)
			if bad {
				n.SignatureKey = strings.Repeat("0", len(n.SignatureKey))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			sc, body, err := postNotification(ctx, http.DefaultClient, url, n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", sc, strings.TrimSpace(body))
			return nil
		},
	}
	cmd.Flags().String("server-key", "", "Midtrans server key (default $MIDTRANS_SERVER_KEY)")
	cmd.Flags().String("url", "http://localhost:8000/webhook/midtrans", "Webhook URL")
	cmd.Flags().String("status", midtrans.TransactionSettlement, "transaction_status")
	cmd.Flags().String("status-code", "200", "status_code")
	cmd.Flags().String("gross", "", "gross_amount as Midtrans sends it, e.g. 50000.00")
	cmd.Flags().Bool("bad-signature", false, "Send an invalid signature")
	_ = cmd.MarkFlagRequired("gross")
	return cmd
}

func buildNotification(orderID, status, code, gross, key string) midtrans.Notification {
	n := midtrans.Notification{
		OrderID:           orderID,
		StatusCode:        code,
		GrossAmount:       gross,
		TransactionStatus: status,
		TransactionID:     fmt.Sprintf("sim-%d", time.Now().UnixNano()),
		TransactionTime:   time.Now().Format("2006-01-02 15:04:05"),
		PaymentType:       "qris",
		FraudStatus:       "accept",
	}
	n.Sign(key)
	return n
}

func postNotification(ctx context.Context, c *http.Client, url string, n midtrans.Notification) (int, string, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return 0, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	return resp.StatusCode, string(body), nil
}
