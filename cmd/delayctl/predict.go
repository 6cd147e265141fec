package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"delay-prediction-api/services"
	"delay-prediction-api/store"

	"github.com/spf13/cobra"
)

func predictCmd() *cobra.Command {
	var (
		file    string
		orderID int64
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the delay of one order, or of every active order",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := store.LoadFile(file)
			if err != nil {
				return err
			}
			svc := services.NewPredictionService(m, m, m, services.NewSnapshotManager(m))
			out := cmd.OutOrStdout()

			if orderID == 0 {
				overview, err := svc.GetOverview(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, overview)
				}
				return writeOverview(out, overview)
			}

			resp, err := svc.PredictForOrder(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, resp)
			}
			return writePrediction(out, resp)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML dataset with orders, rules and events")
	cmd.Flags().Int64Var(&orderID, "order", 0, "order id; 0 predicts every active order")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the API response body")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePrediction(w io.Writer, resp *services.PredictionResponse) error {
	fmt.Fprintf(w, "order %d: %.2fh %s (%d events, top %s)\n",
		resp.OrderID, resp.PredictedDelayHours, resp.RiskLevel, resp.EventCount, resp.TopContributorCode)
	for _, p := range resp.ProcessBreakdown {
		fmt.Fprintf(w, "  %-12s %8.2fh\n", p.Process, p.TotalDelayHours)
	}
	_, err := fmt.Fprintln(w, resp.ExplanationSummary)
	return err
}

func writeOverview(w io.Writer, overview *services.OverviewResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tDELAY\tRISK\tEVENTS\tTOP")
	for _, o := range overview.Orders {
		fmt.Fprintf(tw, "%d\t%.2f\t%s\t%d\t%s\n",
			o.OrderID, o.PredictedDelayHours, o.RiskLevel, o.EventCount, o.TopContributorCode)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	d := overview.RiskDistribution
	_, err := fmt.Fprintf(w, "%d active orders, max %.2fh, avg %.2fh (LOW %d, MEDIUM %d, HIGH %d, CRITICAL %d)\n",
		overview.TotalOrders, overview.MaxDelayHours, overview.AvgDelayHours, d.Low, d.Medium, d.High, d.Critical)
	return err
}
