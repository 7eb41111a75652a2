package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"HedgeRatio/internal/hedge"
	"HedgeRatio/internal/report"
)

const (
	defaultSpot    = "PSX"
	defaultFutures = "CL=F"
	defaultStart   = "2020-01-01"
	defaultEnd     = "2025-10-01"
)

type calcOptions struct {
	spot, futures string
	start, end    string
	positionValue float64
	futuresPrice  float64
	contractSize  float64
	plotPath      string
	source        string
}

func newCalcCmd(root *rootOptions) *cobra.Command {
	opts := &calcOptions{}
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute the hedge ratio for one spot/futures pair",
		Long: `Fetch daily prices for both tickers, compute percentage returns over the
dates they share, and print correlation, volatilities, the hedge ratio and,
when position value, futures price and contract size are all given, the
optimal number of futures contracts.

Examples:
  hedgeratio calc --spot XOM --futures CL=F --start 2022-01-01 --end 2024-01-01
  hedgeratio calc --position-value 1000000 --futures-price 80 --contract-size 1000 --plot hedge.svg
  hedgeratio calc --source mock`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.spot, "spot", defaultSpot, "Spot ticker")
	f.StringVar(&opts.futures, "futures", defaultFutures, "Futures (or correlated asset) ticker")
	f.StringVar(&opts.start, "start", defaultStart, "Start date (YYYY-MM-DD)")
	f.StringVar(&opts.end, "end", defaultEnd, "End date (YYYY-MM-DD)")
	f.Float64Var(&opts.positionValue, "position-value", 0, "Value of the spot position V_A")
	f.Float64Var(&opts.futuresPrice, "futures-price", 0, "Futures price per unit")
	f.Float64Var(&opts.contractSize, "contract-size", 0, "Units per futures contract")
	f.StringVar(&opts.plotPath, "plot", "", "Write the scatter plot as SVG to this file")
	f.StringVar(&opts.source, "source", sourceAuto, "Data source: yahoo, vstrader or mock (default from config)")
	return cmd
}

func runCalc(cmd *cobra.Command, root *rootOptions, opts *calcOptions) error {
	req := hedge.Request{SpotSymbol: opts.spot, FuturesSymbol: opts.futures}
	var err error
	if req.Start, err = hedge.ParseDate(opts.start); err != nil {
		return errors.New(hedge.UserMessage(err))
	}
	if req.End, err = hedge.ParseDate(opts.end); err != nil {
		return errors.New(hedge.UserMessage(err))
	}
	// Presence comes from the flag being set, so an explicit 0 still counts.
	flags := cmd.Flags()
	if flags.Changed("position-value") {
		req.Contract.PositionValue = &opts.positionValue
	}
	if flags.Changed("futures-price") {
		req.Contract.FuturesPrice = &opts.futuresPrice
	}
	if flags.Changed("contract-size") {
		req.Contract.ContractSize = &opts.contractSize
	}

	a, err := newApp(root.cfg, opts.source, opts.spot, opts.futures)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.service.Calculate(cmd.Context(), req)
	if err != nil {
		return errors.New(hedge.UserMessage(err))
	}

	if err := report.WriteText(cmd.OutOrStdout(), res); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if opts.plotPath != "" {
		if err := os.WriteFile(opts.plotPath, report.ScatterSVG(res), 0o644); err != nil {
			return fmt.Errorf("write plot: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nPlot written to %s\n", opts.plotPath)
	}
	return nil
}
