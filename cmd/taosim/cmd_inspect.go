package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/subtensor-labs/taosim/internal/config"
	"github.com/subtensor-labs/taosim/internal/state"
	"github.com/subtensor-labs/taosim/internal/types"
)

var (
	inspectTVL         float64
	inspectTurnover    float64
	inspectUtilization float64
	inspectPrice       float64
	inspectBurn        float64
	inspectFormat      string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Break down the daily LP reward at one TVL",
	Long: `Evaluate the yield model at a single TVL and print the full reward
breakdown: trading fees, borrowing fees, miner emission, the borrow curve
position and the annualized rates they imply.

Examples:
  taosim inspect --tvl 100000
  taosim inspect --tvl 50000 --utilization 0.9 --price 0.05 --format json`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().Float64Var(&inspectTVL, "tvl", config.DefaultCurveMaxTVL, "Pool TVL in TAO to evaluate")
	inspectCmd.Flags().Float64Var(&inspectTurnover, "turnover", config.DefaultTurnoverRate, "Daily traded volume as a multiple of TVL")
	inspectCmd.Flags().Float64Var(&inspectUtilization, "utilization", config.DefaultUtilizationRate, "Borrowed share of the pool, in [0, 1]")
	inspectCmd.Flags().Float64Var(&inspectPrice, "price", config.DefaultAlphaPrice, "Alpha price in TAO (0 fetches the live pool price)")
	inspectCmd.Flags().Float64Var(&inspectBurn, "burn", config.DefaultBurnPercentage, "Share of miner emission burned, in [0, 100]")
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "table", "Output format: table|json")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	modelParams := loadModelParameters()
	defer state.CloseDB()

	eng, err := buildEngine(modelParams)
	if err != nil {
		return err
	}

	inspection, err := eng.InspectYield(inspectTVL, types.YieldParams{
		TurnoverRate:    inspectTurnover,
		UtilizationRate: inspectUtilization,
		Price:           inspectPrice,
		BurnPercentage:  inspectBurn,
	})
	if err != nil {
		return err
	}

	if inspectFormat == "json" {
		return outputJSON(inspection)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "TVL (TAO)\t%.2f\n", inspection.TVL)
	fmt.Fprintf(w, "Utilization\t%.4f\n", inspection.Utilization)
	fmt.Fprintf(w, "Borrow rate (per epoch)\t%.8f\n", inspection.BorrowRate)
	fmt.Fprintf(w, "Trading fee reward (TAO/day)\t%.4f\n", inspection.Breakdown.TradingFeeReward)
	fmt.Fprintf(w, "Borrowing fee reward (TAO/day)\t%.4f\n", inspection.Breakdown.BorrowingFeeReward)
	fmt.Fprintf(w, "Miner emission (TAO/day)\t%.4f\n", inspection.Breakdown.MinerEmission)
	fmt.Fprintf(w, "Total reward (TAO/day)\t%.4f\n", inspection.Breakdown.TotalReward)
	fmt.Fprintf(w, "APR\t%.2f%%\n", inspection.Breakdown.APR*100)
	fmt.Fprintf(w, "APY\t%.2f%%\n", inspection.Breakdown.APY*100)
	return w.Flush()
}
