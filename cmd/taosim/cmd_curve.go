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
	curveMinTVL      float64
	curveMaxTVL      float64
	curvePoints      int
	curveTurnover    float64
	curveUtilization float64
	curvePrice       float64
	curveBurn        float64
	curveFormat      string
)

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Project the APR/APY curve across a TVL range",
	Long: `Sweep the yield model across a TVL range and print one APR/APY sample per
point. With --price 0 (the default) the alpha price is fetched live from the
reserve oracle.

Examples:
  taosim curve
  taosim curve --min-tvl 10000 --max-tvl 50000 --points 20
  taosim curve --price 0.05 --utilization 0.8 --format json`,
	RunE: runCurve,
}

func init() {
	curveCmd.Flags().Float64Var(&curveMinTVL, "min-tvl", config.DefaultCurveMinTVL, "Lowest TVL sample in TAO")
	curveCmd.Flags().Float64Var(&curveMaxTVL, "max-tvl", config.DefaultCurveMaxTVL, "Highest TVL sample in TAO")
	curveCmd.Flags().IntVar(&curvePoints, "points", config.DefaultCurvePoints, "Number of evenly spaced samples")
	curveCmd.Flags().Float64Var(&curveTurnover, "turnover", config.DefaultTurnoverRate, "Daily traded volume as a multiple of TVL")
	curveCmd.Flags().Float64Var(&curveUtilization, "utilization", config.DefaultUtilizationRate, "Borrowed share of the pool, in [0, 1]")
	curveCmd.Flags().Float64Var(&curvePrice, "price", config.DefaultAlphaPrice, "Alpha price in TAO (0 fetches the live pool price)")
	curveCmd.Flags().Float64Var(&curveBurn, "burn", config.DefaultBurnPercentage, "Share of miner emission burned, in [0, 100]")
	curveCmd.Flags().StringVar(&curveFormat, "format", "table", "Output format: table|json")
	rootCmd.AddCommand(curveCmd)
}

func runCurve(cmd *cobra.Command, args []string) error {
	modelParams := loadModelParameters()
	defer state.CloseDB()

	eng, err := buildEngine(modelParams)
	if err != nil {
		return err
	}

	points, err := eng.YieldCurve(types.CurveRequest{
		MinTVL: curveMinTVL,
		MaxTVL: curveMaxTVL,
		Points: curvePoints,
		Baseline: types.YieldParams{
			TurnoverRate:    curveTurnover,
			UtilizationRate: curveUtilization,
			Price:           curvePrice,
			BurnPercentage:  curveBurn,
		},
	})
	if err != nil {
		return err
	}

	if curveFormat == "json" {
		return outputJSON(points)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "TVL (TAO)\tAPR\tAPY")
	for _, p := range points {
		fmt.Fprintf(w, "%.2f\t%.2f%%\t%.2f%%\n", p.TVL, p.APR*100, p.APY*100)
	}
	return w.Flush()
}
