package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lumeforge/venued/internal/config"
	"github.com/lumeforge/venued/internal/core/fixmath"
)

var (
	quoteFeeNum int64
	quoteFeeDen int64
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount-in> <reserve-in> <reserve-out>",
	Short: "Quote a constant-product swap offline",
	Long: `Compute the output of a constant-product swap without contacting a
server. Takes the input amount and the two pool reserves; the fee
defaults to the engine's swap fee.

Example:
  venued quote 1000 10000 500000`,
	Args: cobra.ExactArgs(3),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	defaults := config.Default()
	quoteCmd.Flags().Int64Var(&quoteFeeNum, "fee-num", defaults.Fees.AMMFeeNum, "post-fee fraction numerator")
	quoteCmd.Flags().Int64Var(&quoteFeeDen, "fee-den", defaults.Fees.AMMFeeDen, "post-fee fraction denominator")
}

func runQuote(cmd *cobra.Command, args []string) error {
	values := make([]int64, 3)
	for i, arg := range args {
		v, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("argument %q must be an integer: %w", arg, err)
		}
		values[i] = v
	}

	out, err := fixmath.ConstantProductOut(values[0], values[1], values[2], quoteFeeNum, quoteFeeDen)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
