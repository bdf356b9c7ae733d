package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chartflow/pkg/domain"
	"github.com/matzehuels/chartflow/pkg/errors"
	chartio "github.com/matzehuels/chartflow/pkg/io"
	"github.com/matzehuels/chartflow/pkg/scale"
	"github.com/matzehuels/chartflow/pkg/spec"
	"github.com/matzehuels/chartflow/pkg/ticks"
)

type ticksOpts struct {
	min, max  float64
	count     int
	scaleType string
	format    string
	length    float64
	logBase   int
	vertical  bool
	rotation  float64
	asJSON    bool
}

// ticksCommand creates the ticks command, which prints the ticks of a
// single continuous axis.
func (c *CLI) ticksCommand() *cobra.Command {
	opts := ticksOpts{max: 1, count: ticks.DefaultCount, scaleType: string(spec.ScaleLinear), length: 600, logBase: 10}

	cmd := &cobra.Command{
		Use:   "ticks",
		Short: "Print the ticks of one axis",
		Long: `Print the ticks an axis of the given length would show for a domain.
Time domains are given in epoch milliseconds.`,
		Example: `  chartflow ticks --min 0 --max 1250000 --format si
  chartflow ticks --min 1 --max 100000 --scale log --vertical`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTicks(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().Float64Var(&opts.min, "min", opts.min, "domain minimum")
	cmd.Flags().Float64Var(&opts.max, "max", opts.max, "domain maximum")
	cmd.Flags().IntVar(&opts.count, "count", opts.count, "desired tick count")
	cmd.Flags().StringVar(&opts.scaleType, "scale", opts.scaleType, "scale type: linear, log, time")
	cmd.Flags().StringVar(&opts.format, "format", "", "label format: number[:d], si[:d], comma[:d], percent[:d], time[:layout]")
	cmd.Flags().Float64Var(&opts.length, "length", opts.length, "axis length in pixels")
	cmd.Flags().IntVar(&opts.logBase, "log-base", opts.logBase, "log scale base")
	cmd.Flags().BoolVar(&opts.vertical, "vertical", false, "lay the axis out vertically")
	cmd.Flags().Float64Var(&opts.rotation, "rotation", 0, "label rotation in degrees")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON")

	return cmd
}

func runTicks(w io.Writer, opts ticksOpts) error {
	t := spec.ScaleType(opts.scaleType)
	switch t {
	case spec.ScaleLinear, spec.ScaleLog, spec.ScaleTime:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "invalid scale %q (must be linear, log or time)", opts.scaleType)
	}
	if opts.min > opts.max {
		return errors.New(errors.ErrCodeInvalidDomain, "min %g is greater than max %g", opts.min, opts.max)
	}
	if opts.length <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "length must be positive, got %g", opts.length)
	}

	var formatter spec.Formatter
	if opts.format != "" {
		f, err := ticks.FormatterByName(opts.format)
		if err != nil {
			return err
		}
		formatter = f
	}

	r := scale.Range{Start: 0, End: opts.length}
	if opts.vertical {
		r = scale.Range{Start: opts.length, End: 0}
	}
	var diags errors.Diagnostics
	s, err := scale.New(t, domain.Domain{ScaleType: t, Min: opts.min, Max: opts.max}, r, scale.Options{LogBase: opts.logBase}, &diags)
	if err != nil {
		return err
	}
	for _, d := range diags {
		printWarning("%s", d)
	}

	res := ticks.Generate(s, ticks.Options{
		Count:     opts.count,
		Formatter: formatter,
		Rotation:  opts.rotation,
		Vertical:  opts.vertical,
	})
	if opts.asJSON {
		return chartio.WriteSnapshot(w, res)
	}
	for _, tk := range res.Ticks {
		fmt.Fprintln(w, keyValue(tk.Label, strconv.FormatFloat(tk.Position, 'f', 2, 64)))
	}
	if res.Overlap {
		printWarning("labels overlap at %d ticks; thinned to %d", opts.count, len(res.Ticks))
	}
	return nil
}
