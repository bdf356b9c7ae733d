package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	chartio "github.com/matzehuels/chartflow/pkg/io"
	"github.com/matzehuels/chartflow/pkg/partition"
	"github.com/matzehuels/chartflow/pkg/pipeline"
)

type partitionOpts struct {
	output  string
	width   float64
	height  float64
	legend  string // overrides the document's legend rule
	pick    string // "x,y"
	noCache bool
	refresh bool
}

// partitionCommand creates the partition command for sunburst, treemap,
// icicle and flame charts.
func (c *CLI) partitionCommand() *cobra.Command {
	var opts partitionOpts

	cmd := &cobra.Command{
		Use:   "partition [chart]",
		Short: "Lay out the partition chart of a chart document",
		Long: `Fold the rows of the document's partition section into a tree, lay it out
and write the snapshot as JSON.

With --pick x,y the node under that plot position is printed instead.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeChartFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPartition(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64Var(&opts.width, "width", pipeline.DefaultWidth, "frame width when the document sets none")
	cmd.Flags().Float64Var(&opts.height, "height", pipeline.DefaultHeight, "frame height when the document sets none")
	cmd.Flags().StringVar(&opts.legend, "legend", "", "legend rule: by-path, by-label-per-depth, by-label")
	cmd.Flags().StringVar(&opts.pick, "pick", "", "print the node under the plot position x,y")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the snapshot cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runPartition(ctx context.Context, stdout io.Writer, input string, opts partitionOpts) error {
	prog := newProgress(c.Logger)
	doc, err := chartio.Import(input)
	if err != nil {
		return err
	}
	p := doc.Partition
	if p == nil {
		return fmt.Errorf("%s has no partition section", input)
	}
	rule := p.Legend
	if opts.legend != "" {
		rule = partition.LegendRule(opts.legend)
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	snap, err := runner.RunPartition(ctx, p.Data, p.Config, pipeline.Options{
		Width:      opts.width,
		Height:     opts.height,
		LegendRule: rule,
		ChartHash:  doc.Hash,
		Refresh:    opts.refresh,
		Logger:     c.Logger,
	})
	if err != nil {
		return err
	}
	if snap.Tree == nil {
		for _, d := range snap.Diagnostics {
			printWarning("%s", d)
		}
		return fmt.Errorf("%s: nothing to lay out", input)
	}
	prog.done(fmt.Sprintf("Laid out %s nodes", humanize.Comma(int64(len(snap.Tree.Nodes)))))

	if opts.pick != "" {
		x, y, err := parsePoint(opts.pick)
		if err != nil {
			return err
		}
		picked, ok := snap.Pick(x, y, p.ID)
		if !ok {
			printInfo("Nothing at %g,%g", x, y)
			return nil
		}
		for _, lv := range picked.Path {
			printKeyValue(strings.Repeat("  ", lv.Depth-1)+lv.Label, humanize.CommafWithDigits(lv.Value, 2))
		}
		return nil
	}

	if opts.output == "" {
		return chartio.WriteSnapshot(stdout, snap)
	}
	if err := chartio.ExportSnapshot(snap, opts.output); err != nil {
		return err
	}
	printSuccess("Laid out %s", input)
	printFile(opts.output)
	printStats(len(snap.Tree.Nodes), len(snap.Diagnostics), snap.Cached)
	return nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid point %q (want x,y)", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return x, y, nil
}
