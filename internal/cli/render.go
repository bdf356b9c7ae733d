package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	chartio "github.com/matzehuels/chartflow/pkg/io"
	"github.com/matzehuels/chartflow/pkg/legend"
	"github.com/matzehuels/chartflow/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string  // snapshot file; stdout when empty
	width     float64 // frame width when the document sets none
	height    float64 // frame height when the document sets none
	ticks     int     // tick count for axes that ask for none
	colors    string  // color assignment file, read before and written after the run
	legendAt  string  // category the legend displays
	noCache   bool
	refresh   bool
	pointSize float64
}

// renderCommand creates the render command for XY charts.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [chart]",
		Short: "Compute the XY snapshot of a chart document",
		Long: `Compute domains, stacks, scales, ticks, geometry and the legend of the XY
series in a chart document and write the snapshot as JSON.

Pass --colors to keep series colors stable across runs: the file is read
before the run and rewritten with the new assignment afterwards.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeChartFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64Var(&opts.width, "width", pipeline.DefaultWidth, "frame width")
	cmd.Flags().Float64Var(&opts.height, "height", pipeline.DefaultHeight, "frame height")
	cmd.Flags().IntVar(&opts.ticks, "ticks", pipeline.DefaultTickCount, "tick count for axes without one")
	cmd.Flags().Float64Var(&opts.pointSize, "point-radius", pipeline.DefaultPointRadius, "point marker radius")
	cmd.Flags().StringVar(&opts.colors, "colors", "", "color assignment file to reuse and update")
	cmd.Flags().StringVar(&opts.legendAt, "legend-at", "", "x category shown in the legend (default: last value)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the snapshot cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, stdout io.Writer, input string, opts renderOpts) error {
	prog := newProgress(c.Logger)
	doc, err := chartio.Import(input)
	if err != nil {
		return err
	}
	if !doc.HasXY() {
		return fmt.Errorf("%s declares no series (use 'partition' for partition charts)", input)
	}
	c.Logger.Debug("loaded chart", "file", input, "series", len(doc.Chart.Series), "axes", len(doc.Chart.Axes))

	colors, err := readColors(opts.colors)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	runOpts := pipeline.Options{
		Width:       opts.width,
		Height:      opts.height,
		TickCount:   opts.ticks,
		PointRadius: opts.pointSize,
		Colors:      colors,
		ChartHash:   doc.Hash,
		Refresh:     opts.refresh,
		Logger:      c.Logger,
	}
	if opts.legendAt != "" {
		runOpts.LegendCategory = categoryArg(opts.legendAt)
	}
	snap, err := runner.Run(ctx, doc.Chart, runOpts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Computed %d series", len(snap.Legend)))

	if opts.colors != "" {
		if err := writeColors(opts.colors, snap.Colors); err != nil {
			return err
		}
	}
	if opts.output == "" {
		return chartio.WriteSnapshot(stdout, snap)
	}
	if err := chartio.ExportSnapshot(snap, opts.output); err != nil {
		return err
	}
	printSuccess("Rendered %s", input)
	printFile(opts.output)
	printStats(len(snap.Geometries), len(snap.Diagnostics), snap.Cached)
	for _, d := range snap.Diagnostics {
		printWarning("%s", d)
	}
	return nil
}

// readColors loads a color assignment. A missing file is an empty one.
func readColors(path string) (legend.ColorAssignment, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read colors: %w", err)
	}
	var colors legend.ColorAssignment
	if err := json.Unmarshal(data, &colors); err != nil {
		return nil, fmt.Errorf("decode colors %s: %w", path, err)
	}
	return colors, nil
}

func writeColors(path string, colors legend.ColorAssignment) error {
	data, err := json.Marshal(colors)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// categoryArg reads a command-line category as a number when it is one.
func categoryArg(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
