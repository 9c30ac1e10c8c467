package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/energyatlas/pkg/app"
	"github.com/matzehuels/energyatlas/pkg/server"
	"github.com/matzehuels/energyatlas/pkg/view"
)

type serveOpts struct {
	addr   string
	view   string
	year   int
	metric string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive atlas over HTTP",
		Long: `Serve one interactive session over HTTP.

Controls (year, metric, view, playback, hover, drag, zoom, drill-down and
series) are POST endpoints under /api; every change is pushed to websocket
clients connected to /ws.`,
		Example: `  energyatlas serve
  energyatlas serve --addr :9000 --metric gdp --view globe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runServe(ctx, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "listen address (default: config server.addr)")
	f.StringVar(&opts.view, "view", "flat", "initial view: flat, globe or treemap")
	f.IntVar(&opts.year, "year", 0, "initial year")
	f.StringVarP(&opts.metric, "metric", "m", "", "initial metric")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	mode, err := view.ParseMode(opts.view)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Loading datasets...")
	spinner.Start()
	a, err := runner.NewApp(ctx, app.Options{Year: opts.year, Metric: opts.metric, Mode: mode})
	spinner.Stop()
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a, runner, logger)
	defer srv.Close()

	addr := opts.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	state := a.State()
	printSuccess("Serving %s", StyleLink.Render(serverURL(addr)))
	printKeyValue("metric", state.Metric)
	printKeyValue("year", StyleNumber.Render(strconv.Itoa(state.Year)))
	printKeyValue("websocket", serverURL(addr)+"/ws")

	return srv.ListenAndServe(ctx, addr)
}

// serverURL turns a listen address into a browsable URL.
func serverURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
