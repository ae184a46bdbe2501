package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/goocclusion"
	"github.com/kacperjurak/goocclusion/internal/cli"
	"github.com/kacperjurak/goocclusion/internal/processing"
	"github.com/kacperjurak/goocclusion/pkg/config"
	"github.com/kacperjurak/goocclusion/pkg/dataset"
	"github.com/kacperjurak/goocclusion/pkg/figures"
	"github.com/kacperjurak/goocclusion/pkg/handlers"
	"github.com/kacperjurak/goocclusion/pkg/server"
	"github.com/kacperjurak/goocclusion/pkg/webhook"
)

// SimulateCmd renders the configured figures.
type SimulateCmd struct {
	Figures   string `type:"path" default:"${figures}" help:"Figure configuration (figures.json)"`
	Out       string `short:"o" type:"path" default:"${out}" help:"Output directory for rendered figures"`
	Format    string `enum:"png,svg" default:"${format}" help:"Image format"`
	Webhook   string `default:"${webhook}" help:"Also post figure data to this plotting webhook"`
	Fractions int    `default:"${fractions}" help:"Add 1/N octave band averages of the occlusion gain (0 disables)"`
}

// FitCmd fits earmuff geometries to the campaigns.
type FitCmd struct {
	Method   string `enum:"nelder-mead,lm,lbfgs,all" default:"${method}" help:"Fit method"`
	Geometry string `help:"Name of the starting geometry (defaults to the first simulated box)"`
	Unity    bool   `help:"Use unity weighting instead of modulus"`
}

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	Port      string `short:"p" default:"${port}" help:"HTTP port"`
	Workers   int    `short:"w" default:"${workers}" help:"Worker pool size"`
	Webhook   string `default:"${webhook}" help:"Post batch figures to this plotting webhook"`
	PprofPort string `default:"${pprof_port}" help:"Serve pprof endpoints on this port"`
}

func (a *app) repository() *dataset.Repository {
	repo := dataset.New(a.cfg.Root, a.logger.Named("dataset"))
	repo.FreqRange = a.cfg.FreqRange()
	return repo
}

// selection resolves --reference, prompting when several references exist
// and none was named.
func (a *app) selection(repo *dataset.Repository) (dataset.Selection, error) {
	if a.cfg.Reference != "" {
		return dataset.ParseSelection(a.cfg.Reference), nil
	}
	files, err := repo.ReferenceFiles()
	if err != nil {
		return dataset.Selection{}, err
	}
	return cli.PromptReference(os.Stdin, os.Stdout, files)
}

// load reads the inputs and builds a pipeline on them.
func (a *app) load(opts processing.Options) (processing.Inputs, *processing.Pipeline, error) {
	repo := a.repository()
	sel, err := a.selection(repo)
	if err != nil {
		return processing.Inputs{}, nil, err
	}
	in, warnings, err := processing.Load(repo, sel)
	if err != nil {
		return processing.Inputs{}, nil, err
	}
	for _, w := range warnings {
		a.logger.Warn("input skipped", zap.Error(w))
	}
	sim, err := processing.NewSimulator(in.Reference)
	if err != nil {
		return processing.Inputs{}, nil, err
	}
	opts.Logger = a.logger.Named("pipeline")
	return in, processing.New(sim, opts), nil
}

func (c *SimulateCmd) Run(ctx context.Context, a *app) error {
	a.cfg.FiguresFile, a.cfg.OutDir, a.cfg.Format = c.Figures, c.Out, c.Format
	a.cfg.WebhookURL, a.cfg.Fractions = c.Webhook, c.Fractions

	figs, err := config.LoadFigures(a.cfg.FiguresFile)
	if errors.Is(err, os.ErrNotExist) {
		a.logger.Warn("figure configuration not found, showing all figures", zap.String("file", a.cfg.FiguresFile))
		figs, err = config.DefaultFigures(), nil
	}
	if err != nil {
		return err
	}

	in, p, err := a.load(processing.Options{Fractions: a.cfg.Fractions})
	if err != nil {
		return err
	}
	res, err := p.Run(ctx, in)
	if err != nil {
		return err
	}
	out, err := p.Figures(res, figs)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.cfg.OutDir, 0o755); err != nil {
		return err
	}
	var queue *webhook.Queue
	if a.cfg.WebhookURL != "" {
		queue = webhook.NewQueue(webhook.NewClient(a.cfg.WebhookURL, a.logger.Named("webhook")), len(out), a.logger.Named("webhook"))
		defer queue.Close()
	}

	cli.PrintKeyValue(os.Stdout, "Reference:", in.ReferenceName)
	for _, fig := range out {
		path, err := figures.Save(fig, a.cfg.OutDir, a.cfg.Format)
		if err != nil {
			return err
		}
		cli.PrintKeyValue(os.Stdout, fig.Name+":", path)
		if queue != nil {
			queue.Enqueue(fig)
		}
	}
	return nil
}

func (c *FitCmd) Run(ctx context.Context, a *app) error {
	a.cfg.OptimMethod, a.cfg.Geometry, a.cfg.Unity = c.Method, c.Geometry, c.Unity

	geoms := goocclusion.DefaultGeometries()
	initial := geoms[0]
	if a.cfg.Geometry != "" {
		g, ok := goocclusion.FindGeometry(geoms, a.cfg.Geometry)
		if !ok {
			return fmt.Errorf("unknown geometry %q", a.cfg.Geometry)
		}
		initial = g
	}

	in, p, err := a.load(processing.Options{Unity: a.cfg.Unity})
	if err != nil {
		return err
	}
	if len(in.Campaigns) == 0 {
		return errors.New("no measurement campaigns to fit")
	}
	results, err := p.Fit(ctx, in.Campaigns, a.cfg.OptimMethod, initial)
	if err != nil {
		return err
	}

	fmt.Println(cli.TitleStyle.Render("Geometry fit from " + initial.Name))
	for _, r := range results {
		if r.Err != nil {
			cli.PrintKeyValue(os.Stdout, r.Campaign+":", "failed: "+r.Err.Error())
			continue
		}
		g := r.Result.Geometry
		cli.PrintKeyValue(os.Stdout, r.Campaign+":", fmt.Sprintf("l_ext = %.2fcm, l_foam = %.2fcm (%s, chi2 %.4e, %s)",
			g.CupLength*100, g.AbsorberLength*100, r.Result.Method, r.Result.Min, r.Result.Runtime.Round(time.Millisecond)))
	}
	return nil
}

func (c *ServeCmd) Run(ctx context.Context, a *app, srvCfg *config.ServerConfig) error {
	srvCfg.Port, srvCfg.WorkerCount = c.Port, c.Workers
	srvCfg.WebhookURL, srvCfg.ProfilingPort = c.Webhook, c.PprofPort

	repo := a.repository()
	sel, err := a.selection(repo)
	if err != nil {
		return err
	}
	ref, name, err := repo.Reference(sel)
	if err != nil {
		return err
	}
	sim, err := processing.NewSimulator(ref)
	if err != nil {
		return err
	}
	p := processing.New(sim, processing.Options{Workers: srvCfg.WorkerCount, Logger: a.logger.Named("pipeline")})
	a.logger.Info("serving simulations", zap.String("reference", name))

	srv := server.New(server.Options{
		ServerConfig: srvCfg,
		Simulator:    p,
		Axis:         handlers.Axis{Frequencies: ref.Frequencies(), Area: repo.Area},
		Logger:       a.logger,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
