package processing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/goocclusion"
	"github.com/kacperjurak/goocclusion/pkg/dataset"
	"github.com/kacperjurak/goocclusion/pkg/models"
	"github.com/kacperjurak/goocclusion/pkg/worker"
)

// Inputs are the data a run starts from.
type Inputs struct {
	ReferenceName string
	Reference     goocclusion.Series
	Campaigns     []models.Campaign
	Occlusion     []models.OcclusionDataset
}

// Load reads the selected reference and everything resampled onto its axis.
// Files that were skipped are reported in warnings.
func Load(repo *dataset.Repository, sel dataset.Selection) (in Inputs, warnings []error, err error) {
	ref, name, err := repo.Reference(sel)
	if err != nil {
		return Inputs{}, nil, err
	}
	axis := ref.Frequencies()
	campaigns, errs := repo.Campaigns(axis)
	warnings = append(warnings, errs...)
	occlusion, errs := repo.OcclusionDatasets(axis)
	warnings = append(warnings, errs...)
	return Inputs{
		ReferenceName: name,
		Reference:     ref,
		Campaigns:     campaigns,
		Occlusion:     occlusion,
	}, warnings, nil
}

// NewSimulator builds a simulator for the average ear canal in air, with
// melamine foam as earmuff absorber.
func NewSimulator(reference goocclusion.Series) (*goocclusion.Simulator, error) {
	air := goocclusion.Air()
	return goocclusion.NewSimulator(goocclusion.SimulationContext{
		Frequencies: reference.Frequencies(),
		Medium:      air,
		Canal:       goocclusion.AverageEarCanal(),
		Reference:   reference,
	}, goocclusion.JCA{Material: goocclusion.MelamineFoam(), Fluid: goocclusion.AirFluid(air)})
}

// Options configures a Pipeline.
type Options struct {
	Geometries []goocclusion.GeometryConfiguration
	Workers    int
	// Fractions adds 1/Fractions-octave averages of the occlusion gain.
	Fractions int
	Unity     bool
	Logger    *zap.Logger
}

// Pipeline runs simulations and fits against a fixed simulator.
type Pipeline struct {
	sim    *goocclusion.Simulator
	opts   Options
	logger *zap.Logger
}

// New creates a pipeline on sim.
func New(sim *goocclusion.Simulator, opts Options) *Pipeline {
	if opts.Geometries == nil {
		opts.Geometries = goocclusion.DefaultGeometries()
	}
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{sim: sim, opts: opts, logger: logger}
}

// Simulator returns the simulator of the pipeline.
func (p *Pipeline) Simulator() *goocclusion.Simulator { return p.sim }

// Geometries returns the simulated earmuff configurations.
func (p *Pipeline) Geometries() []goocclusion.GeometryConfiguration { return p.opts.Geometries }

// CampaignResult holds the simulations of every sample of a campaign.
type CampaignResult struct {
	Campaign  models.Campaign
	Transfers []goocclusion.Series
	Upstream  []goocclusion.Series

	TransferMean, TransferStd goocclusion.Series
	UpstreamMean, UpstreamStd goocclusion.Series
	Err                       error
}

// Results is the outcome of a run.
type Results struct {
	ReferenceName     string
	OpenEar           goocclusion.Series
	PerfectlyOccluded goocclusion.Series
	// OpenEarUpstream is the reference impedance seen from the plug plane.
	OpenEarUpstream goocclusion.Series
	Earmuffs        []goocclusion.EarmuffResult
	Campaigns       []CampaignResult
	Occlusion       []models.OcclusionDataset
}

// Run simulates the reference cases, the earmuff geometries and every
// campaign. Campaigns are processed concurrently.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (Results, error) {
	start := time.Now()
	res := Results{
		ReferenceName: in.ReferenceName,
		OpenEar:       p.sim.OpenEar(),
		Occlusion:     in.Occlusion,
	}

	var err error
	if res.PerfectlyOccluded, err = p.sim.PerfectlyOccluded(); err != nil {
		return Results{}, fmt.Errorf("perfectly occluded: %w", err)
	}
	if res.OpenEarUpstream, err = p.sim.UpstreamImpedance(goocclusion.Finite(in.Reference)); err != nil {
		return Results{}, fmt.Errorf("open ear: %w", err)
	}
	if res.Earmuffs, err = p.sim.Earmuffs(p.opts.Geometries); err != nil {
		return Results{}, err
	}

	pool := worker.New(worker.Options[models.Campaign, CampaignResult]{
		Workers:   p.opts.Workers,
		Processor: p.simulateCampaign,
		Logger:    p.logger,
	})
	defer pool.Shutdown()

	if res.Campaigns, err = pool.Process(ctx, in.Campaigns); err != nil {
		return Results{}, err
	}
	for _, c := range res.Campaigns {
		if c.Err != nil {
			p.logger.Warn("campaign skipped", zap.String("campaign", c.Campaign.Name), zap.Error(c.Err))
		}
	}

	p.logger.Info("simulation finished",
		zap.String("reference", in.ReferenceName),
		zap.Int("campaigns", len(res.Campaigns)),
		zap.Int("geometries", len(res.Earmuffs)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (p *Pipeline) simulateCampaign(ctx context.Context, c models.Campaign) CampaignResult {
	out := CampaignResult{Campaign: c}
	if len(c.Samples) == 0 {
		out.Err = goocclusion.ErrEmptyCollection
		return out
	}
	for _, s := range c.Samples {
		if err := ctx.Err(); err != nil {
			out.Err = err
			return out
		}
		load := goocclusion.Finite(s.Impedance)
		t, err := p.sim.CanalTransfer(load)
		if err != nil {
			out.Err = fmt.Errorf("sample %s: %w", s.Label, err)
			return out
		}
		zu, err := p.sim.UpstreamImpedance(load)
		if err != nil {
			out.Err = fmt.Errorf("sample %s: %w", s.Label, err)
			return out
		}
		out.Transfers = append(out.Transfers, t)
		out.Upstream = append(out.Upstream, zu)
	}

	var err error
	if out.TransferMean, out.TransferStd, err = goocclusion.MagnitudeMeanStd(out.Transfers); err != nil {
		out.Err = err
		return out
	}
	if out.UpstreamMean, out.UpstreamStd, err = goocclusion.MagnitudeMeanStd(out.Upstream); err != nil {
		out.Err = err
	}
	p.logger.Debug("campaign simulated", zap.String("campaign", c.Name), zap.Int("samples", len(c.Samples)))
	return out
}

// SimulateLoad computes the canal transfer function and occlusion effect of
// one measured load. It is the processor of the batch worker pool.
func (p *Pipeline) SimulateLoad(ctx context.Context, item models.WorkItem) models.WorkResult {
	res := models.WorkResult{
		ID:        item.ID,
		RequestID: item.RequestID,
		BatchID:   item.BatchID,
		Label:     item.Label,
	}
	defer func() {
		if !item.StartTime.IsZero() {
			res.ProcessingTime = time.Since(item.StartTime)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	t, err := p.sim.Measurement(item.Load)
	if err != nil {
		res.Err = err
		return res
	}
	oe, err := p.sim.OcclusionEffect(t)
	if err != nil {
		res.Err = err
		return res
	}
	res.Transfer, res.OcclusionEffect = t, oe
	return res
}

// FitResult is the geometry fit of one campaign.
type FitResult struct {
	Campaign string
	Result   goocclusion.Result
	Err      error
}

// MethodAll tries every fit method and keeps the best.
const MethodAll = "all"

// ErrFitFailed is reported when no fit method converged.
var ErrFitFailed = errors.New("geometry fit failed")

type fitJob struct {
	campaign models.Campaign
	method   string
	initial  goocclusion.GeometryConfiguration
}

// Fit fits initial to every campaign with method.
func (p *Pipeline) Fit(ctx context.Context, campaigns []models.Campaign, method string, initial goocclusion.GeometryConfiguration) ([]FitResult, error) {
	jobs := make([]fitJob, len(campaigns))
	for i, c := range campaigns {
		jobs[i] = fitJob{campaign: c, method: method, initial: initial}
	}
	pool := worker.New(worker.Options[fitJob, FitResult]{
		Workers:   p.opts.Workers,
		Processor: p.fitCampaign,
		Logger:    p.logger,
	})
	defer pool.Shutdown()
	return pool.Process(ctx, jobs)
}

func (p *Pipeline) fitCampaign(ctx context.Context, job fitJob) FitResult {
	out := FitResult{Campaign: job.campaign.Name}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	measured := make([]goocclusion.Series, len(job.campaign.Samples))
	for i, s := range job.campaign.Samples {
		measured[i] = s.Impedance
	}

	methods := []string{job.method}
	if job.method == MethodAll {
		methods = goocclusion.Methods
	}

	var best goocclusion.Result
	for _, m := range methods {
		solver, err := goocclusion.NewSolver(p.sim, job.initial, measured)
		if err != nil {
			out.Err = err
			return out
		}
		solver.Method = m
		solver.Logger = p.logger.With(zap.String("campaign", job.campaign.Name))
		if p.opts.Unity {
			solver.Weighting = goocclusion.UNITY
		}
		r := solver.Solve()
		if r.Status != goocclusion.OK {
			continue
		}
		if best.Status == "" || r.Min < best.Min {
			best = r
		}
	}
	if best.Status == "" {
		out.Err = fmt.Errorf("%w: %v", ErrFitFailed, methods)
		return out
	}
	out.Result = best
	return out
}
