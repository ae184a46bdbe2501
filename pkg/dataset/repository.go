package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/kacperjurak/goocclusion"
	"github.com/kacperjurak/goocclusion/pkg/config"
	"github.com/kacperjurak/goocclusion/pkg/models"
)

const (
	referenceDir    = "reference"
	measurementsDir = "measurements"
	occlusionDir    = "occlusion_data"
	styleFile       = "config.json"
	excludedDir     = "no_include"
)

// Selection picks a reference file by 1-based index or by file name. The
// zero value selects the only file when exactly one exists.
type Selection struct {
	Index int
	Name  string
}

// ParseSelection interprets s as an index when it is a number and as a file
// name otherwise.
func ParseSelection(s string) Selection {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Selection{Index: n}
	}
	return Selection{Name: s}
}

// IsZero reports whether no reference was chosen.
func (s Selection) IsZero() bool { return s.Index == 0 && s.Name == "" }

// Repository reads measurement campaigns, reference impedances and published
// occlusion datasets from a data directory:
//
//	reference/*.csv
//	measurements/<campaign>/{config.json, *.csv}
//	occlusion_data/<dataset>/{config.json, *mean*.csv, *std*.csv}
type Repository struct {
	Root      string
	FreqRange [2]float64
	// Area divides measured acoustic impedances into specific acoustic
	// impedances.
	Area   float64
	Logger *zap.Logger
}

// New returns a repository on root with the default band and canal area.
func New(root string, logger *zap.Logger) *Repository {
	return &Repository{
		Root:      root,
		FreqRange: [2]float64{100, 1500},
		Area:      goocclusion.AverageEarCanal().Area(),
		Logger:    logger,
	}
}

func (r *Repository) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// ReferenceFiles lists the reference CSV files in name order.
func (r *Repository) ReferenceFiles() ([]string, error) {
	dir := filepath.Join(r.Root, referenceDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingDirectory, dir)
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoReference, dir)
	}
	return files, nil
}

// Select resolves sel against files.
func Select(files []string, sel Selection) (string, error) {
	switch {
	case sel.Name != "":
		for _, f := range files {
			if f == sel.Name || strings.TrimSuffix(f, filepath.Ext(f)) == sel.Name {
				return f, nil
			}
		}
		return "", fmt.Errorf("%w: no reference named %q", ErrInvalidSelection, sel.Name)
	case sel.Index != 0:
		if sel.Index < 1 || sel.Index > len(files) {
			return "", fmt.Errorf("%w: enter a number between 1 and %d", ErrInvalidSelection, len(files))
		}
		return files[sel.Index-1], nil
	case len(files) == 1:
		return files[0], nil
	default:
		return "", fmt.Errorf("%w: %d references available, choose one", ErrInvalidSelection, len(files))
	}
}

// Reference loads the selected open-ear reference impedance, masked to the
// frequency range. Its axis is the canonical axis of every later stage.
func (r *Repository) Reference(sel Selection) (goocclusion.Series, string, error) {
	files, err := r.ReferenceFiles()
	if err != nil {
		return goocclusion.Series{}, "", err
	}
	name, err := Select(files, sel)
	if err != nil {
		return goocclusion.Series{}, "", err
	}
	s, err := ReadFrequencyFile(filepath.Join(r.Root, referenceDir, name))
	if err != nil {
		return goocclusion.Series{}, "", err
	}
	s = s.Mask(r.FreqRange[0], r.FreqRange[1])
	if s.Len() == 0 {
		return goocclusion.Series{}, "", fmt.Errorf("reference %s: no samples in %v Hz", name, r.FreqRange)
	}
	r.logger().Info("reference selected", zap.String("file", name), zap.Int("bins", s.Len()))
	return s.Scale(complex(1/r.Area, 0)), name, nil
}

// Campaigns loads every measurement campaign onto axis. Files that cannot
// be read are skipped and their errors returned alongside the campaigns.
func (r *Repository) Campaigns(axis []float64) ([]models.Campaign, []error) {
	var (
		out  []models.Campaign
		errs []error
	)
	r.walk(measurementsDir, func(name, dir string, style goocclusion.Style, files []string) {
		c := models.Campaign{Name: name, Style: style}
		for _, file := range files {
			z, err := r.load(filepath.Join(dir, file), axis)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			c.Samples = append(c.Samples, models.Sample{
				Label:     strings.TrimSuffix(file, filepath.Ext(file)),
				Impedance: z.Scale(complex(1/r.Area, 0)),
			})
		}
		out = append(out, c)
	})
	return out, errs
}

// OcclusionDatasets loads the published occlusion curves onto axis. A
// dataset needs one file with "mean" and one with "std" in its name.
func (r *Repository) OcclusionDatasets(axis []float64) ([]models.OcclusionDataset, []error) {
	var (
		out  []models.OcclusionDataset
		errs []error
	)
	r.walk(occlusionDir, func(name, dir string, style goocclusion.Style, files []string) {
		d := models.OcclusionDataset{Name: name, Style: style}
		var hasMean, hasStd bool
		for _, file := range files {
			base := strings.TrimSuffix(file, filepath.Ext(file))
			var target *goocclusion.Series
			switch {
			case strings.Contains(base, "mean"):
				target, hasMean = &d.Mean, true
			case strings.Contains(base, "std"):
				target, hasStd = &d.Std, true
			default:
				continue
			}
			s, err := r.load(filepath.Join(dir, file), axis)
			if err != nil {
				errs = append(errs, err)
				if target == &d.Mean {
					hasMean = false
				} else {
					hasStd = false
				}
				continue
			}
			*target = s
		}
		if !hasMean || !hasStd {
			err := fmt.Errorf("occlusion dataset %s: needs a mean and a std file", name)
			r.logger().Warn("skipping occlusion dataset", zap.Error(err))
			errs = append(errs, err)
			return
		}
		out = append(out, d)
	})
	return out, errs
}

// walk calls fn for every non-excluded subfolder of kind with its style and
// CSV files.
func (r *Repository) walk(kind string, fn func(name, dir string, style goocclusion.Style, files []string)) {
	root := filepath.Join(r.Root, kind)
	entries, err := os.ReadDir(root)
	if err != nil {
		r.logger().Warn("data folder not found, continuing without", zap.String("folder", root), zap.Error(err))
		return
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == excludedDir {
			continue
		}
		dir := filepath.Join(root, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			r.logger().Warn("cannot list folder", zap.String("folder", dir), zap.Error(err))
			continue
		}

		style, err := config.LoadStyle(filepath.Join(dir, styleFile))
		if err != nil {
			r.logger().Warn("error reading config, using default style", zap.String("folder", dir), zap.Error(err))
		}
		var csvs []string
		for _, f := range files {
			if !f.IsDir() && strings.EqualFold(filepath.Ext(f.Name()), ".csv") {
				csvs = append(csvs, f.Name())
			}
		}
		fn(e.Name(), dir, style, csvs)
	}
}

// load reads path, masks it to the frequency range and resamples it onto
// axis when the frequencies differ.
func (r *Repository) load(path string, axis []float64) (goocclusion.Series, error) {
	s, err := ReadFrequencyFile(path)
	if err != nil {
		r.logger().Error("couldn't read file", zap.String("file", path), zap.Error(err))
		return goocclusion.Series{}, err
	}
	s = s.Mask(r.FreqRange[0], r.FreqRange[1])
	if !floats.Equal(s.Frequencies(), axis) {
		r.logger().Warn("frequencies differ from reference, interpolating", zap.String("file", path))
		if s, err = s.Resample(axis); err != nil {
			err = fmt.Errorf("%s: %w", path, err)
			r.logger().Error("couldn't resample file", zap.Error(err))
			return goocclusion.Series{}, err
		}
	}
	r.logger().Debug("processed", zap.String("file", path), zap.Int("bins", s.Len()))
	return s, nil
}
