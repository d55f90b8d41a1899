// Package report runs every derived view over one store and collects the
// results, the failures and the narrative commentary of a single run.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/KaramelBytes/malstat/internal/aggregate"
	"github.com/KaramelBytes/malstat/internal/analysis"
	"github.com/KaramelBytes/malstat/internal/dataset"
	"github.com/KaramelBytes/malstat/internal/geo"
	"github.com/KaramelBytes/malstat/internal/logger"
	"github.com/KaramelBytes/malstat/internal/metrics"
	"github.com/KaramelBytes/malstat/internal/pivot"
	"github.com/KaramelBytes/malstat/internal/regress"
	"github.com/KaramelBytes/malstat/internal/snapshot"
	"github.com/KaramelBytes/malstat/internal/trend"
	"github.com/google/uuid"
)

// View names used in problems, metrics and logs.
const (
	ViewProfile    = "profile"
	ViewSummary    = "summary"
	ViewSnapshot   = "snapshot"
	ViewGender     = "gender"
	ViewGeo        = "geo"
	ViewTrend      = "trend"
	ViewRegression = "regression"
)

// Options configures a run.
type Options struct {
	Sex       dataset.Sex
	TopN      int
	Trend     trend.Options
	Covariate dataset.Covariate
	Level     float64
	Profile   analysis.Options
	// Basemap is optional; without it the geo view is skipped.
	Basemap *geo.Basemap
	NameMap *geo.NameMap
	Metrics *metrics.Manager
	Logger  logger.Logger
}

// DefaultOptions returns the settings of a plain `malstat report` run.
func DefaultOptions() Options {
	return Options{
		Sex:       dataset.Total,
		TopN:      10,
		Trend:     trend.Options{MinPeriods: trend.DefaultMinPeriods},
		Covariate: dataset.GDPPerCapita,
		Level:     regress.DefaultLevel,
		Profile:   analysis.DefaultOptions(),
	}
}

// Problem records a view that could not be built.
type Problem struct {
	View string
	Err  error
}

func (p Problem) Error() string { return fmt.Sprintf("%s: %v", p.View, p.Err) }

// Unwrap exposes the view error to errors.Is.
func (p Problem) Unwrap() error { return p.Err }

// Report holds every derived view of one run. Nil fields mean the view was
// skipped or failed; see Problems.
type Report struct {
	RunID     string
	Generated time.Time
	Source    string
	Sex       dataset.Sex
	TopN      int
	Covariate dataset.Covariate

	Profile    *analysis.Profile
	Ranked     []aggregate.Row
	Snapshot   []dataset.Observation
	Gender     []pivot.Row
	Geo        *geo.Result
	Dangling   []string
	Trend      *trend.Result
	Regression *regress.Result

	Commentary []string
	Problems   []Problem
	Notes      []string
}

// Problem returns the recorded failure of a view, if any.
func (r *Report) Problem(view string) (Problem, bool) {
	for _, p := range r.Problems {
		if p.View == view {
			return p, true
		}
	}
	return Problem{}, false
}

// Build runs the views in dependency order. A failing view is recorded and
// the rest still run; only a nil store or a cancelled context is an error.
func Build(ctx context.Context, s *dataset.Store, opt Options) (*Report, error) {
	if s == nil {
		return nil, fmt.Errorf("build report: nil store")
	}
	if opt.Sex == "" {
		opt.Sex = dataset.Total
	}
	if opt.Covariate == "" {
		opt.Covariate = dataset.GDPPerCapita
	}
	log := opt.Logger
	if log == nil {
		log = logger.Named("report")
	}
	b := &builder{ctx: ctx, log: log, m: opt.Metrics}
	r := &Report{
		RunID:     uuid.NewString(),
		Generated: time.Now(),
		Source:    s.Name(),
		Sex:       opt.Sex,
		TopN:      opt.TopN,
		Covariate: opt.Covariate,
		Notes:     s.Warnings(),
	}
	b.r = r
	opt.Metrics.RecordLoad(s.Len(), s.Skipped())
	log.Info(ctx, "building report", logger.String("run_id", r.RunID), logger.String("source", r.Source), logger.Int("rows", s.Len()))

	obs := s.Observations()
	bySex := dataset.BySex(opt.Sex)

	if err := b.stage(ViewProfile, func() (int, error) {
		r.Profile = analysis.Analyze(s, opt.Profile)
		return len(r.Profile.Fields), nil
	}); err != nil {
		return nil, err
	}
	if err := b.stage(ViewSummary, func() (int, error) {
		r.Ranked = aggregate.Summarize(obs, bySex)
		return len(r.Ranked), nil
	}); err != nil {
		return nil, err
	}
	if err := b.stage(ViewSnapshot, func() (int, error) {
		r.Snapshot = snapshot.Latest(obs, bySex)
		return len(r.Snapshot), nil
	}); err != nil {
		return nil, err
	}
	if err := b.stage(ViewGender, func() (int, error) {
		r.Gender = pivot.GenderGap(obs)
		pivot.SortByAbsGap(r.Gender)
		return len(r.Gender), nil
	}); err != nil {
		return nil, err
	}
	if opt.Basemap != nil {
		if err := b.stage(ViewGeo, func() (int, error) {
			nm := opt.NameMap
			if nm == nil {
				nm = geo.DefaultNameMap()
			}
			r.Geo = geo.Join(opt.Basemap.Features, r.Snapshot, nm)
			r.Dangling = nm.Dangling(opt.Basemap.Names())
			r.Notes = append(r.Notes, opt.Basemap.Warnings...)
			for _, u := range r.Geo.Unmatched {
				log.Debug(ctx, "snapshot entity has no polygon", logger.String("entity", u))
			}
			opt.Metrics.RecordGeo(r.Geo.Matched, len(r.Geo.Rows))
			if len(r.Geo.Unmatched) > 0 {
				r.Notes = append(r.Notes, fmt.Errorf("%d countries have no polygon in the basemap: %w",
					len(r.Geo.Unmatched), dataset.ErrUnmatchedKey).Error())
			}
			return len(r.Geo.Rows), nil
		}); err != nil {
			return nil, err
		}
	} else {
		r.Notes = append(r.Notes, "no basemap configured; geo view skipped")
	}
	if err := b.stage(ViewTrend, func() (int, error) {
		res, err := trend.Select(obs, opt.Trend)
		if res != nil && len(res.Excluded) > 0 {
			r.Notes = append(r.Notes, fmt.Sprintf("trend: not enough periods for %v", res.Excluded))
		}
		if err != nil {
			return 0, err
		}
		r.Trend = res
		return len(res.Series), nil
	}); err != nil {
		return nil, err
	}
	if err := b.stage(ViewRegression, func() (int, error) {
		res, err := regress.Fit(regress.Points(r.Snapshot, opt.Covariate), opt.Level)
		if err != nil {
			return 0, err
		}
		r.Regression = res
		opt.Metrics.RecordRegression(res.R2)
		log.Debug(ctx, "regression fitted", logger.Float64("slope", res.Slope), logger.Float64("r2", res.R2), logger.Float64("p", res.PValue))
		return res.N, nil
	}); err != nil {
		return nil, err
	}

	r.Commentary = Commentary(r)
	opt.Metrics.MarkRun(r.Generated)
	log.Info(ctx, "report built", logger.Int("problems", len(r.Problems)))
	return r, nil
}

type builder struct {
	ctx context.Context
	log logger.Logger
	m   *metrics.Manager
	r   *Report
}

// stage runs one view. View errors become problems; only cancellation stops
// the run.
func (b *builder) stage(view string, fn func() (int, error)) error {
	if err := b.ctx.Err(); err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	start := time.Now()
	n, err := fn()
	b.m.ObserveStage(view, start)
	if err != nil {
		b.r.Problems = append(b.r.Problems, Problem{View: view, Err: err})
		b.m.RecordFailure(view)
		b.log.Warn(b.ctx, "view failed", logger.String("view", view), logger.Error(err))
		return nil
	}
	b.m.RecordView(view, n)
	b.log.Debug(b.ctx, "view built", logger.String("view", view), logger.Int("rows", n), logger.Any("elapsed", time.Since(start)))
	return nil
}
