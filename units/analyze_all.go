package units

import (
	"context"
	"time"

	"github.com/mongodb/amboy"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"

	"github.com/evergreen-ci/plateau/model"
)

// AnalyzeAll analyzes every series in parallel on the queue, which must
// be started, and returns the results keyed by test name. The results
// of the analyses that succeeded are returned alongside the aggregated
// errors of those that failed.
func AnalyzeAll(ctx context.Context, q amboy.Queue, series []*model.Series, opts model.AnalysisOptions) (map[string]*model.AnalyzedSeries, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	catcher := grip.NewBasicCatcher()
	seen := map[string]bool{}
	for _, s := range series {
		catcher.ErrorfWhen(seen[s.TestName()], "duplicate test '%s'", s.TestName())
		seen[s.TestName()] = true
	}
	if catcher.HasErrors() {
		return nil, catcher.Resolve()
	}

	startAt := time.Now()
	jobs := make([]*AnalyzeSeriesJob, 0, len(series))
	for _, s := range series {
		j := NewAnalyzeSeriesJob(s, opts)
		if err := q.Put(ctx, j); err != nil {
			return nil, errors.Wrapf(err, "problem queueing analysis of test '%s'", s.TestName())
		}
		jobs = append(jobs, j)
	}

	amboy.WaitInterval(ctx, q, 10*time.Millisecond)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "problem waiting for analyses")
	}
	for _, j := range jobs {
		catcher.ErrorfWhen(!j.Status().Completed, "analysis of test '%s' did not complete", j.TestName)
	}
	if catcher.HasErrors() {
		return nil, catcher.Resolve()
	}

	out := make(map[string]*model.AnalyzedSeries, len(jobs))
	for _, j := range jobs {
		if err := j.Error(); err != nil {
			catcher.Add(err)
			continue
		}
		out[j.TestName] = j.Result()
	}

	grip.Info(message.Fields{
		"message":       "analyzed series",
		"tests":         len(jobs),
		"failed":        len(jobs) - len(out),
		"duration_secs": time.Since(startAt).Seconds(),
	})

	return out, catcher.Resolve()
}
