package units

import (
	"context"
	"fmt"

	"github.com/evergreen-ci/utility"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"

	"github.com/evergreen-ci/plateau/model"
)

const analyzeSeriesJobName = "analyze-series"

// AnalyzeSeriesJob computes the change points of one series.
type AnalyzeSeriesJob struct {
	*job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`
	TestName  string                `bson:"test_name" json:"test_name" yaml:"test_name"`
	Options   model.AnalysisOptions `bson:"options" json:"options" yaml:"options"`

	series *model.Series
	result *model.AnalyzedSeries
}

func init() {
	registry.AddJobType(analyzeSeriesJobName, func() amboy.Job { return makeAnalyzeSeriesJob() })
}

func makeAnalyzeSeriesJob() *AnalyzeSeriesJob {
	j := &AnalyzeSeriesJob{
		Base: &job.Base{
			JobType: amboy.JobType{
				Name:    analyzeSeriesJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

func NewAnalyzeSeriesJob(series *model.Series, opts model.AnalysisOptions) *AnalyzeSeriesJob {
	j := makeAnalyzeSeriesJob()
	j.SetID(fmt.Sprintf("%s.%s.%s", j.JobType.Name, series.TestName(), utility.RandomString()))
	j.TestName = series.TestName()
	j.Options = opts
	j.series = series
	return j
}

func (j *AnalyzeSeriesJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.series == nil {
		j.AddError(errors.Errorf("no series to analyze for test '%s'", j.TestName))
		return
	}

	analyzed, err := j.series.Analyze(j.Options)
	if err != nil {
		err = errors.Wrapf(err, "problem analyzing test '%s'", j.TestName)
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "analysis failed",
			"job":     j.ID(),
			"test":    j.TestName,
		}))
		j.AddError(err)
		return
	}

	j.result = analyzed
}

// Result returns the analyzed series once the job has completed
// without error.
func (j *AnalyzeSeriesJob) Result() *model.AnalyzedSeries { return j.result }
