package main

import (
	"encoding/csv"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	ten      = 10
	hundred  = ten * ten
	thousand = ten * hundred

	// things that really should be command line args
	outputFn    = "points.csv"
	totalPoints = thousand
	stepEvery   = 2 * hundred
	stepFactor  = 1.1
	noise       = 0.02
	seed        = 42
)

// generate writes a history of throughput and latency observations that
// shift by stepFactor every stepEvery points, with uniform noise on top.
func generate(w io.Writer, rng *rand.Rand, start time.Time, total int) error {
	out := csv.NewWriter(w)
	if err := out.Write([]string{"time", "version", "throughput", "latency"}); err != nil {
		return errors.WithStack(err)
	}

	throughput, latency := 1000.0, 10.0
	ts := start
	for i := 0; i < total; i++ {
		if i > 0 && i%stepEvery == 0 {
			// alternate regressions and improvements
			if (i/stepEvery)%2 == 1 {
				throughput /= stepFactor
				latency *= stepFactor
			} else {
				throughput *= stepFactor
				latency /= stepFactor
			}
		}
		ts = ts.Add(time.Hour)

		record := []string{
			strconv.FormatInt(ts.Unix(), 10),
			"v" + strconv.Itoa(i),
			strconv.FormatFloat(throughput*(1+noise*(2*rng.Float64()-1)), 'f', 3, 64),
			strconv.FormatFloat(latency*(1+noise*(2*rng.Float64()-1)), 'f', 3, 64),
		}
		if err := out.Write(record); err != nil {
			return errors.WithStack(err)
		}
	}

	out.Flush()
	return errors.WithStack(out.Error())
}

func main() {
	startAt := time.Now()
	file, err := os.Create(outputFn)
	grip.EmergencyFatal(err)
	defer func() { grip.EmergencyFatal(file.Close()) }()

	rng := rand.New(rand.NewSource(seed))
	grip.EmergencyFatal(generate(file, rng, startAt.Add(-totalPoints*time.Hour), totalPoints))

	grip.Info(message.Fields{
		"message":  "generated points",
		"file":     outputFn,
		"points":   totalPoints,
		"steps":    (totalPoints - 1) / stepEvery,
		"dur_secs": time.Since(startAt).Seconds(),
	})
}
