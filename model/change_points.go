package model

import "github.com/evergreen-ci/plateau/perf"

// ChangePoint is a detected shift in a single metric. Index is the first
// index of the new regime.
type ChangePoint struct {
	Metric string                `bson:"metric" json:"metric" yaml:"metric"`
	Index  int                   `bson:"index" json:"index" yaml:"index"`
	Time   int64                 `bson:"time" json:"time" yaml:"time"`
	Stats  perf.ComparativeStats `bson:"stats" json:"stats" yaml:"stats"`
}

func (cp ChangePoint) ForwardChangePercent() float64  { return cp.Stats.ForwardRelChange() * 100 }
func (cp ChangePoint) BackwardChangePercent() float64 { return cp.Stats.BackwardRelChange() * 100 }
func (cp ChangePoint) Magnitude() float64             { return cp.Stats.ChangeMagnitude() }

// ChangePointGroup holds the change points of all metrics that shifted
// at the same index.
type ChangePointGroup struct {
	Index          int               `bson:"index" json:"index" yaml:"index"`
	Time           int64             `bson:"time" json:"time" yaml:"time"`
	PrevTime       int64             `bson:"prev_time" json:"prev_time" yaml:"prev_time"`
	Attributes     map[string]string `bson:"attributes" json:"attributes" yaml:"attributes"`
	PrevAttributes map[string]string `bson:"prev_attributes" json:"prev_attributes" yaml:"prev_attributes"`
	Changes        []ChangePoint     `bson:"changes" json:"changes" yaml:"changes"`
}

func (g ChangePointGroup) copy() ChangePointGroup {
	out := g
	out.Changes = append([]ChangePoint{}, g.Changes...)
	out.Attributes = make(map[string]string, len(g.Attributes))
	for k, v := range g.Attributes {
		out.Attributes[k] = v
	}
	out.PrevAttributes = make(map[string]string, len(g.PrevAttributes))
	for k, v := range g.PrevAttributes {
		out.PrevAttributes[k] = v
	}
	return out
}
