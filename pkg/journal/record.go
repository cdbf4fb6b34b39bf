package journal

import (
	"github.com/google/uuid"

	"mercator-hq/peersync/pkg/reconciler"
)

// FromResult builds the journal record for a finished cycle. The candidate
// document is compressed and attached when withDocument is true.
func FromResult(res *reconciler.Result, withDocument bool) *Record {
	rec := &Record{
		ID:              uuid.New().String(),
		CycleID:         res.ID,
		StartedAt:       res.StartedAt,
		FinishedAt:      res.StartedAt.Add(res.Duration),
		Outcome:         string(res.Outcome),
		ErrorKind:       string(res.Kind),
		Network:         res.Network,
		SelfName:        res.SelfName,
		Peers:           append([]string{}, res.Peers...),
		Skipped:         append([]string(nil), res.Skipped...),
		CandidateDigest: res.CandidateDigest,
		PreviousDigest:  res.PreviousDigest,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if withDocument {
		rec.Document = CompressDocument(res.Document)
	}
	return rec
}
