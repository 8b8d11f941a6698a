package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/synod-io/synod/internal/agent/experts"
	"github.com/synod-io/synod/internal/logging"
	"github.com/synod-io/synod/internal/models"
)

// runParallel fans one shared input out to all experts, each against
// its own private copy and its own timeout. A failing expert becomes an
// error marker in its slot instead of cancelling siblings, and the call
// returns only when every expert finished.
//
// Results are slotted by the experts' declaration order, so completion
// order never influences the output.
func runParallel(ctx context.Context, panel []*experts.Expert, input *models.ExpertInput, timeout time.Duration, o *Orchestrator) ([]models.ExpertDiagnosis, []models.ErrorMarker) {
	type slot struct {
		diagnosis *models.ExpertDiagnosis
		marker    *models.ErrorMarker
	}
	slots := make([]slot, len(panel))

	var g errgroup.Group
	g.SetLimit(len(panel))

	for i, expert := range panel {
		i, expert := i, expert
		g.Go(func() error {
			runCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			o.audit.LogExpertStart(expert.Name())

			diagnosis, err := expert.Run(runCtx, input.Clone())
			elapsed := time.Since(start)
			if err != nil {
				o.logger.WarnWithFields("expert failed",
					logging.Field("expert", expert.Name()),
					logging.Field("error", err.Error()))
				o.audit.LogExpertComplete(expert.Name(), false, elapsed, err.Error())
				slots[i] = slot{marker: &models.ErrorMarker{
					ExpertName: expert.Name(),
					Error:      err.Error(),
				}}
				return nil
			}

			o.audit.LogExpertComplete(expert.Name(), true, elapsed, diagnosis.RootCause)
			slots[i] = slot{diagnosis: diagnosis}
			return nil
		})
	}
	// Workers never return errors; the group is a barrier.
	_ = g.Wait()

	var diagnoses []models.ExpertDiagnosis
	var markers []models.ErrorMarker
	for _, s := range slots {
		switch {
		case s.diagnosis != nil:
			diagnoses = append(diagnoses, *s.diagnosis)
		case s.marker != nil:
			markers = append(markers, *s.marker)
		}
	}
	return diagnoses, markers
}
