package audit

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the number of concurrent audits in [Auditor.AuditMany].
const DefaultWorkers = 8

// Request names one package audit.
type Request struct {
	ID           string `json:"id"`
	VersionRange string `json:"range"`
}

// AuditMany audits every request with at most workers concurrent audits and
// returns the reports in request order. Audits share the Auditor's cache
// but are otherwise independent. The first contract violation or
// cancellation aborts the batch.
func (a *Auditor) AuditMany(ctx context.Context, reqs []Request, s Settings, workers int) ([]*Report, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	reports := make([]*Report, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, req := range reqs {
		g.Go(func() error {
			r, err := a.Audit(ctx, req.ID, req.VersionRange, s)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
