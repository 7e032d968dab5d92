/*
scheduler.go - Delinquency sweep scheduler

PURPOSE:
  Periodically walks the active loan book and logs loans whose status
  has degraded to delinquent. Status itself is always derived on read,
  so the sweep never writes state; it exists so operators see overdue
  portfolios without polling the API.

DESIGN:
  - Runs on a cron expression (default: daily at 06:00)
  - Recomputes allocation and status for every non-renewed loan
  - Logs each delinquent loan with its pending balance

USAGE:
  sweep := NewDelinquencySweep(service, log, "0 6 * * *")
  sweep.Start()
  // ... later
  sweep.Stop()

SEE ALSO:
  - handlers.go: GetStatus endpoint (on-demand status)
  - credit/status.go: status derivation rules
*/
package api

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/warp/microcredit-engine/credit"
)

// DelinquencySweep runs a scheduled pass over the loan book.
type DelinquencySweep struct {
	Service *credit.Service
	Log     *logrus.Logger
	Spec    string

	cron *cron.Cron
}

// NewDelinquencySweep creates a sweep on the given cron spec.
// An empty spec falls back to a daily 06:00 run.
func NewDelinquencySweep(service *credit.Service, log *logrus.Logger, spec string) *DelinquencySweep {
	if spec == "" {
		spec = "0 6 * * *"
	}
	if log == nil {
		log = logrus.New()
	}
	return &DelinquencySweep{
		Service: service,
		Log:     log,
		Spec:    spec,
		cron:    cron.New(),
	}
}

// Start registers and launches the cron job.
func (ds *DelinquencySweep) Start() error {
	if _, err := ds.cron.AddFunc(ds.Spec, ds.runOnce); err != nil {
		return err
	}
	ds.cron.Start()
	ds.Log.WithField("spec", ds.Spec).Info("delinquency sweep started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (ds *DelinquencySweep) Stop() {
	ctx := ds.cron.Stop()
	<-ctx.Done()
	ds.Log.Info("delinquency sweep stopped")
}

func (ds *DelinquencySweep) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	loans, err := ds.Service.ListLoans(ctx)
	if err != nil {
		ds.Log.WithError(err).Error("delinquency sweep: listing loans failed")
		return
	}

	today := credit.Today()
	delinquent := 0
	for _, loan := range loans {
		if loan.Renewed {
			continue
		}
		result := credit.Allocate(loan)
		if credit.StatusWith(loan, result, today) != credit.StatusDelinquent {
			continue
		}
		delinquent++
		ds.Log.WithFields(logrus.Fields{
			"loan_id":         loan.ID,
			"client_id":       loan.ClientID,
			"pending_balance": credit.PendingBalance(loan, result).Float64(),
		}).Warn("loan is delinquent")
	}

	ds.Log.WithFields(logrus.Fields{
		"loans":      len(loans),
		"delinquent": delinquent,
	}).Info("delinquency sweep finished")
}
