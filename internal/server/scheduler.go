package server

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/harvester/internal/reducer"
	"github.com/ternarybob/harvester/internal/session"
)

// Scheduler periodically dispatches ArchiveClicked against a Session, the
// cron-driven equivalent of a user clicking Archive, matching the
// original project's robfig/cron-backed scheduler service.
type Scheduler struct {
	cron    *cron.Cron
	session *session.Session
	logger  arbor.ILogger
}

func NewScheduler(sess *session.Session, logger arbor.ILogger) *Scheduler {
	return &Scheduler{cron: cron.New(), session: sess, logger: logger}
}

// Start registers the periodic export job and starts the cron runner.
// cronSpec follows the standard five-field robfig/cron syntax.
func (sc *Scheduler) Start(cronSpec string) error {
	_, err := sc.cron.AddFunc(cronSpec, func() {
		sc.logger.Info().Msg("scheduled archive export triggered")
		sc.session.Dispatch(reducer.ArchiveClicked())
	})
	if err != nil {
		return fmt.Errorf("invalid schedule cron spec %q: %w", cronSpec, err)
	}
	sc.cron.Start()
	return nil
}

func (sc *Scheduler) Stop() {
	ctx := sc.cron.Stop()
	<-ctx.Done()
}
