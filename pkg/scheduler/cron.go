package scheduler

import (
	"AapdaMitra/pkg/logger"
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job interface{ Run(ctx context.Context) }

type FuncJob func(ctx context.Context)

func (f FuncJob) Run(ctx context.Context) { f(ctx) }

// Cron runs jobs on cron expressions. Jobs receive the context passed to
// Run, so a stopping server cancels them too.
type Cron struct {
	c   *cron.Cron
	loc *time.Location
	ctx context.Context
}

func NewCron(loc *time.Location) *Cron {
	if loc == nil {
		loc = time.Local
	}
	cl := cron.PrintfLogger(zap.NewStdLog(logger.Lg()))
	c := cron.New(cron.WithLocation(loc), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	return &Cron{c: c, loc: loc, ctx: context.Background()}
}

func (cr *Cron) Start() { cr.c.Start() }
func (cr *Cron) Stop()  { ctx := cr.c.Stop(); <-ctx.Done() }

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (cr *Cron) Run(ctx context.Context) error {
	cr.ctx = ctx
	cr.Start()
	<-ctx.Done()
	cr.Stop()
	return nil
}

func (cr *Cron) Add(expr string, job Job) (cron.EntryID, error) {
	return cr.c.AddFunc(expr, func() { job.Run(cr.ctx) })
}

func (cr *Cron) AddWithCtx(expr string, fn func(ctx context.Context)) (cron.EntryID, error) {
	return cr.Add(expr, FuncJob(fn))
}

func (cr *Cron) Entries() []cron.Entry { return cr.c.Entries() }
