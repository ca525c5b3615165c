package futurecash

import (
	"context"
	"errors"
	"time"

	interf "github.com/glkeru/loyalty/futurecash/internal/interfaces"
	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var jobRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "futurecash_job_runs_total",
		Help: "Кол-во запусков периодических задач",
	},
	[]string{"job", "result"},
)

type JobFunc func(ctx context.Context, now time.Time) error

type job struct {
	name     string
	interval time.Duration
	daily    bool
	hour     int
	run      JobFunc
}

// Периодические задачи. Каждый запуск под блокировкой - один экземпляр на кластер.
type Runner struct {
	logger *zap.Logger
	locker interf.JobLocker
	ttl    time.Duration
	jobs   []job
	now    func() time.Time
}

func NewRunner(logger *zap.Logger, locker interf.JobLocker, ttl time.Duration) *Runner {
	return &Runner{logger: logger, locker: locker, ttl: ttl, now: time.Now}
}

// запуск с интервалом
func (r *Runner) Every(name string, interval time.Duration, fn JobFunc) {
	r.jobs = append(r.jobs, job{name: name, interval: interval, run: fn})
}

// запуск раз в сутки в hour:00 UTC
func (r *Runner) Daily(name string, hour int, fn JobFunc) {
	r.jobs = append(r.jobs, job{name: name, daily: true, hour: hour, run: fn})
}

func (r *Runner) find(name string) (job, bool) {
	for _, j := range r.jobs {
		if j.name == name {
			return j, true
		}
	}
	return job{}, false
}

// Один запуск задачи. Блокировка занята - ErrLocked, задача не выполняется.
func (r *Runner) RunJob(ctx context.Context, name string) error {
	j, ok := r.find(name)
	if !ok {
		return model.ErrNotFound
	}
	return r.run(ctx, j)
}

func (r *Runner) run(ctx context.Context, j job) error {
	unlock, err := r.locker.Lock(ctx, j.name, r.ttl)
	if err != nil {
		if errors.Is(err, model.ErrLocked) {
			jobRuns.WithLabelValues(j.name, "skipped").Inc()
			r.logger.Info("Job is running elsewhere, skipped", zap.String("job", j.name))
		} else {
			jobRuns.WithLabelValues(j.name, "error").Inc()
			r.logger.Error("Job lock", zap.String("job", j.name), zap.Error(err))
		}
		return err
	}
	defer func() {
		uerr := unlock(context.Background())
		if uerr != nil {
			r.logger.Error("Job unlock", zap.String("job", j.name), zap.Error(uerr))
		}
	}()

	start := r.now()
	err = j.run(ctx, start)
	if err != nil {
		jobRuns.WithLabelValues(j.name, "error").Inc()
		r.logger.Error("Job failed", zap.String("job", j.name), zap.Error(err))
		return err
	}
	jobRuns.WithLabelValues(j.name, "ok").Inc()
	r.logger.Info("Job is finished", zap.String("job", j.name), zap.Duration("duration", time.Since(start)))
	return nil
}

// Все задачи по одному разу (флаг -once)
func (r *Runner) RunAll(ctx context.Context) error {
	var errs []error
	for _, j := range r.jobs {
		err := r.run(ctx, j)
		if err != nil && !errors.Is(err, model.ErrLocked) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// следующий запуск суточной задачи
func nextDaily(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// Блокирует до отмены ctx
func (r *Runner) Start(ctx context.Context) {
	g := &errgroup.Group{}
	for _, j := range r.jobs {
		g.Go(func() error {
			r.loop(ctx, j)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) loop(ctx context.Context, j job) {
	for {
		var wait time.Duration
		if j.daily {
			wait = nextDaily(r.now(), j.hour).Sub(r.now())
		} else {
			wait = j.interval
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			_ = r.run(ctx, j)
		}
	}
}
