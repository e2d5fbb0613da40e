package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nijsci/labcatalog/internal/media"
)

// MediaSweepAge is how old an unreferenced local file must be before the
// sweep removes it.
const MediaSweepAge = 24 * time.Hour

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// JobInfo describes a scheduled background job.
type JobInfo struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev"`
}

type jobEntry struct {
	name string
	spec string
}

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))
	a.jobs = make(map[cron.EntryID]jobEntry)

	if a.appConfig.Media.SweepEnable {
		a.addJob("media-sweep", "@daily", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if _, err := a.SweepMedia(ctx); err != nil {
				zap.L().Error("media sweep failed", zap.Error(err))
			}
		})
	}

	a.addJob("catalog-stats", "@every 1h", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		a.logCatalogStats(ctx)
	})
}

func (a *Application) addJob(name, spec string, fn func()) {
	id, err := a.sched.AddFunc(spec, fn)
	if err != nil {
		zap.S().Errorf("init job %s error %s", name, err.Error())
		return
	}
	a.jobs[id] = jobEntry{name: name, spec: spec}
}

// Jobs lists the registered background jobs with their next run time.
func (a *Application) Jobs() []JobInfo {
	if a.sched == nil {
		return []JobInfo{}
	}
	entries := a.sched.Entries()
	out := make([]JobInfo, 0, len(entries))
	for _, e := range entries {
		j := a.jobs[e.ID]
		out = append(out, JobInfo{Name: j.name, Spec: j.spec, Next: e.Next, Prev: e.Prev})
	}
	return out
}

// StartBackgroundJobs runs the scheduler until ctx is done.
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	if a.sched == nil {
		return
	}
	a.sched.Start()
	go func() {
		<-ctx.Done()
		<-a.sched.Stop().Done()
	}()
}

// SweepMedia deletes local media files no entity references. Only the local
// backend is swept.
func (a *Application) SweepMedia(ctx context.Context) (int, error) {
	local, ok := a.store.(*media.LocalStore)
	if !ok {
		return 0, nil
	}
	refs, err := a.repos.MediaURLs(ctx)
	if err != nil {
		return 0, err
	}
	n, err := local.Sweep(ctx, refs, MediaSweepAge)
	if n > 0 {
		zap.L().Info("media sweep removed orphan files", zap.Int("count", n), zap.String("dir", local.Dir()))
	}
	return n, err
}

// logCatalogStats logs entity counts with host and process load. A count
// that fails is reported on its own line and left out.
func (a *Application) logCatalogStats(ctx context.Context) {
	counters := []struct {
		name  string
		count func(context.Context) (int64, error)
	}{
		{"products", a.repos.Products.Count},
		{"categories", a.repos.Categories.Count},
		{"reviews", a.repos.Reviews.Count},
	}
	fields := make([]zap.Field, 0, len(counters)+5)
	for _, ct := range counters {
		n, err := ct.count(ctx)
		if err != nil {
			zap.L().Warn("catalog stats count failed", zap.String("entity", ct.name), zap.Error(err))
			continue
		}
		fields = append(fields, zap.Int64(ct.name, n))
	}

	st := CollectSystemStats()
	fields = append(fields,
		zap.Float64("cpu_percent", st.CPUPercent),
		zap.Float64("mem_percent", st.MemPercent),
		zap.Uint64("mem_used_mb", st.MemUsedMB),
		zap.Float64("proc_cpu_percent", st.ProcCPU),
		zap.Uint64("proc_rss_mb", st.ProcMemRSSMB))
	zap.L().Info("catalog stats", fields...)
}
