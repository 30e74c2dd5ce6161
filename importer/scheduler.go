/*
scheduler.go - Periodic import of ATS exports dropped into a folder

PURPOSE:
  Polls a directory for .xlsx files and imports each one through the
  Importer. A file that imported is renamed to "<name>.imported" so it is
  never read twice, including across restarts. A file that could not be
  read at all is renamed to "<name>.failed".

DESIGN:
  - One background goroutine driven by a ticker
  - An fsnotify watch on Dir triggers a check once writes to a workbook
    have been quiet for Settle; polling continues if the watch fails
  - Runs once immediately on Start
  - Keeps the most recent runs in memory for GET /api/import/runs

USAGE:
  w := importer.NewScheduler(imp, dir, log)
  w.Start()
  // ... later
  w.Stop()

SEE ALSO:
  - importer.go: The per-file import
  - config/config.go: import.watch_dir, import.interval
*/
package importer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// maxRuns bounds the run history kept in memory.
const maxRuns = 50

// RunStatus is the outcome of one scheduled import.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run records one file import performed by the scheduler.
type Run struct {
	File        string
	StartedAt   time.Time
	CompletedAt time.Time
	Status      RunStatus
	Error       string
	Result      *Result
}

// Scheduler imports spreadsheets dropped into Dir.
type Scheduler struct {
	Importer      *Importer
	Dir           string
	CheckInterval time.Duration
	// Settle is how long a workbook must go without writes before a
	// filesystem event triggers a check.
	Settle time.Duration

	log    *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	runsMu sync.RWMutex
	runs   []Run
}

// NewScheduler creates a scheduler polling dir every minute.
func NewScheduler(imp *Importer, dir string, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		Importer:      imp,
		Dir:           dir,
		CheckInterval: time.Minute,
		Settle:        2 * time.Second,
		log:           log.Named("import-scheduler"),
	}
}

// Start begins polling. Calling Start twice has no effect.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.ticker.C, s.stop)

	s.log.Info("started", zap.String("dir", s.Dir), zap.Duration("interval", s.CheckInterval))
}

// Stop halts polling and waits for an in-flight import to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.log.Info("stopped")
}

func (s *Scheduler) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	events, unwatch := s.watch()
	defer unwatch()

	settle := time.NewTimer(s.Settle)
	settle.Stop()
	defer settle.Stop()

	s.RunNow(ctx)
	for {
		select {
		case <-tick:
			s.RunNow(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if isWorkbook(filepath.Base(ev.Name)) && ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				settle.Reset(s.Settle)
			}
		case <-settle.C:
			s.RunNow(ctx)
		case <-stop:
			return
		}
	}
}

// watch subscribes to changes in Dir. A nil channel means polling only.
func (s *Scheduler) watch() (<-chan fsnotify.Event, func()) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Warn("file watch unavailable, polling only", zap.Error(err))
		return nil, func() {}
	}
	if err := w.Add(s.Dir); err != nil {
		s.log.Warn("file watch unavailable, polling only", zap.String("dir", s.Dir), zap.Error(err))
		w.Close()
		return nil, func() {}
	}
	go func() {
		for err := range w.Errors {
			s.log.Warn("file watch error", zap.Error(err))
		}
	}()
	return w.Events, func() { w.Close() }
}

// RunNow imports every pending file in Dir and returns the runs it made.
func (s *Scheduler) RunNow(ctx context.Context) []Run {
	files, err := s.pending()
	if err != nil {
		s.log.Warn("list pending files", zap.Error(err))
		return nil
	}

	var done []Run
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		run := s.importFile(ctx, path)
		s.record(run)
		done = append(done, run)
	}
	return done
}

// Runs returns the recorded runs, newest first.
func (s *Scheduler) Runs() []Run {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()

	out := make([]Run, len(s.runs))
	for i, r := range s.runs {
		out[len(s.runs)-1-i] = r
	}
	return out
}

func (s *Scheduler) pending() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isWorkbook(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(s.Dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// isWorkbook skips Excel's "~$" lock files.
func isWorkbook(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx") && !strings.HasPrefix(name, "~$")
}

func (s *Scheduler) importFile(ctx context.Context, path string) Run {
	run := Run{File: filepath.Base(path), StartedAt: time.Now()}
	log := s.log.With(zap.String("file", run.File))

	res, err := s.open(ctx, path)
	run.CompletedAt = time.Now()
	suffix := ".imported"
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
		suffix = ".failed"
		log.Warn("import failed", zap.Error(err))
	} else {
		run.Status = RunCompleted
		run.Result = res
	}

	if ctx.Err() == nil {
		if err := os.Rename(path, path+suffix); err != nil {
			log.Error("rename imported file", zap.Error(err))
		}
	}
	return run
}

func (s *Scheduler) open(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.Importer.ImportReader(ctx, f)
}

func (s *Scheduler) record(run Run) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	s.runs = append(s.runs, run)
	if len(s.runs) > maxRuns {
		s.runs = s.runs[len(s.runs)-maxRuns:]
	}
}
