package scheduler

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"TrendLens/internal/alert"
	"TrendLens/internal/model"
	"TrendLens/internal/notifier"
	"TrendLens/internal/recorder"
	"TrendLens/internal/strategy"
)

// Analyzer produces an analysis for one symbol.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (*model.Analysis, error)
}

// Notifier delivers formatted messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

const sendRetries = 3

// Scheduler runs the watchlist analysis on a cron schedule and answers bot commands.
type Scheduler struct {
	Cron        *cron.Cron
	Analyzer    Analyzer
	Notifier    Notifier
	Recorder    recorder.Recorder
	Alerts      *alert.Tracker
	Watchlist   []string
	Concurrency int
	Log         *zap.Logger
	Ctx         context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, an Analyzer, n Notifier, rec recorder.Recorder, alerts *alert.Tracker,
	watchlist []string, concurrency int, logger *zap.Logger) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Analyzer:    an,
		Notifier:    n,
		Recorder:    rec,
		Alerts:      alerts,
		Watchlist:   watchlist,
		Concurrency: concurrency,
		Log:         logger,
		Ctx:         ctx,
	}
}

// Register adds the watchlist analysis task.
func (s *Scheduler) Register(analysisCron string) error {
	if _, err := s.Cron.AddFunc(analysisCron, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", zap.Strings("watchlist", s.Watchlist))
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunNow executes the analysis task immediately.
func (s *Scheduler) RunNow() {
	s.analysisTask()
}

type symbolResult struct {
	idx      int
	symbol   string
	analysis *model.Analysis
	err      error
}

// RunWatchlist analyzes every watched symbol in parallel. Results keep the
// watchlist order; failed symbols are returned by name.
func (s *Scheduler) RunWatchlist(ctx context.Context) ([]*model.Analysis, []string) {
	p := pool.NewWithResults[symbolResult]().WithMaxGoroutines(s.Concurrency)
	for i, sym := range s.Watchlist {
		p.Go(func() symbolResult {
			a, err := s.analyzeAndRecord(ctx, sym)
			return symbolResult{idx: i, symbol: sym, analysis: a, err: err}
		})
	}
	results := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].idx < results[j].idx })

	var (
		analyses []*model.Analysis
		failed   []string
	)
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, r.symbol)
			continue
		}
		analyses = append(analyses, r.analysis)
	}
	return analyses, failed
}

func (s *Scheduler) analyzeAndRecord(ctx context.Context, symbol string) (*model.Analysis, error) {
	a, err := s.Analyzer.Analyze(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordSnapshot(ctx, a); err != nil {
		s.Log.Error("record snapshot", zap.String("symbol", a.Symbol), zap.Error(err))
	}
	return a, nil
}

func (s *Scheduler) analysisTask() {
	s.Log.Info("running watchlist analysis", zap.Int("symbols", len(s.Watchlist)))
	analyses, failed := s.RunWatchlist(s.Ctx)
	if len(failed) > 0 {
		s.Log.Warn("symbols failed", zap.Strings("symbols", failed))
	}
	s.trySend(notifier.FormatDigest(analyses, failed))

	if s.Alerts == nil {
		return
	}
	var changes []alert.Change
	for _, a := range analyses {
		c, err := s.Alerts.Observe(a)
		if err != nil {
			s.Log.Error("update alert state", zap.String("symbol", a.Symbol), zap.Error(err))
		}
		changes = append(changes, c...)
	}
	if len(changes) > 0 {
		s.trySend(notifier.FormatAlerts(changes))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.Watchlist)
	}
	// "/analyze@SomeBot AAPL" in group chats
	name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch name {
	case "/analyze":
		if len(args) != 1 {
			return "Usage: /analyze SYMBOL"
		}
		a, err := s.analyzeAndRecord(ctx, args[0])
		if err != nil {
			return fmt.Sprintf("❌ analysis of %s failed: %s", html.EscapeString(strings.ToUpper(args[0])), html.EscapeString(err.Error()))
		}
		return notifier.FormatAnalysisReport(a, strategy.Advise(a))
	case "/watchlist":
		analyses, failed := s.RunWatchlist(ctx)
		return notifier.FormatDigest(analyses, failed)
	case "/history":
		if len(args) != 1 {
			return "Usage: /history SYMBOL"
		}
		symbol := strings.ToUpper(args[0])
		snaps, err := s.Recorder.Recent(ctx, symbol, 5)
		if err != nil {
			return fmt.Sprintf("❌ history of %s unavailable: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
		}
		return notifier.FormatHistory(symbol, snaps)
	default:
		return notifier.FormatHelp(s.Watchlist)
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.Log.Error("send notification", zap.Error(err))
	}
}
