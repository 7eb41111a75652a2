package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"HedgeRatio/internal/config"
	"HedgeRatio/internal/hedge"
	"HedgeRatio/internal/model"
	"HedgeRatio/internal/notifier"
	"HedgeRatio/internal/recorder"
)

// Calculator runs one hedge calculation.
type Calculator interface {
	Calculate(ctx context.Context, req hedge.Request) (*model.HedgeResult, error)
}

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler recomputes the watchlist on a cron schedule and answers commands.
type Scheduler struct {
	Cron         *cron.Cron
	Calculator   Calculator
	Notifier     Sender
	Recorder     recorder.Recorder
	Pairs        []config.WatchPair
	LookbackDays int
	Ctx          context.Context
	Now          func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, calc Calculator, n Sender, rec recorder.Recorder, pairs []config.WatchPair, lookbackDays int) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger{}))),
		Calculator:   calc,
		Notifier:     n,
		Recorder:     rec,
		Pairs:        pairs,
		LookbackDays: lookbackDays,
		Ctx:          ctx,
		Now:          time.Now,
	}
}

// Register adds the watchlist job.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RunWatchNow); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("pairs", len(s.Pairs)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunWatchNow recomputes every watched pair and sends one message per pair.
func (s *Scheduler) RunWatchNow() {
	log.Info().Int("pairs", len(s.Pairs)).Msg("running watch task")
	for _, p := range s.Pairs {
		req := s.request(p.Spot, p.Futures, s.LookbackDays)
		req.Contract = model.ContractInputs{
			PositionValue: p.PositionValue,
			FuturesPrice:  p.FuturesPrice,
			ContractSize:  p.ContractSize,
		}
		s.trySend(s.calculate(req))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return usage
	}
	switch fields[0] {
	case "/hedge":
		if len(fields) < 3 {
			return "Usage: /hedge SPOT FUTURES [days]"
		}
		days := s.LookbackDays
		if len(fields) > 3 {
			d, err := strconv.Atoi(fields[3])
			if err != nil || d < 2 {
				return "days must be a whole number of at least 2"
			}
			days = d
		}
		return s.calculateCtx(ctx, s.request(fields[1], fields[2], days))
	case "/watch":
		s.RunWatchNow()
		return ""
	case "/history":
		runs, err := s.Recorder.RecentRuns(10)
		if err != nil {
			log.Error().Err(err).Msg("load history")
			return "History is unavailable right now."
		}
		return notifier.FormatHistory(runs)
	default:
		return usage
	}
}

const usage = "Available commands:\n• /hedge SPOT FUTURES [days]\n• /watch\n• /history"

func (s *Scheduler) request(spot, futures string, days int) hedge.Request {
	end := s.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	return hedge.Request{
		SpotSymbol:    spot,
		FuturesSymbol: futures,
		Start:         end.AddDate(0, 0, -days),
		End:           end,
	}
}

func (s *Scheduler) calculate(req hedge.Request) string {
	return s.calculateCtx(s.Ctx, req)
}

func (s *Scheduler) calculateCtx(ctx context.Context, req hedge.Request) string {
	res, err := s.Calculator.Calculate(ctx, req)
	if err != nil {
		return notifier.FormatError(req.SpotSymbol, req.FuturesSymbol, hedge.UserMessage(err))
	}
	return notifier.FormatHedgeReport(res)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

// cronLogger routes cron's own logging, including recovered job panics, to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
