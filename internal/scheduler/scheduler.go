package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"tradewise/internal/calculator"
	"tradewise/internal/notifier"
	"tradewise/internal/store"

	"github.com/robfig/cron/v3"
)

// Jobs is the batch work run on every tick.
type Jobs interface {
	RunAll(ctx context.Context) error
}

// PriceSource returns the current price of a symbol.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// ErrBusy is returned when a run is requested while another is in progress.
var ErrBusy = errors.New("a run is already in progress")

// Scheduler manages the daily cron task and chat commands.
type Scheduler struct {
	Cron   *cron.Cron
	Jobs   Jobs
	Runs   store.RunRecorder
	LTH    store.LTHStore
	Prices PriceSource
	Ctx    context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler. A panicking task is logged and the
// daemon keeps running. runs, lth and prices may be nil; the matching
// commands then report that they are unavailable.
func NewScheduler(ctx context.Context, jobs Jobs, runs store.RunRecorder, lth store.LTHStore, prices PriceSource) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		Jobs:   jobs,
		Runs:   runs,
		LTH:    lth,
		Prices: prices,
		Ctx:    ctx,
	}
}

// Register adds the daily batch task.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the batch jobs immediately (manual trigger / RUN_ON_START).
// A panic in the jobs is returned as an error.
func (s *Scheduler) RunNow() (err error) {
	if !s.running.TryLock() {
		return ErrBusy
	}
	defer s.running.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch run panicked: %v", r)
		}
	}()
	return s.Jobs.RunAll(s.Ctx)
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily batch")
	if err := s.RunNow(); err != nil {
		log.Printf("[ERROR] daily batch: %v", err)
	}
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string, args []string) string {
	switch command {
	case "run":
		go s.dailyTask()
		return "Batch run started."
	case "runs":
		if s.Runs == nil {
			return "Run log unavailable."
		}
		runs, err := s.Runs.ListRuns(ctx, 10)
		if err != nil {
			log.Printf("[ERROR] list runs: %v", err)
			return "Failed to read the run log."
		}
		return notifier.FormatRuns(runs)
	case "lth":
		return s.lthReply(ctx, args)
	default:
		return "Commands:\n• /run start a batch run\n• /runs recent runs\n• /lth SYMBOL life-time high"
	}
}

func (s *Scheduler) lthReply(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /lth SYMBOL"
	}
	if s.LTH == nil {
		return "LTH store unavailable."
	}
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	rec, err := s.LTH.GetLTH(ctx, symbol)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("No life-time high recorded for %s.", symbol)
	}
	if err != nil {
		log.Printf("[ERROR] get lth %s: %v", symbol, err)
		return "Failed to read the LTH store."
	}

	var current, distance float64
	var ok bool
	if s.Prices != nil {
		if p, err := s.Prices.Price(ctx, symbol); err == nil {
			high, _ := rec.Price.Float64()
			current = p
			distance, ok = calculator.DistanceFromLTH(p, high)
		} else {
			log.Printf("[WARN] current price %s: %v", symbol, err)
		}
	}
	return notifier.FormatLTH(rec, current, distance, ok)
}
