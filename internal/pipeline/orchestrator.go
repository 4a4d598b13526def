// Package pipeline runs one record through classification, dispatch,
// normalization and commit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/logging"
	"github.com/aktagon/inbox-sorter/internal/processor"
	"github.com/aktagon/inbox-sorter/internal/store"
)

// Classifier labels a record without side effects.
type Classifier interface {
	Classify(rec content.SourceRecord) content.Label
}

// Dispatcher turns a labelled record into a well-formed result.
type Dispatcher interface {
	Dispatch(ctx context.Context, rec content.SourceRecord, label content.Label) processor.Result
}

// Normalizer maps processed content to destination properties.
type Normalizer interface {
	Normalize(label content.Label, pc content.ProcessedContent) content.Properties
}

// Options configures commit behaviour.
type Options struct {
	// PendingID is where a record is moved back to when its properties cannot be written.
	PendingID string
	// DestinationID is where committed records go.
	DestinationID string
	// WriteRetries is the number of extra property-write attempts.
	WriteRetries int
	// RetryDelay is the base backoff between attempts; it doubles each time.
	RetryDelay time.Duration
}

// Report describes the outcome of one run.
type Report struct {
	RunID      string
	RecordID   string
	Label      content.Label
	State      State
	Status     processor.Status
	Processor  string
	Properties content.Properties
	// Contained is the processor failure behind a degraded or unsupported result.
	Contained error
	Duration  time.Duration
}

// Orchestrator processes exactly one pending record per Run.
type Orchestrator struct {
	pending     store.Pending
	destination store.Destination
	classifier  Classifier
	dispatcher  Dispatcher
	normalizer  Normalizer
	opts        Options
	logger      logging.Logger
	sleep       func(time.Duration)
}

func New(
	pending store.Pending,
	destination store.Destination,
	classifier Classifier,
	dispatcher Dispatcher,
	normalizer Normalizer,
	opts Options,
	logger logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.WriteRetries < 0 {
		opts.WriteRetries = 0
	}
	return &Orchestrator{
		pending:     pending,
		destination: destination,
		classifier:  classifier,
		dispatcher:  dispatcher,
		normalizer:  normalizer,
		opts:        opts,
		logger:      logger,
		sleep:       time.Sleep,
	}
}

// Run fetches the next pending record and carries it to Committed. An empty
// store ends in Skipped with no error. Processor failures are contained and
// still committed; only store failures are returned, as *StageError.
func (o *Orchestrator) Run(ctx context.Context) (report Report, err error) {
	started := time.Now()
	report = Report{RunID: uuid.NewString(), State: StatePending}
	log := o.logger.With(logging.String("run_id", report.RunID))
	defer func() { report.Duration = time.Since(started) }()

	rec, err := o.pending.FetchNext(ctx)
	if err != nil {
		log.Error("✗ Failed to fetch pending record", logging.Err(err))
		return report, &StageError{Stage: StageFetch, Err: fmt.Errorf("%w: %w", ErrPendingStore, err)}
	}
	if rec == nil {
		o.advance(&report, StateSkipped)
		log.Info("No pending records")
		return report, nil
	}
	report.RecordID = rec.ID
	log = log.With(logging.String("record_id", rec.ID))

	report.Label = o.classifier.Classify(*rec)
	o.advance(&report, StateClassified)
	log = log.With(
		logging.String("type", string(report.Label.Type)),
		logging.String("platform", string(report.Label.Platform)),
	)
	log.Info("→ Classified record")

	result := o.dispatcher.Dispatch(ctx, *rec, report.Label)
	report.Status = result.Status
	report.Processor = result.Processor
	if result.Err != nil && !errors.Is(result.Err, ErrUnsupported) {
		report.Contained = fmt.Errorf("%w: %w", ErrProcessorFailure, result.Err)
	} else {
		report.Contained = result.Err
	}
	o.advance(&report, StateProcessed)
	log.Info("→ Processed record",
		logging.String("status", string(result.Status)),
		logging.String("agent", result.Content.ProcessingAgent),
	)

	report.Properties = o.normalizer.Normalize(report.Label, result.Content)
	o.advance(&report, StateNormalized)

	if err = o.commit(ctx, log, rec.ID, report.Properties); err != nil {
		return report, err
	}
	o.advance(&report, StateCommitted)
	log.Info("✓ Committed record", logging.Int("properties", len(report.Properties)))
	return report, nil
}

// commit relocates the record, then writes its properties with retries. If
// the write never succeeds the record is moved back to the pending store so
// the next run selects it again.
func (o *Orchestrator) commit(ctx context.Context, log logging.Logger, id string, props content.Properties) error {
	if err := o.destination.Relocate(ctx, id, o.opts.DestinationID); err != nil {
		log.Error("✗ Relocate failed", logging.Err(err))
		return &StageError{Stage: StageRelocate, RecordID: id, Err: fmt.Errorf("%w: %w", ErrCommitFailure, err)}
	}

	writeErr := o.writeWithRetries(ctx, log, id, props)
	if writeErr == nil {
		return nil
	}

	log.Error("✗ Property write failed, returning record to pending store", logging.Err(writeErr))
	cause := fmt.Errorf("%w: %w", ErrCommitFailure, writeErr)
	if o.opts.PendingID != "" {
		if err := o.destination.Relocate(ctx, id, o.opts.PendingID); err != nil {
			log.Error("✗ Compensating relocate failed; record is relocated without properties", logging.Err(err))
			cause = fmt.Errorf("%w (compensation failed: %v)", cause, err)
		}
	}
	return &StageError{Stage: StageWriteProperties, RecordID: id, Err: cause}
}

func (o *Orchestrator) writeWithRetries(ctx context.Context, log logging.Logger, id string, props content.Properties) error {
	var err error
	for attempt := 0; attempt <= o.opts.WriteRetries; attempt++ {
		if attempt > 0 {
			delay := o.opts.RetryDelay * time.Duration(1<<(attempt-1))
			log.Warn("Retrying property write",
				logging.Int("attempt", attempt+1),
				logging.Duration("delay", delay),
				logging.Err(err),
			)
			o.sleep(delay)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = o.destination.WriteProperties(ctx, id, props); err == nil {
			return nil
		}
	}
	return err
}

func (o *Orchestrator) advance(r *Report, to State) {
	if !r.State.next(to) {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", r.State, to))
	}
	r.State = to
}
