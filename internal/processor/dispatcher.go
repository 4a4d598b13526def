package processor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/logging"
)

// ErrUnsupported marks labels that are routed to manual handling.
var ErrUnsupported = errors.New("content type not supported for automatic processing")

// Status describes how a dispatch ended.
type Status string

const (
	StatusOK          Status = "ok"
	StatusDegraded    Status = "degraded"
	StatusUnsupported Status = "unsupported"
)

// Result is the outcome of dispatching one record. Content is always well
// formed; Err holds the contained cause for degraded and unsupported results.
type Result struct {
	Content   content.ProcessedContent
	Status    Status
	Processor string
	Err       error
}

// Processors holds one processor per label family.
type Processors struct {
	Text      Processor
	YouTube   Processor
	Instagram Processor
	Website   Processor
	Document  Processor
	Image     Processor
	// SocialVideo builds the video processor for a non-YouTube platform.
	SocialVideo func(platform content.Platform) Processor
}

// Dispatcher selects a processor for a label and contains its failures.
type Dispatcher struct {
	processors Processors
	logger     logging.Logger
}

func NewDispatcher(processors Processors, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{processors: processors, logger: logger}
}

// Select returns the processor for label, or nil for labels that are never
// processed automatically.
func (d *Dispatcher) Select(label content.Label) Processor {
	p := d.processors
	switch label.Type {
	case content.TypeText:
		return p.Text
	case content.TypeVideo:
		if label.Platform == content.PlatformYouTube {
			return p.YouTube
		}
		if p.SocialVideo == nil {
			return nil
		}
		return p.SocialVideo(label.Platform)
	case content.TypeWebsite:
		if label.Platform == content.PlatformInstagram {
			return p.Instagram
		}
		return p.Website
	case content.TypeDocument:
		return p.Document
	case content.TypeImage:
		return p.Image
	case content.TypeManualProcessing, content.TypeUnknown:
		return nil
	}
	return nil
}

// Dispatch runs the processor selected for label. It never returns an error
// and never panics: failures become degraded content tagged with the
// processor's name.
func (d *Dispatcher) Dispatch(ctx context.Context, rec content.SourceRecord, label content.Label) Result {
	if label.Type == content.TypeManualProcessing || label.Type == content.TypeUnknown {
		d.logger.Info("→ Routing to manual processing",
			logging.String("record_id", rec.ID),
			logging.String("label", label.String()),
		)
		return Result{
			Content: content.ProcessedContent{
				Title:           rec.DisplayName,
				ProcessingAgent: "Manual Processing",
				Error:           fmt.Sprintf("%s: %s", ErrUnsupported, label),
			},
			Status: StatusUnsupported,
			Err:    fmt.Errorf("%w: %s", ErrUnsupported, label),
		}
	}

	proc := d.Select(label)
	if proc == nil {
		err := fmt.Errorf("no processor configured for %s", label)
		d.logger.Error("✗ Dispatch failed", logging.String("record_id", rec.ID), logging.Err(err))
		return Result{
			Content: content.ProcessedContent{
				Title:           fmt.Sprintf("Error processing %s", describe(rec)),
				ProcessingAgent: "Dispatcher",
				Error:           err.Error(),
			},
			Status: StatusDegraded,
			Err:    err,
		}
	}

	name := proc.Name()
	out, err := d.invoke(ctx, proc, rec)
	if err != nil {
		d.logger.Warn("✗ Processor failed",
			logging.String("record_id", rec.ID),
			logging.String("processor", name),
			logging.Err(err),
		)
		return Result{
			Content: content.ProcessedContent{
				Title:           fmt.Sprintf("Error processing %s", describe(rec)),
				ProcessingAgent: name,
				Error:           err.Error(),
			},
			Status:    StatusDegraded,
			Processor: name,
			Err:       err,
		}
	}

	if out.ProcessingAgent == "" {
		out.ProcessingAgent = name
	}
	status := StatusOK
	if out.Degraded() {
		status = StatusDegraded
	}
	return Result{Content: out, Status: status, Processor: name}
}

func (d *Dispatcher) invoke(ctx context.Context, proc Processor, rec content.SourceRecord) (out content.ProcessedContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("✗ Processor panicked",
				logging.String("processor", proc.Name()),
				logging.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("processor panic: %v", r)
		}
	}()
	return proc.Process(ctx, rec)
}

func describe(rec content.SourceRecord) string {
	switch {
	case rec.Link != "":
		return rec.Link
	case rec.HasFile() && rec.File.Name != "":
		return rec.File.Name
	case rec.DisplayName != "":
		return rec.DisplayName
	}
	return rec.ID
}
