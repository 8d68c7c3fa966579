// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the research stages: language detection,
// query planning, evidence collection, reliability scoring, conflict
// and gap analysis, synthesis, and persistence. Stages run strictly in
// order; each consumes the previous stage's output and reports
// progress through a sink.
//
// docs/ARCHITECTURE § Pipeline.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/lang"
	"github.com/pdiddy/deep-research/internal/reliability"
	"github.com/pdiddy/deep-research/internal/report"
	"github.com/pdiddy/deep-research/pkg/types"
)

// Sink receives progress as the pipeline advances. Step is a fraction
// in [0,1]. Implementations must tolerate being called from the
// pipeline goroutine only; the pipeline never calls them concurrently.
type Sink interface {
	Progress(step float64, message string)
	Message(message string)
}

// Planner produces search queries for a topic.
type Planner interface {
	Plan(ctx context.Context, hint types.BackendHint, topic string, language lang.Language) []string
}

// Collector gathers evidence for the planned queries.
type Collector interface {
	Collect(ctx context.Context, hint types.BackendHint, topic string, queries []string, w io.Writer) ([]types.EvidenceItem, error)
}

// Evaluator scores evidence items in place.
type Evaluator interface {
	EvaluateAll(ctx context.Context, hint types.BackendHint, topic string, items []types.EvidenceItem) error
}

// Analyst inspects the scored evidence for factual disagreements and
// coverage gaps.
type Analyst interface {
	DetectConflicts(ctx context.Context, hint types.BackendHint, topic string, items []types.EvidenceItem) string
	FindGaps(ctx context.Context, hint types.BackendHint, topic string, items []types.EvidenceItem) []string
}

// Synthesizer writes the report body.
type Synthesizer interface {
	Synthesize(ctx context.Context, hint types.BackendHint, language lang.Language, rep *types.ResearchReport)
}

// Recorder archives a completed run.
type Recorder interface {
	RecordRun(ctx context.Context, rep *types.ResearchReport, reportPath string) (string, error)
}

// Pipeline runs a research request end to end.
type Pipeline struct {
	Planner     Planner
	Collector   Collector
	Evaluator   Evaluator
	Analyst     Analyst
	Synthesizer Synthesizer
	Recorder    Recorder
	Config      types.Config
	Logger      *zap.Logger
}

// Run executes the full pipeline for one request and returns the
// completed report and the path it was saved under. Model and search
// failures degrade within their stages, and persistence failure
// degrades to a note appended to the report body; Run itself fails
// only on an empty topic or context cancellation.
func (p *Pipeline) Run(ctx context.Context, req types.ResearchRequest, sink Sink) (*types.ResearchReport, string, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, "", fmt.Errorf("topic is empty")
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("topic", topic), zap.String("model", req.Model.Name))

	start := time.Now()
	logger.Info("research run started")
	sink.Progress(0.05, fmt.Sprintf("starting research: %s", topic))

	language := lang.Detect(topic)
	sink.Progress(0.08, fmt.Sprintf("language detected: %s", language.Name()))
	logger.Info("language detected", zap.String("language", string(language)))

	hint := req.Model.Hint

	queries := p.Planner.Plan(ctx, hint, topic, language)
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	sink.Progress(0.1, fmt.Sprintf("planned %d search queries", len(queries)))
	logger.Info("queries planned", zap.Strings("queries", queries))

	items, err := p.Collector.Collect(ctx, hint, topic, queries, &sinkWriter{sink: sink})
	if err != nil {
		return nil, "", fmt.Errorf("collecting evidence: %w", err)
	}
	sink.Progress(0.5, fmt.Sprintf("collected %d sources", len(items)))
	logger.Info("evidence collected", zap.Int("sources", len(items)))

	if err := p.Evaluator.EvaluateAll(ctx, hint, topic, items); err != nil {
		return nil, "", fmt.Errorf("scoring sources: %w", err)
	}
	items = reliability.FilterAndSort(items, p.Config.Pipeline.ReliabilityFloor)
	sink.Progress(0.7, fmt.Sprintf("%d sources passed reliability screening", len(items)))

	rep := &types.ResearchReport{
		Topic:       topic,
		GeneratedAt: time.Now(),
		ModelUsed:   req.Model.Name,
		Language:    language.Name(),
		Queries:     queries,
		Items:       items,
	}

	rep.ConflictNotes = p.Analyst.DetectConflicts(ctx, hint, topic, items)
	rep.GapNotes = p.Analyst.FindGaps(ctx, hint, topic, items)
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	sink.Progress(0.8, analysisMessage(rep))

	sink.Progress(0.9, "writing report")
	p.Synthesizer.Synthesize(ctx, hint, language, rep)
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	rendered := report.Render(rep)
	path, err := report.Save(rep, rendered, p.Config.Report)
	switch {
	case err != nil && path == "":
		// The finished report outlives a failed write: note the
		// failure in the body and hand the report back anyway.
		rep.Body += fmt.Sprintf("\n\n**Note:** saving the report failed: %v", err)
		sink.Message(fmt.Sprintf("warning: report could not be saved: %v", err))
		logger.Warn("report not saved", zap.Error(err))
	case err != nil:
		// Secondary sinks failed; the report itself is on disk.
		sink.Message(fmt.Sprintf("warning: %v", err))
		logger.Warn("partial persistence", zap.Error(err))
	}

	if p.Recorder != nil {
		if _, recErr := p.Recorder.RecordRun(ctx, rep, path); recErr != nil {
			sink.Message(fmt.Sprintf("warning: archive record failed: %v", recErr))
			logger.Warn("archive record failed", zap.Error(recErr))
		}
	}

	if path == "" {
		sink.Progress(1.0, "research complete (report not saved)")
	} else {
		sink.Progress(1.0, fmt.Sprintf("report saved: %s", path))
	}
	logger.Info("research run finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("sources", len(rep.Items)),
		zap.Bool("web_verified", rep.WebVerified),
	)
	return rep, path, nil
}

func analysisMessage(rep *types.ResearchReport) string {
	switch {
	case rep.ConflictNotes != "" && len(rep.GapNotes) > 0:
		return fmt.Sprintf("analysis: conflicts found, %d gaps noted", len(rep.GapNotes))
	case rep.ConflictNotes != "":
		return "analysis: conflicting sources found"
	case len(rep.GapNotes) > 0:
		return fmt.Sprintf("analysis: %d information gaps noted", len(rep.GapNotes))
	default:
		return "analysis: sources are consistent"
	}
}

// sinkWriter adapts a Sink to the io.Writer the collector logs to.
// Each complete line becomes one sink message.
type sinkWriter struct {
	sink Sink
	buf  strings.Builder
}

func (w *sinkWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		s := w.buf.String()
		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(s[:idx])
		w.buf.Reset()
		w.buf.WriteString(s[idx+1:])
		if line != "" {
			w.sink.Message(line)
		}
	}
	return len(p), nil
}
