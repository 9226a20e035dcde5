package screening

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/document"
	"github.com/spigell/resume-screener/internal/extract"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/report"
)

const (
	FeedbackNoText        = "No text extracted."
	FeedbackScoringFailed = "Scoring failed."
)

// Extractor is the part of extract.Extractor used by the pipeline.
type Extractor interface {
	Extract(doc document.Document) extract.Result
}

// Pipeline extracts and scores documents one by one.
type Pipeline struct {
	extractor Extractor
	scorer    ai.Scorer
	logger    *zap.Logger
	observer  Observer
}

type Option func(*Pipeline)

func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

func New(extractor Extractor, scorer ai.Scorer, log *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor,
		scorer:    scorer,
		logger:    logger.WithFields(log),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type summary struct {
	scored int
	empty  int
	failed int
}

// Run produces exactly one record per document, in input order. Per-document
// failures degrade the record and never stop the batch. The caller validates
// that the job description and the document list are not empty.
func (p *Pipeline) Run(ctx context.Context, jobDescription string, docs []document.Document) *report.BatchReport {
	batch := report.NewBatchReport()
	total := len(docs)
	var stats summary

	p.logger.Info("screening started",
		zap.String("run_id", batch.RunID.String()),
		zap.Int("documents", total),
	)

	for idx, doc := range docs {
		log := p.logger.With(logger.DocumentFields(idx, doc.Name, doc.Format.String())...)
		record := p.screen(ctx, jobDescription, doc, idx, total, log, &stats)

		batch.Append(record)
		p.observer.Notify(Event{
			Kind:     EventRecordReady,
			Index:    idx,
			Total:    total,
			Document: doc.Name,
			Record:   &record,
		})
	}

	p.logger.Info("screening finished",
		zap.String("run_id", batch.RunID.String()),
		zap.Int("records", batch.Len()),
		zap.Int("scored", stats.scored),
		zap.Int("empty", stats.empty),
		zap.Int("failed", stats.failed),
	)

	return batch
}

func (p *Pipeline) screen(ctx context.Context, jobDescription string, doc document.Document, idx, total int, log *zap.Logger, stats *summary) report.Record {
	result := p.extractor.Extract(doc)
	if result.Err != nil {
		log.Warn("text extraction failed", zap.Error(result.Err))
		p.notify(EventExtractionFailed, idx, total, doc.Name, result.Err)
	}

	if strings.TrimSpace(result.Text) == "" {
		log.Info("no text extracted")
		p.notify(EventEmptyText, idx, total, doc.Name, result.Err)
		stats.empty++

		record := report.Record{
			Filename:   doc.Name,
			Feedback:   FeedbackNoText,
			Highlights: []string{},
		}
		if result.Err != nil {
			record.Error = result.Err.Error()
		}
		return record
	}

	assessment, err := p.score(ctx, jobDescription, result.Text)
	if err == nil && assessment == nil {
		err = fmt.Errorf("%w: scorer returned no assessment", ai.ErrMalformedResponse)
	}
	if err != nil {
		log.Warn("scoring failed", zap.Error(err))
		p.notify(EventScoringFailed, idx, total, doc.Name, err)
		stats.failed++

		return report.Record{
			Filename:   doc.Name,
			Feedback:   FeedbackScoringFailed,
			Highlights: []string{},
			Error:      err.Error(),
		}
	}

	stats.scored++
	log.Info("resume scored", zap.String("score", report.FormatScore(assessment.Score)))

	highlights := assessment.Highlights
	if highlights == nil {
		highlights = []string{}
	}

	return report.Record{
		Filename:   doc.Name,
		Score:      assessment.Score,
		Feedback:   assessment.Feedback,
		Highlights: highlights,
	}
}

// score shields the batch from a panicking scorer.
func (p *Pipeline) score(ctx context.Context, jobDescription, text string) (assessment *ai.Assessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			assessment = nil
			err = fmt.Errorf("scorer panic: %v", r)
		}
	}()

	return p.scorer.Score(ctx, jobDescription, text)
}

func (p *Pipeline) notify(kind EventKind, idx, total int, name string, err error) {
	p.observer.Notify(Event{
		Kind:     kind,
		Index:    idx,
		Total:    total,
		Document: name,
		Err:      err,
	})
}
