package analyses

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ats-resume-checker/internal/extract"
	"ats-resume-checker/internal/llm"
	"ats-resume-checker/internal/reports"
	"ats-resume-checker/internal/shared/metrics"
	"ats-resume-checker/internal/shared/telemetry"
	"ats-resume-checker/internal/shared/util"
	"ats-resume-checker/internal/uploads"
)

// DefaultAnalysisTimeout bounds the upstream call of a single run.
const DefaultAnalysisTimeout = 3 * time.Minute

// ExtractFunc reads the text of a stored document.
type ExtractFunc func(ctx context.Context, path, ext string) (string, error)

// Service runs the extract, analyze, normalize and persist pipeline.
type Service struct {
	// Store is optional. A nil store skips persistence and makes lookups unavailable.
	Store           reports.Store
	LLM             llm.Client
	Extract         ExtractFunc
	AnalysisTimeout time.Duration
	Now             func() time.Time
}

// Run analyzes doc against industry. The document file is removed exactly once
// before Run returns, whatever the outcome.
func (s *Service) Run(ctx context.Context, doc *uploads.Document, industry string) (Result, error) {
	r := &run{svc: s, ctx: ctx, doc: doc, startedAt: s.now(), state: StatusReceived}
	defer r.release()

	metrics.IncAnalysisStarted()
	r.log(nil)

	industry = strings.TrimSpace(industry)
	if doc == nil {
		return r.fail(&ValidationError{Field: "file", Message: "no file uploaded"})
	}
	if industry == "" {
		return r.fail(&ValidationError{Field: "industry", Message: "industry is required"})
	}
	if s.LLM == nil {
		return r.fail(errors.New("analysis client is not configured"))
	}
	r.industry = industry
	r.transition(StatusValidated, map[string]any{"extension": doc.Extension, "size_bytes": doc.SizeBytes})

	text, err := s.extractor()(ctx, doc.Path, doc.Extension)
	if err != nil {
		return r.fail(err)
	}
	r.transition(StatusExtracted, map[string]any{"text_len": len([]rune(text))})

	prompt := llm.BuildAnalysisPrompt(text, industry)
	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return r.fail(err)
	}
	r.transition(StatusAnalyzed, map[string]any{
		"prompt_hash":  llm.PromptHash(prompt),
		"response_len": len(raw),
	})

	record, err := NormalizeResponse(raw)
	if err != nil {
		return r.fail(err)
	}
	record.FileName = doc.OriginalName
	record.Industry = industry
	r.transition(StatusNormalized, map[string]any{"score": record.Score, "keyword_match": record.KeywordMatch})

	outcome := s.persist(ctx, record)
	r.transition(StatusPersistAttempted, map[string]any{
		"persisted":   outcome.Persisted,
		"report_id":   outcome.ReportID,
		"skip_reason": outcome.SkipReason,
	})

	r.release()
	r.transition(StatusCleanedUp, nil)

	completedAt := s.now()
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(durationMs(r.startedAt, completedAt))
	r.transition(StatusDone, map[string]any{"duration_ms": durationMs(r.startedAt, completedAt)})

	return Result{Record: record, ReportID: outcome.reportIDPtr()}, nil
}

// GetReport looks up a persisted report by id.
func (s *Service) GetReport(ctx context.Context, id string) (reports.Report, error) {
	if s.Store == nil {
		return reports.Report{}, reports.ErrUnavailable
	}
	key, err := reports.ValidateID(id)
	if err != nil {
		return reports.Report{}, err
	}
	return s.Store.Get(ctx, key)
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	timeout := s.AnalysisTimeout
	if timeout <= 0 {
		return s.LLM.Complete(ctx, prompt)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.LLM.Complete(callCtx, prompt)
}

// persist saves record when a store is configured. Failures are logged and reported
// as a skipped outcome so the analysis still reaches the caller.
func (s *Service) persist(ctx context.Context, record Record) PersistOutcome {
	if s.Store == nil {
		metrics.IncReportSkipped()
		return PersistOutcome{SkipReason: "report store not configured"}
	}
	saved, err := s.Store.Save(ctx, record.toReport())
	if err != nil {
		metrics.IncReportSkipped()
		telemetry.Warn("report.save_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"err":        util.SanitizeErrorMessage(err),
		})
		return PersistOutcome{SkipReason: "report store unavailable"}
	}
	metrics.IncReportSaved()
	return PersistOutcome{ReportID: saved.ID, Persisted: true}
}

func (s *Service) extractor() ExtractFunc {
	if s.Extract != nil {
		return s.Extract
	}
	return extract.ExtractFile
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// run carries the state of one pipeline execution.
type run struct {
	svc       *Service
	ctx       context.Context
	doc       *uploads.Document
	industry  string
	state     string
	startedAt time.Time
	cleanup   sync.Once
}

func (r *run) transition(next string, fields map[string]any) {
	prev := r.state
	r.state = next
	if fields == nil {
		fields = map[string]any{}
	}
	fields["status_transition"] = prev + "->" + next
	r.log(fields)
}

func (r *run) log(fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["request_id"] = requestIDFromContext(r.ctx)
	fields["status"] = r.state
	if r.industry != "" {
		fields["industry"] = r.industry
	}
	if r.doc != nil {
		fields["file_name"] = r.doc.OriginalName
	}
	telemetry.Info("analysis.status", fields)
}

func (r *run) fail(err error) (Result, error) {
	completedAt := r.svc.now()
	metrics.IncAnalysisFailed()
	metrics.ObserveAnalysisDurationMs(durationMs(r.startedAt, completedAt))
	r.transition(StatusFailed, map[string]any{
		"error_code":  ErrorCode(err),
		"err":         util.SanitizeErrorMessage(err),
		"duration_ms": durationMs(r.startedAt, completedAt),
	})
	return Result{}, err
}

// release removes the document file once. Removal errors are logged only.
func (r *run) release() {
	r.cleanup.Do(func() {
		if r.doc == nil {
			return
		}
		fields := map[string]any{
			"request_id": requestIDFromContext(r.ctx),
			"path":       r.doc.Path,
		}
		if err := r.doc.Remove(); err != nil {
			fields["err"] = err
			telemetry.Warn("analysis.cleanup", fields)
			return
		}
		telemetry.Info("analysis.cleanup", fields)
	})
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}
