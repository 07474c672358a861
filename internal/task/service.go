// Package task runs each career-guidance request through the same pipeline:
// build the prompt, call the model once, then extract and validate the reply.
package task

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"careerpath/internal/diagnostics"
	"careerpath/pkg/extract"
	"careerpath/pkg/llm"
	"careerpath/pkg/prompt"

	"github.com/sethvargo/go-retry"
)

type UsageRecorder interface {
	IncrementUsage(ctx context.Context, apiName string, tokens int64) error
}

type Options struct {
	Timeout        time.Duration
	MaxRetries     uint64
	RetryBackoff   time.Duration
	RepairAttempts int
}

func DefaultOptions() Options {
	return Options{
		Timeout:      60 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 500 * time.Millisecond,
	}
}

type Service struct {
	gen   llm.Generator
	sink  diagnostics.Sink
	usage UsageRecorder
	opts  Options
}

// NewService wires a generator with optional failure sink and usage recorder;
// either may be nil.
func NewService(gen llm.Generator, sink diagnostics.Sink, usage UsageRecorder, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultOptions().RetryBackoff
	}
	if opts.RepairAttempts < 0 {
		opts.RepairAttempts = 0
	}
	return &Service{gen: gen, sink: sink, usage: usage, opts: opts}
}

func (s *Service) GenerateQuiz(ctx context.Context) (json.RawMessage, error) {
	return s.run(ctx, prompt.TaskQuizGeneration, prompt.QuizGenerationPrompt())
}

func (s *Service) AnalyzeQuiz(ctx context.Context, in prompt.QuizAnalysisInput) (json.RawMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, invalidInput(prompt.TaskQuizAnalysis, err)
	}
	return s.run(ctx, prompt.TaskQuizAnalysis, prompt.QuizAnalysisPrompt(in))
}

func (s *Service) AnalyzePlacement(ctx context.Context, in prompt.PlacementInput) (json.RawMessage, error) {
	return s.run(ctx, prompt.TaskPlacementAnalysis, prompt.PlacementAnalysisPrompt(in))
}

func (s *Service) CompanyInfo(ctx context.Context, in prompt.CompanyInfoInput) (json.RawMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, invalidInput(prompt.TaskCompanyInfo, err)
	}
	return s.run(ctx, prompt.TaskCompanyInfo, prompt.CompanyInfoPrompt(in))
}

func (s *Service) EnhanceResume(ctx context.Context, in prompt.Resume) (json.RawMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, invalidInput(prompt.TaskResumeEnhancement, err)
	}
	return s.run(ctx, prompt.TaskResumeEnhancement, prompt.ResumeEnhancementPrompt(in))
}

func (s *Service) GenerateRoadmap(ctx context.Context, in prompt.RoadmapInput) (json.RawMessage, error) {
	return s.run(ctx, prompt.TaskRoadmap, prompt.RoadmapPrompt(in))
}

func (s *Service) DomainInfo(ctx context.Context, in prompt.DomainInfoInput) (json.RawMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, invalidInput(prompt.TaskDomainInfo, err)
	}
	return s.run(ctx, prompt.TaskDomainInfo, prompt.DomainInfoPrompt(in))
}

func invalidInput(t prompt.Task, err error) *Error {
	return &Error{Task: t, Kind: KindInputValidation, Diagnostic: err.Error(), Err: err}
}

func (s *Service) run(ctx context.Context, t prompt.Task, promptText string) (json.RawMessage, error) {
	schema := prompt.SchemaFor(t)
	current := promptText

	for attempt := 0; ; attempt++ {
		completion, err := s.generate(ctx, t, current)
		if err != nil {
			s.record(ctx, err)
			return nil, err
		}

		res := extract.Extract(completion.Text, schema)
		if res.OK() {
			slog.Info("task completed", "task", t, "model", completion.Model, "tokens", completion.Tokens, "attempt", attempt+1)
			return res.JSON(), nil
		}

		f := res.Failure()
		taskErr := &Error{
			Task:       t,
			Kind:       Kind(f.Kind),
			Raw:        f.Raw,
			Diagnostic: f.Diagnostic,
			Fields:     f.Fields,
			Err:        f,
		}
		s.record(ctx, taskErr)

		if attempt >= s.opts.RepairAttempts {
			return nil, taskErr
		}
		slog.Warn("asking model to repair reply", "task", t, "kind", f.Kind, "attempt", attempt+1)
		current = prompt.RepairPrompt(promptText, f.Raw, f.Diagnostic, f.Fields)
	}
}

// generate makes one logical model call under the configured deadline,
// retrying transient upstream errors with exponential backoff.
func (s *Service) generate(ctx context.Context, t prompt.Task, promptText string) (*llm.Completion, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	backoff := retry.WithMaxRetries(s.opts.MaxRetries, retry.NewExponential(s.opts.RetryBackoff))

	var completion *llm.Completion
	err := retry.Do(callCtx, backoff, func(ctx context.Context) error {
		c, err := s.gen.Generate(ctx, promptText)
		if err != nil {
			if ctx.Err() == nil && llm.Retryable(err) {
				slog.Warn("model call failed, retrying", "task", t, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		completion = c
		return nil
	})

	if err != nil {
		kind := KindUpstreamError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			kind = KindUpstreamTimeout
		}
		return nil, &Error{Task: t, Kind: kind, Diagnostic: err.Error(), Err: err}
	}

	if s.usage != nil {
		if err := s.usage.IncrementUsage(ctx, string(t), completion.Tokens); err != nil {
			slog.Error("error recording api usage", "error", err, "task", t)
		}
	}
	return completion, nil
}

func (s *Service) record(ctx context.Context, err error) {
	if s.sink == nil {
		return
	}
	var taskErr *Error
	if !errors.As(err, &taskErr) {
		return
	}
	e := diagnostics.NewEvent(string(taskErr.Task), string(taskErr.Kind), taskErr.Raw, taskErr.Diagnostic, taskErr.Fields, s.gen.Model())
	e.RequestID = diagnostics.RequestIDFrom(ctx)
	if err := s.sink.Record(context.WithoutCancel(ctx), e); err != nil {
		slog.Error("error recording failure event", "error", err, "task", taskErr.Task)
	}
}
