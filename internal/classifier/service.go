package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/callbook/internal/prompts"
	"github.com/JaimeStill/callbook/pkg/formatting"
	"github.com/JaimeStill/callbook/pkg/retry"
)

const (
	classifyMaxTokens = 2000
	extractMaxTokens  = 3000
	temperature       = 0.1
)

// Options tunes the Service.
type Options struct {
	Timeout       time.Duration
	MaxConcurrent int
	Retry         retry.Config
}

// Service implements Classifier on top of a Completer. Calls are capped by a
// semaphore and each attempt runs under its own timeout.
type Service struct {
	completer Completer
	prompts   prompts.Source
	sem       *semaphore.Weighted
	timeout   time.Duration
	retry     retry.Config
	logger    *slog.Logger
}

// New creates a classification Service. A nil source uses the built-in
// instructions.
func New(c Completer, src prompts.Source, opts Options, logger *slog.Logger) *Service {
	if src == nil {
		src = prompts.Defaults{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}

	logger = logger.With("system", "classifier")
	opts.Retry.Logger = logger

	return &Service{
		completer: c,
		prompts:   src,
		sem:       semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		timeout:   opts.Timeout,
		retry:     opts.Retry,
		logger:    logger,
	}
}

type classificationWire struct {
	Cluster      string  `json:"cluster"`
	Subcategory  string  `json:"subcategory"`
	Question     *string `json:"question"`
	Answer       string  `json:"answer"`
	Resolution   string  `json:"resolution"`
	Satisfaction string  `json:"satisfaction"`
	Summary      string  `json:"summary"`
}

type scriptsWire struct {
	Scripts           *[]ScriptCandidate `json:"scripts"`
	CustomerSatisfied *bool              `json:"customer_satisfied"`
}

type faqWire struct {
	Entries *[]FAQEntry `json:"faq"`
}

type factsWire struct {
	Facts *[]Fact `json:"facts"`
}

type instructionsWire struct {
	Instructions *[]Instruction `json:"instructions"`
}

// factCategories are the categories a model may report for a call.
var factCategories = map[string]bool{
	"contact":   true,
	"problem":   true,
	"solution":  true,
	"agreement": true,
	"product":   true,
}

func (s *Service) Classify(ctx context.Context, text string, clusters []string) Result[Classification] {
	raw, err := s.call(ctx, prompts.StageClassify, clusters, text, classifyMaxTokens)
	if err != nil {
		return serviceFailure[Classification](err)
	}

	w, err := formatting.Parse[classificationWire](raw)
	if err != nil {
		return parseFailure[Classification](err, raw)
	}
	if w.Question == nil {
		return parseFailure[Classification](errors.New("missing key: question"), raw)
	}

	return success(Classification{
		Cluster:      strings.TrimSpace(w.Cluster),
		Subcategory:  strings.TrimSpace(w.Subcategory),
		Question:     strings.TrimSpace(*w.Question),
		Answer:       strings.TrimSpace(w.Answer),
		Resolution:   NormalizeResolution(w.Resolution),
		Satisfaction: NormalizeSatisfaction(w.Satisfaction),
		Summary:      strings.TrimSpace(w.Summary),
	}, raw)
}

func (s *Service) ExtractScripts(ctx context.Context, text string) Result[ScriptExtraction] {
	raw, err := s.call(ctx, prompts.StageExtractScripts, nil, text, extractMaxTokens)
	if err != nil {
		return serviceFailure[ScriptExtraction](err)
	}

	w, err := formatting.Parse[scriptsWire](raw)
	if err != nil {
		return parseFailure[ScriptExtraction](err, raw)
	}
	if w.Scripts == nil {
		return parseFailure[ScriptExtraction](errors.New("missing key: scripts"), raw)
	}

	out := ScriptExtraction{CustomerSatisfied: w.CustomerSatisfied}
	for _, c := range *w.Scripts {
		c.Text = strings.TrimSpace(c.Text)
		if c.Text == "" {
			continue
		}
		c.Type = strings.ToLower(strings.TrimSpace(c.Type))
		out.Scripts = append(out.Scripts, c)
	}

	return success(out, raw)
}

func (s *Service) ExtractFAQ(ctx context.Context, text string) Result[FAQExtraction] {
	raw, err := s.call(ctx, prompts.StageExtractFAQ, nil, text, extractMaxTokens)
	if err != nil {
		return serviceFailure[FAQExtraction](err)
	}

	w, err := formatting.Parse[faqWire](raw)
	if err != nil {
		return parseFailure[FAQExtraction](err, raw)
	}
	if w.Entries == nil {
		return parseFailure[FAQExtraction](errors.New("missing key: faq"), raw)
	}

	var out FAQExtraction
	for _, e := range *w.Entries {
		e.Question = strings.TrimSpace(e.Question)
		e.Answer = strings.TrimSpace(e.Answer)
		if e.Question == "" || e.Answer == "" {
			continue
		}
		out.Entries = append(out.Entries, e)
	}

	return success(out, raw)
}

// ExtractFacts pulls structured facts out of a call. Facts with an unknown
// category or an empty value are dropped.
func (s *Service) ExtractFacts(ctx context.Context, text string) Result[FactExtraction] {
	raw, err := s.call(ctx, prompts.StageExtractFacts, nil, text, extractMaxTokens)
	if err != nil {
		return serviceFailure[FactExtraction](err)
	}

	w, err := formatting.Parse[factsWire](raw)
	if err != nil {
		return parseFailure[FactExtraction](err, raw)
	}
	if w.Facts == nil {
		return parseFailure[FactExtraction](errors.New("missing key: facts"), raw)
	}

	var out FactExtraction
	for _, f := range *w.Facts {
		f.Category = strings.ToLower(strings.TrimSpace(f.Category))
		f.Key = strings.TrimSpace(f.Key)
		f.Value = strings.TrimSpace(f.Value)
		if !factCategories[f.Category] || f.Value == "" {
			continue
		}
		out.Facts = append(out.Facts, f)
	}

	return success(out, raw)
}

// ExtractInstructions pulls topic and instruction pairs out of an operator
// manual. A missing topic becomes "general".
func (s *Service) ExtractInstructions(ctx context.Context, text string) Result[InstructionExtraction] {
	raw, err := s.call(ctx, prompts.StageExtractInstructions, nil, text, classifyMaxTokens)
	if err != nil {
		return serviceFailure[InstructionExtraction](err)
	}

	w, err := formatting.Parse[instructionsWire](raw)
	if err != nil {
		return parseFailure[InstructionExtraction](err, raw)
	}
	if w.Instructions == nil {
		return parseFailure[InstructionExtraction](errors.New("missing key: instructions"), raw)
	}

	var out InstructionExtraction
	for _, in := range *w.Instructions {
		in.Topic = strings.TrimSpace(in.Topic)
		in.Instruction = strings.TrimSpace(in.Instruction)
		if in.Instruction == "" {
			continue
		}
		if in.Topic == "" {
			in.Topic = "general"
		}
		out.Instructions = append(out.Instructions, in)
	}

	return success(out, raw)
}

func (s *Service) call(
	ctx context.Context,
	stage prompts.Stage,
	clusters []string,
	text string,
	maxTokens int,
) (string, error) {
	system, err := ComposePrompt(ctx, s.prompts, stage, clusters)
	if err != nil {
		return "", err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire classifier slot: %w", err)
	}
	defer s.sem.Release(1)

	start := time.Now()
	raw, err := retry.DoWithResult(ctx, s.retry, func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		return s.completer.Complete(ctx, Request{
			System:      system,
			User:        text,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
	})
	if err != nil {
		s.logger.Warn("classifier call failed", "stage", stage, "error", err)
		return "", err
	}

	s.logger.Debug("classifier call complete", "stage", stage, "duration", time.Since(start))
	return raw, nil
}

// NormalizeResolution maps free-form values onto resolved, unresolved or
// partial. Anything unrecognized is unresolved.
func NormalizeResolution(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case ResolutionResolved, "yes", "true":
		return ResolutionResolved
	case ResolutionPartial, "partially":
		return ResolutionPartial
	default:
		return ResolutionUnresolved
	}
}

// NormalizeSatisfaction maps free-form values onto positive, neutral or
// negative. Anything unrecognized becomes SatisfactionUnstated.
func NormalizeSatisfaction(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case SatisfactionPositive:
		return SatisfactionPositive
	case SatisfactionNeutral:
		return SatisfactionNeutral
	case SatisfactionNegative:
		return SatisfactionNegative
	default:
		return SatisfactionUnstated
	}
}

// StatedSatisfaction returns the satisfaction the classifier reported, or the
// script extractor's customer_satisfied flag when the classifier gave none.
func StatedSatisfaction(c Classification, e ScriptExtraction) string {
	if c.Satisfaction != SatisfactionUnstated || e.CustomerSatisfied == nil {
		return c.Satisfaction
	}
	if *e.CustomerSatisfied {
		return SatisfactionPositive
	}
	return SatisfactionNegative
}
