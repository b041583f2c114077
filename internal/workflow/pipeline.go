package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/callbook/internal/classifications"
	"github.com/JaimeStill/callbook/internal/classifier"
	"github.com/JaimeStill/callbook/internal/clusters"
	"github.com/JaimeStill/callbook/internal/documents"
	"github.com/JaimeStill/callbook/internal/facts"
	"github.com/JaimeStill/callbook/internal/prompts"
	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/internal/scripts"
	"github.com/JaimeStill/callbook/internal/summary"
	"github.com/JaimeStill/callbook/pkg/events"
)

func (w *workflow) ProcessDocument(ctx context.Context, id uuid.UUID, force bool) (Outcome, error) {
	start := time.Now()

	doc, claimed, err := w.rt.Documents.Claim(ctx, id, force)
	if err != nil {
		return Outcome{}, fmt.Errorf("claim document %s: %w", id, err)
	}
	if !claimed {
		w.logger.Debug("document not claimable", "id", id)
		return Outcome{DocumentID: id, Status: StatusSkipped}, nil
	}

	var out Outcome
	switch doc.DocType {
	case documents.TypeManualFAQ:
		out, err = w.processFAQ(ctx, doc)
	case documents.TypeManualInstruction:
		out, err = w.processInstructions(ctx, doc)
	case documents.TypeManualKnowledge:
		out, err = w.processKnowledge(ctx, doc)
	default:
		out, err = w.processTranscript(ctx, doc)
	}
	out.DocumentID = id

	if err != nil {
		out.Status = StatusFailed
		out.Error = err.Error()
		if markErr := w.rt.Documents.MarkError(ctx, id, err.Error()); markErr != nil {
			return out, fmt.Errorf("mark document %s failed: %w", id, markErr)
		}
		w.logger.Warn("document processing failed", "id", id, "filename", doc.Filename, "error", err)
	} else {
		w.logger.Info("document processed",
			"id", id,
			"status", out.Status,
			"questions_created", out.QuestionsCreated,
			"questions_matched", out.QuestionsMatched,
			"scripts_created", out.ScriptsCreated,
			"facts", out.FactsStored,
		)
		w.publish(events.DocumentProcessed, documentEvent{
			DocumentID:  id,
			Status:      out.Status,
			QuestionIDs: out.QuestionIDs,
		})
	}

	w.rt.Metrics.Document(string(out.Status), time.Since(start))
	return out, nil
}

// writes accumulates one attempt at storing a document. Its events and
// metrics are released only after the attempt commits.
type writes struct {
	doc         *documents.Document
	out         Outcome
	events      []queuedEvent
	resolutions []string
	scripts     []string
}

type queuedEvent struct {
	subject string
	data    any
}

// commit runs fn in one transaction so a document is stored whole or not at
// all, then releases what the committed attempt produced.
func (w *workflow) commit(
	ctx context.Context,
	doc *documents.Document,
	fn func(ctx context.Context, wr *writes) error,
) (Outcome, error) {
	var wr *writes
	err := w.atomic(ctx, func(ctx context.Context) error {
		wr = &writes{doc: doc}
		return fn(ctx, wr)
	})
	if err != nil {
		return Outcome{}, err
	}

	for _, kind := range wr.resolutions {
		w.rt.Metrics.Resolution(kind)
	}
	for _, result := range wr.scripts {
		w.rt.Metrics.Script(result)
	}
	for _, e := range wr.events {
		w.publish(e.subject, e.data)
	}
	return wr.out, nil
}

// processTranscript classifies a call and files its question, scripts and
// facts. Every model call completes before anything is written.
func (w *workflow) processTranscript(ctx context.Context, doc *documents.Document) (Outcome, error) {
	text, err := w.rt.Documents.Text(ctx, doc.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load text: %w", err)
	}

	list, err := w.rt.Clusters.List(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load clusters: %w", err)
	}

	var (
		cls classifier.Result[classifier.Classification]
		ext classifier.Result[classifier.ScriptExtraction]
		fx  classifier.Result[classifier.FactExtraction]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cls = w.rt.Classifier.Classify(gctx, text, clusters.Names(list))
		w.rt.Metrics.Classifier(string(prompts.StageClassify), string(cls.Kind))
		if !cls.OK() {
			return fmt.Errorf("%w: %w", ErrClassifyFailed, cls.Err)
		}
		return nil
	})
	g.Go(func() error {
		ext = w.rt.Classifier.ExtractScripts(gctx, text)
		w.rt.Metrics.Classifier(string(prompts.StageExtractScripts), string(ext.Kind))
		if !ext.OK() {
			return fmt.Errorf("%w: %w", ErrExtractFailed, ext.Err)
		}
		return nil
	})
	g.Go(func() error {
		fx = w.rt.Classifier.ExtractFacts(gctx, text)
		w.rt.Metrics.Classifier(string(prompts.StageExtractFacts), string(fx.Kind))
		return nil
	})
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	if !fx.OK() {
		w.logger.Warn("fact extraction failed, storing classification facts only", "id", doc.ID, "error", fx.Err)
	}

	return w.commit(ctx, doc, func(ctx context.Context, wr *writes) error {
		return w.fileTranscript(ctx, wr, list, cls.Value, ext.Value, callFacts(cls.Value, fx))
	})
}

func (w *workflow) fileTranscript(
	ctx context.Context,
	wr *writes,
	list []clusters.Cluster,
	c classifier.Classification,
	ext classifier.ScriptExtraction,
	found []facts.CreateCommand,
) error {
	delta := summary.Delta{Calls: 1}

	n, err := w.storeFacts(ctx, wr, found)
	if err != nil {
		return err
	}
	delta.NewFacts = n

	if c.Question == "" {
		if _, err := w.record(ctx, wr.doc.ID, nil, c, c.Cluster, nil, 0); err != nil {
			return err
		}
		wr.out.Status = StatusNoExtraction
		return w.finishEmpty(ctx, wr.doc.ID, delta)
	}

	cluster, err := w.cluster(list, c.Cluster)
	if err != nil {
		return err
	}

	sub, err := w.rt.Clusters.EnsureSubcategory(ctx, cluster.ID, c.Subcategory)
	if err != nil {
		return fmt.Errorf("ensure subcategory: %w", err)
	}

	wr.out.Status = StatusProcessed

	questionID, created, err := w.file(ctx, wr, c.Question, cluster.ID, sub)
	if err != nil {
		return err
	}

	succeeded := scripts.Succeeded(c.Resolution, classifier.StatedSatisfaction(c, ext))
	for _, cand := range ext.Scripts {
		if err := w.observe(ctx, wr, questionID, cand.Text, scripts.ParseType(cand.Type), cand.HasSteps, succeeded); err != nil {
			return err
		}
	}

	var subName *string
	if sub != nil {
		subName = &sub.Name
	}
	if _, err := w.record(ctx, wr.doc.ID, &questionID, c, cluster.Name, subName, len(ext.Scripts)); err != nil {
		return err
	}

	if created {
		delta.NewQuestions = 1
	}
	delta.NewScripts = wr.out.ScriptsCreated
	if c.Resolution == classifier.ResolutionResolved {
		delta.Resolved = 1
	} else {
		delta.Unresolved = 1
	}

	return w.finish(ctx, wr.doc.ID, delta)
}

// callFacts combines the extracted facts of a call with its summary and,
// when the customer's mood was stated, its sentiment.
func callFacts(c classifier.Classification, fx classifier.Result[classifier.FactExtraction]) []facts.CreateCommand {
	var cmds []facts.CreateCommand
	if fx.OK() {
		for _, f := range fx.Value.Facts {
			cmds = append(cmds, facts.CreateCommand{
				Category: facts.Category(f.Category),
				Key:      f.Key,
				Value:    f.Value,
			})
		}
	}
	if c.Summary != "" {
		cmds = append(cmds, facts.CreateCommand{Category: facts.CategorySummary, Key: "call_summary", Value: c.Summary})
	}
	if c.Satisfaction != classifier.SatisfactionUnstated {
		cmds = append(cmds, facts.CreateCommand{Category: facts.CategorySentiment, Key: "customer_sentiment", Value: c.Satisfaction})
	}
	return cmds
}

// processFAQ files every question and answer pair of a FAQ document under
// the default cluster. Each pair counts as a resolved call whose answer is
// observed as a successful script.
func (w *workflow) processFAQ(ctx context.Context, doc *documents.Document) (Outcome, error) {
	text, err := w.manualText(ctx, doc)
	if err != nil {
		return Outcome{}, err
	}

	res := w.rt.Classifier.ExtractFAQ(ctx, text)
	w.rt.Metrics.Classifier(string(prompts.StageExtractFAQ), string(res.Kind))
	if !res.OK() {
		return Outcome{}, fmt.Errorf("%w: %w", ErrExtractFailed, res.Err)
	}

	if len(res.Value.Entries) == 0 {
		return w.commit(ctx, doc, func(ctx context.Context, wr *writes) error {
			if _, err := w.storeFacts(ctx, wr, nil); err != nil {
				return err
			}
			wr.out.Status = StatusNoExtraction
			return w.finishEmpty(ctx, doc.ID, summary.Delta{Calls: 1})
		})
	}

	list, err := w.rt.Clusters.List(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load clusters: %w", err)
	}
	cluster, err := w.cluster(list, w.cfg.DefaultCluster)
	if err != nil {
		return Outcome{}, err
	}

	found := make([]facts.CreateCommand, 0, 2*len(res.Value.Entries))
	for _, e := range res.Value.Entries {
		found = append(found,
			facts.CreateCommand{Category: facts.CategoryQuestion, Key: "faq", Value: e.Question},
			facts.CreateCommand{Category: facts.CategoryAnswer, Key: facts.TruncateKey(e.Question), Value: e.Answer},
		)
	}

	return w.commit(ctx, doc, func(ctx context.Context, wr *writes) error {
		n, err := w.storeFacts(ctx, wr, found)
		if err != nil {
			return err
		}

		wr.out.Status = StatusProcessed
		delta := summary.Delta{NewFacts: n}

		for _, e := range res.Value.Entries {
			questionID, created, err := w.file(ctx, wr, e.Question, cluster.ID, nil)
			if err != nil {
				return err
			}
			if err := w.observe(ctx, wr, questionID, e.Answer, scripts.TypeInfo, false, true); err != nil {
				return err
			}

			delta.Calls++
			delta.Resolved++
			if created {
				delta.NewQuestions++
			}
		}
		delta.NewScripts = wr.out.ScriptsCreated

		return w.finish(ctx, doc.ID, delta)
	})
}

// processInstructions stores the topic and instruction pairs of an operator
// manual as facts. Instructions are not questions, so the corpus is left
// untouched.
func (w *workflow) processInstructions(ctx context.Context, doc *documents.Document) (Outcome, error) {
	text, err := w.manualText(ctx, doc)
	if err != nil {
		return Outcome{}, err
	}

	res := w.rt.Classifier.ExtractInstructions(ctx, text)
	w.rt.Metrics.Classifier(string(prompts.StageExtractInstructions), string(res.Kind))
	if !res.OK() {
		return Outcome{}, fmt.Errorf("%w: %w", ErrExtractFailed, res.Err)
	}

	found := make([]facts.CreateCommand, 0, len(res.Value.Instructions))
	for _, in := range res.Value.Instructions {
		found = append(found, facts.CreateCommand{
			Category: facts.CategoryInstruction,
			Key:      in.Topic,
			Value:    in.Instruction,
		})
	}

	return w.commit(ctx, doc, func(ctx context.Context, wr *writes) error {
		n, err := w.storeFacts(ctx, wr, found)
		if err != nil {
			return err
		}
		if n == 0 {
			wr.out.Status = StatusNoExtraction
			return w.finishEmpty(ctx, doc.ID, summary.Delta{})
		}
		wr.out.Status = StatusProcessed
		return w.finish(ctx, doc.ID, summary.Delta{NewFacts: n})
	})
}

// processKnowledge accepts a reference document as is. No model is
// consulted.
func (w *workflow) processKnowledge(ctx context.Context, doc *documents.Document) (Outcome, error) {
	if _, err := w.manualText(ctx, doc); err != nil {
		return Outcome{}, err
	}

	return w.commit(ctx, doc, func(ctx context.Context, wr *writes) error {
		wr.out.Status = StatusProcessed
		return w.finish(ctx, doc.ID, summary.Delta{})
	})
}

// manualText loads the text of a manual document, which must not be blank.
func (w *workflow) manualText(ctx context.Context, doc *documents.Document) (string, error) {
	text, err := w.rt.Documents.Text(ctx, doc.ID)
	if err != nil {
		return "", fmt.Errorf("load text: %w", err)
	}
	if documents.Blank(text) {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// cluster validates name against the stored clusters and falls back to the
// default cluster.
func (w *workflow) cluster(list []clusters.Cluster, name string) (clusters.Cluster, error) {
	if c, ok := clusters.Match(list, name); ok {
		return c, nil
	}
	if name != "" {
		w.logger.Debug("unknown cluster, using default", "cluster", name, "default", w.cfg.DefaultCluster)
	}
	if c, ok := clusters.Match(list, w.cfg.DefaultCluster); ok {
		return c, nil
	}
	return clusters.Cluster{}, fmt.Errorf("%w: %s", ErrNoDefaultCluster, w.cfg.DefaultCluster)
}

// file screens a question through the filter rules and resolves it into the
// corpus, returning the canonical question id.
func (w *workflow) file(
	ctx context.Context,
	wr *writes,
	text string,
	clusterID uuid.UUID,
	sub *clusters.Subcategory,
) (uuid.UUID, bool, error) {
	verdict, err := w.rt.Moderation.Evaluate(ctx, text)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("evaluate filter rules: %w", err)
	}

	cmd := questions.CreateCommand{
		ClusterID:        clusterID,
		Text:             text,
		ModerationStatus: verdict.Status,
		ModerationReason: verdict.Reason,
		SourceDocumentID: &wr.doc.ID,
	}
	if sub != nil {
		cmd.SubcategoryID = &sub.ID
	}

	decision, err := w.rt.Resolver.ResolveOrCreate(ctx, cmd, wr.doc.Filename)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("resolve question: %w", err)
	}
	wr.resolutions = append(wr.resolutions, string(decision.Kind))

	var questionID uuid.UUID
	switch {
	case decision.Created():
		q := decision.Question
		wr.events = append(wr.events, queuedEvent{
			subject: events.QuestionCreated,
			data:    questionEvent{QuestionID: q.ID, ClusterID: q.ClusterID, Text: q.Text},
		})
		questionID = q.ID
	case decision.QuestionID != nil:
		questionID = *decision.QuestionID
	default:
		return uuid.Nil, false, errors.New("resolve question: matched without a question id")
	}

	wr.out.add(questionID, decision.Created())
	return questionID, decision.Created(), nil
}

func (w *workflow) observe(
	ctx context.Context,
	wr *writes,
	questionID uuid.UUID,
	text string,
	typ scripts.Type,
	hasSteps, succeeded bool,
) error {
	obs, err := w.rt.Scripts.Observe(ctx, scripts.ObserveCommand{
		QuestionID:       questionID,
		Text:             text,
		Type:             typ,
		HasSteps:         hasSteps,
		Succeeded:        succeeded,
		SourceDocumentID: &wr.doc.ID,
	})
	if err != nil {
		return fmt.Errorf("observe script: %w", err)
	}

	switch {
	case obs.Skipped:
		wr.scripts = append(wr.scripts, "skipped")
	case obs.Created:
		wr.out.ScriptsCreated++
		wr.scripts = append(wr.scripts, "created")
	default:
		wr.out.ScriptsUpdated++
		wr.scripts = append(wr.scripts, "updated")
	}
	return nil
}

// storeFacts replaces the document's facts, so a reprocessed document keeps
// only the facts of its latest run.
func (w *workflow) storeFacts(ctx context.Context, wr *writes, cmds []facts.CreateCommand) (int, error) {
	n, err := w.rt.Facts.Replace(ctx, wr.doc.ID, cmds)
	if err != nil {
		return 0, fmt.Errorf("store facts: %w", err)
	}
	wr.out.FactsStored = n
	return n, nil
}

func (w *workflow) record(
	ctx context.Context,
	docID uuid.UUID,
	questionID *uuid.UUID,
	c classifier.Classification,
	cluster string,
	subcategory *string,
	scriptCount int,
) (*classifications.Classification, error) {
	rec, err := w.rt.Classifications.Record(ctx, classifications.RecordCommand{
		DocumentID:   docID,
		QuestionID:   questionID,
		Cluster:      cluster,
		Subcategory:  subcategory,
		Question:     c.Question,
		Answer:       c.Answer,
		Resolution:   c.Resolution,
		Satisfaction: c.Satisfaction,
		Summary:      c.Summary,
		ScriptCount:  scriptCount,
		ModelName:    w.cfg.ModelName,
		ProviderName: w.cfg.ProviderName,
	})
	if err != nil {
		return nil, fmt.Errorf("record classification: %w", err)
	}
	return rec, nil
}

func (w *workflow) finish(ctx context.Context, docID uuid.UUID, delta summary.Delta) error {
	if err := w.rt.Summary.Add(ctx, w.now(), delta); err != nil {
		return fmt.Errorf("add daily counters: %w", err)
	}
	if err := w.rt.Documents.MarkProcessed(ctx, docID); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

func (w *workflow) finishEmpty(ctx context.Context, docID uuid.UUID, delta summary.Delta) error {
	if err := w.rt.Summary.Add(ctx, w.now(), delta); err != nil {
		return fmt.Errorf("add daily counters: %w", err)
	}
	if err := w.rt.Documents.MarkNoExtraction(ctx, docID); err != nil {
		return fmt.Errorf("mark no extraction: %w", err)
	}
	return nil
}

func (o *Outcome) add(questionID uuid.UUID, created bool) {
	o.QuestionIDs = append(o.QuestionIDs, questionID)
	if created {
		o.QuestionsCreated++
	} else {
		o.QuestionsMatched++
	}
}
