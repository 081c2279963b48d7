package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentgate/talentgate/internal/assignment"
	"github.com/talentgate/talentgate/internal/evaluation"
	"github.com/talentgate/talentgate/internal/logger"
	"github.com/talentgate/talentgate/internal/session"
	"github.com/talentgate/talentgate/internal/store"
)

const (
	PromptNext   = "Next question"
	PromptBack   = "Previous question"
	PromptFinish = "Finish evaluation"
)

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Drive a candidate through an assigned evaluation interactively",
	Run: func(cmd *cobra.Command, _ []string) {
		take(cmd)
	},
}

func init() {
	rootCmd.AddCommand(takeCmd)

	takeCmd.Flags().StringP("application", "a", "", "application id; prompted for when unset")
	takeCmd.Flags().StringP("evaluation", "e", "", "evaluation id; prompted for when unset")
	takeCmd.Flags().BoolP("save", "s", false, "write the updated snapshot back to the snapshot file")
}

func take(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	registry := evaluation.NewRegistry()
	catalog, err := evaluation.LoadCatalog(config.CatalogFile, registry)
	if err != nil {
		zlog.Fatal("loading evaluation catalog", zap.Error(err))
	}

	st, err := store.LoadSnapshot(config.SnapshotFile)
	if err != nil {
		zlog.Fatal("loading application snapshot", zap.Error(err))
	}

	application, err := pickApplication(cmd, st)
	if err != nil {
		zlog.Fatal("selecting application", zap.Error(err))
	}

	eval, asn, err := pickAssignment(cmd, catalog, application)
	if err != nil {
		zlog.Fatal("selecting assignment", zap.Error(err))
	}

	// The store persists every transition as a sink of the manager.
	manager := assignment.NewManager(zlog, st)
	if err := manager.Begin(application.ID, asn); err != nil {
		zlog.Fatal("beginning assignment", zap.Error(err))
	}

	sessions := session.NewManager(registry, zlog, session.DefaultTickInterval, true)
	s, err := sessions.Open(ctx, application.CandidateID, eval)
	if err != nil {
		zlog.Fatal("opening session", zap.Error(err))
	}
	defer sessions.Close(s.ID)

	if err := runSession(s.Controller, zlog); err != nil {
		zlog.Fatal("session aborted", zap.Error(err))
	}

	result, err := s.Controller.Result()
	if err != nil {
		zlog.Fatal("reading session result", zap.Error(err))
	}

	score, err := registry.ScoreEvaluation(eval, result.Answers)
	if err != nil {
		zlog.Fatal("scoring evaluation", zap.Error(err))
	}

	if err := manager.Complete(application.ID, asn, score); err != nil {
		zlog.Fatal("completing assignment", zap.Error(err))
	}

	fields := []zap.Field{
		zap.String("application_id", application.ID),
		zap.String("evaluation_id", eval.ID),
		zap.Int("answered", len(result.Answers)),
		zap.Int("elapsed_seconds", result.ElapsedSeconds),
	}
	if score != nil {
		fields = append(fields, zap.Float64("score", *score))
	}
	zlog.Info("evaluation completed", fields...)

	if cmd.Flag("save").Value.String() == "true" {
		if err := st.DumpSnapshot(config.SnapshotFile); err != nil {
			zlog.Fatal("saving snapshot", zap.Error(err))
		}
		zlog.Info("snapshot saved", zap.String("path", config.SnapshotFile))
	}
}

// runSession renders questions and feeds the candidate's input to the
// controller until the session finishes. A countdown expiry between prompt
// and submission makes the stale action a no-op.
func runSession(c *session.Controller, zlog *zap.Logger) error {
	for {
		view := c.Snapshot()
		if view.State == session.StateFinished {
			return nil
		}

		shape, err := c.CurrentShape()
		if err != nil {
			if errors.Is(err, session.ErrSessionFinished) {
				return nil
			}
			return err
		}

		answer, action, err := askQuestion(shape, view)
		if err != nil {
			return err
		}

		switch action {
		case PromptBack:
			if err := c.Retreat(); err != nil {
				return err
			}
			continue
		case PromptFinish:
			if _, err := c.Finish(); err != nil {
				if errors.Is(err, session.ErrIncompleteEvaluation) {
					zlog.Warn("evaluation is not complete yet", zap.Error(err))
					continue
				}
				return err
			}
			return nil
		}

		if answer != nil {
			if err := c.RecordAnswer(view.QuestionID, *answer); err != nil {
				if errors.Is(err, session.ErrQuestionLocked) {
					zlog.Warn("question timed out before the answer was submitted",
						zap.String("question_id", view.QuestionID),
					)
					continue
				}
				if errors.Is(err, session.ErrSessionFinished) {
					return nil
				}
				return err
			}
		}

		if _, err := c.AdvanceFrom(view.Index); err != nil {
			if errors.Is(err, session.ErrSessionFinished) {
				return nil
			}
			return err
		}
	}
}

func askQuestion(shape *evaluation.Shape, view session.View) (*evaluation.Answer, string, error) {
	label := shape.Prompt
	if shape.TimeLimit > 0 {
		label = fmt.Sprintf("[%ds left] %s", view.RemainingSeconds, shape.Prompt)
	}

	switch {
	case shape.PairSelection:
		return askForcedChoice(label, shape)
	case shape.FreeForm:
		return askOpenEnded(label)
	default:
		return askMultipleChoice(label, shape)
	}
}

func askMultipleChoice(label string, shape *evaluation.Shape) (*evaluation.Answer, string, error) {
	items := make([]string, 0, len(shape.Choices)+3)
	for _, choice := range shape.Choices {
		items = append(items, choice.Text)
	}
	items = append(items, PromptNext, PromptBack, PromptFinish)

	idx, selected, err := (&promptui.Select{Label: label, Items: items}).Run()
	if err != nil {
		return nil, "", err
	}

	if idx >= len(shape.Choices) {
		return nil, selected, nil
	}

	return &evaluation.Answer{OptionID: shape.Choices[idx].ID}, "", nil
}

func askForcedChoice(label string, shape *evaluation.Shape) (*evaluation.Answer, string, error) {
	items := make([]string, 0, len(shape.Choices)+3)
	for _, choice := range shape.Choices {
		items = append(items, choice.Text)
	}
	items = append(items, PromptNext, PromptBack, PromptFinish)

	mostIdx, selected, err := (&promptui.Select{
		Label: label + " (most like you)",
		Items: items,
	}).Run()
	if err != nil {
		return nil, "", err
	}
	if mostIdx >= len(shape.Choices) {
		return nil, selected, nil
	}

	rest := make([]string, 0, len(shape.Choices)-1)
	restIDs := make([]string, 0, len(shape.Choices)-1)
	for i, choice := range shape.Choices {
		if i == mostIdx {
			continue
		}
		rest = append(rest, choice.Text)
		restIDs = append(restIDs, choice.ID)
	}

	leastIdx, _, err := (&promptui.Select{
		Label: label + " (least like you)",
		Items: rest,
	}).Run()
	if err != nil {
		return nil, "", err
	}

	return &evaluation.Answer{
		MostLikeID:  shape.Choices[mostIdx].ID,
		LeastLikeID: restIDs[leastIdx],
	}, "", nil
}

func askOpenEnded(label string) (*evaluation.Answer, string, error) {
	text, err := (&promptui.Prompt{Label: label + " (empty input to navigate)"}).Run()
	if err != nil {
		return nil, "", err
	}

	if text == "" {
		_, selected, err := (&promptui.Select{
			Label: "Navigate",
			Items: []string{PromptNext, PromptBack, PromptFinish},
		}).Run()
		if err != nil {
			return nil, "", err
		}
		return nil, selected, nil
	}

	return &evaluation.Answer{Text: text}, "", nil
}

func pickApplication(cmd *cobra.Command, st *store.Memory) (*store.Application, error) {
	if id := cmd.Flag("application").Value.String(); id != "" {
		return st.Application(id)
	}

	var items []string
	var apps []*store.Application
	for _, job := range st.Jobs() {
		jobApps, err := st.ApplicationsByJob(job.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range jobApps {
			items = append(items, fmt.Sprintf("%s %s / %s", a.ID, a.CandidateName, job.Title))
			apps = append(apps, a)
		}
	}
	if len(apps) == 0 {
		return nil, fmt.Errorf("no applications in snapshot")
	}

	idx, _, err := (&promptui.Select{
		Label: "Choose an application",
		Items: items,
	}).Run()
	if err != nil {
		return nil, err
	}

	return apps[idx], nil
}

func pickAssignment(cmd *cobra.Command, catalog *evaluation.Catalog, application *store.Application) (*evaluation.Evaluation, *assignment.Assignment, error) {
	if len(application.Assignments) == 0 {
		return nil, nil, fmt.Errorf("application %s has no assigned evaluations", application.ID)
	}

	evalID := cmd.Flag("evaluation").Value.String()
	if evalID == "" {
		items := make([]string, 0, len(application.Assignments))
		for i := range application.Assignments {
			asn := &application.Assignments[i]
			items = append(items, fmt.Sprintf("%s (%s)", asn.EvaluationID, asn.Status))
		}

		idx, _, err := (&promptui.Select{
			Label: "Choose an evaluation",
			Items: items,
		}).Run()
		if err != nil {
			return nil, nil, err
		}
		evalID = application.Assignments[idx].EvaluationID
	}

	asn := application.AssignmentFor(evalID)
	if asn == nil {
		return nil, nil, fmt.Errorf("evaluation %s is not assigned to application %s", evalID, application.ID)
	}

	eval, err := catalog.Get(evalID)
	if err != nil {
		return nil, nil, err
	}

	return eval, asn, nil
}
