package cmd

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentgate/talentgate/internal/ai"
	"github.com/talentgate/talentgate/internal/ai/gemini"
	"github.com/talentgate/talentgate/internal/logger"
	"github.com/talentgate/talentgate/internal/ranking"
	"github.com/talentgate/talentgate/internal/secrets"
	"github.com/talentgate/talentgate/internal/store"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank candidates per job by profile fit and assessment results",
	Run: func(cmd *cobra.Command, _ []string) {
		rank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringSliceP("job", "J", nil, "job ids to rank; all jobs when unset")
	rankCmd.Flags().BoolP("save", "s", false, "write analyses back to the snapshot file")
}

func rank(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	st, err := store.LoadSnapshot(config.SnapshotFile)
	if err != nil {
		zlog.Fatal("loading application snapshot", zap.Error(err))
	}

	jobIDs, err := cmd.Flags().GetStringSlice("job")
	if err != nil {
		zlog.Fatal("reading job flag", zap.Error(err))
	}
	if len(jobIDs) == 0 {
		for _, job := range st.Jobs() {
			jobIDs = append(jobIDs, job.ID)
		}
	}

	if analyzer := buildAnalyzer(ctx, config, zlog); analyzer != nil {
		analyzeApplications(ctx, analyzer, st, jobIDs, config.Language, zlog)
	}

	aggregator := ranking.NewAggregator(config.Language, zlog)
	ranked, err := aggregator.RankByJob(ctx, st, jobIDs)
	if err != nil {
		zlog.Fatal("ranking candidates", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ranked); err != nil {
		zlog.Fatal("encoding ranking", zap.Error(err))
	}

	if cmd.Flag("save").Value.String() == "true" {
		if err := st.DumpSnapshot(config.SnapshotFile); err != nil {
			zlog.Fatal("saving snapshot", zap.Error(err))
		}
		zlog.Info("snapshot saved", zap.String("path", config.SnapshotFile))
	}
}

// buildAnalyzer returns nil when AI analysis is disabled or not configured.
// Ranking then falls back to assessment scores and stored analyses alone.
func buildAnalyzer(ctx context.Context, config *Config, zlog *zap.Logger) ai.Analyzer {
	if config.AI == nil || !config.AI.Enabled {
		zlog.Debug("AI analysis is disabled")
		return nil
	}

	if config.AI.Provider != "" && config.AI.Provider != "gemini" {
		zlog.Fatal("unknown AI provider", zap.String("provider", config.AI.Provider))
	}
	if config.AI.Gemini == nil {
		zlog.Fatal("AI analysis is enabled but gemini is not configured")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.AI.Gemini.APIKeyFile,
	})
	if err != nil {
		zlog.Fatal("loading gemini api key", zap.Error(err))
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, config.AI.Gemini.Model, config.AI.Gemini.MaxRetries, zlog)
	if err != nil {
		zlog.Fatal("creating gemini client", zap.Error(err))
	}

	alog := logger.WithCommonFields(zlog, "gemini", generator.Model())

	return gemini.NewAnalyzer(generator, alog, config.AI.Gemini.MaxLogLength)
}

// analyzeApplications fills in missing profile fit analyses for the requested
// jobs. A failed analysis leaves the candidate without the signal instead of
// failing the whole ranking.
func analyzeApplications(ctx context.Context, analyzer ai.Analyzer, st *store.Memory, jobIDs []string, language string, zlog *zap.Logger) {
	for _, jobID := range jobIDs {
		job, err := st.Job(jobID)
		if err != nil {
			zlog.Warn("skipping unknown job", zap.String("job_id", jobID), zap.Error(err))
			continue
		}

		apps, err := st.ApplicationsByJob(jobID)
		if err != nil {
			zlog.Warn("listing applications", zap.String("job_id", jobID), zap.Error(err))
			continue
		}

		for _, app := range apps {
			if _, ok := app.Analysis[language]; ok {
				continue
			}
			if app.Profile == "" {
				zlog.Debug("application has no profile to analyze", zap.String("application_id", app.ID))
				continue
			}

			analysis, err := analyzer.Analyze(ctx, app.Profile, job.Description, language)
			if err != nil {
				zlog.Warn("profile analysis failed",
					zap.String("application_id", app.ID),
					zap.Error(err),
				)
				continue
			}

			if err := st.SaveAnalysis(app.ID, language, *analysis); err != nil {
				zlog.Warn("saving analysis", zap.String("application_id", app.ID), zap.Error(err))
				continue
			}

			zlog.Info("profile analyzed",
				zap.String("application_id", app.ID),
				zap.Float64("suitability_score", analysis.SuitabilityScore),
			)
		}
	}
}
