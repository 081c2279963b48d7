package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/talentgate/talentgate/internal/ai"
	"github.com/talentgate/talentgate/internal/util"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	defaultLanguage     = "English"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Analyzer produces profile-fit analyses through a Gemini content
// generator. It implements ai.Analyzer.
type Analyzer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewAnalyzer builds an analyzer around the given generator.
func NewAnalyzer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Analyze sends the candidate profile and job description to Gemini and
// parses the structured analysis from its response.
func (a *Analyzer) Analyze(ctx context.Context, candidateProfile, jobDescription, outputLanguage string) (*ai.ProfileFitAnalysis, error) {
	candidateProfile = strings.TrimSpace(candidateProfile)
	if candidateProfile == "" {
		return nil, fmt.Errorf("candidate profile is required")
	}
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return nil, fmt.Errorf("job description is required")
	}
	if outputLanguage = strings.TrimSpace(outputLanguage); outputLanguage == "" {
		outputLanguage = defaultLanguage
	}

	prompt := buildPrompt(candidateProfile, jobDescription, outputLanguage)

	a.logger.Debug("gemini analyze request",
		zap.String("output_language", outputLanguage),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini analyze response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, a.maxLogLen)),
	)

	return parseAnalysis(raw)
}

func buildPrompt(candidateProfile, jobDescription, outputLanguage string) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{CANDIDATE_PROFILE}}", candidateProfile)
	prompt = strings.ReplaceAll(prompt, "{{JOB_DESCRIPTION}}", jobDescription)
	prompt = strings.ReplaceAll(prompt, "{{OUTPUT_LANGUAGE}}", outputLanguage)
	return prompt
}

func parseAnalysis(raw string) (*ai.ProfileFitAnalysis, error) {
	cleaned := extractJSON(raw)
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("gemini response is not valid JSON")
	}

	score := gjson.Get(cleaned, "suitability_score").Float()
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	analysis := &ai.ProfileFitAnalysis{
		SuitabilityScore:     score,
		SkillMatches:         stringList(cleaned, "skill_matches"),
		SkillGaps:            stringList(cleaned, "skill_gaps"),
		Summary:              strings.TrimSpace(gjson.Get(cleaned, "summary").String()),
		Suggestions:          stringList(cleaned, "suggestions"),
		RecommendedQuestions: stringList(cleaned, "recommended_questions"),
	}

	if analysis.Summary == "" && !gjson.Get(cleaned, "suitability_score").Exists() {
		return nil, fmt.Errorf("gemini response carries no analysis fields")
	}

	return analysis, nil
}

func stringList(json, path string) []string {
	values := gjson.Get(json, path).Array()
	result := make([]string, 0, len(values))
	for _, v := range values {
		s := strings.TrimSpace(v.String())
		if s == "" {
			continue
		}
		result = append(result, s)
	}
	return result
}

// extractJSON strips markdown code fences models tend to wrap JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
