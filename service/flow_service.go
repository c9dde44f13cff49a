package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
)

var (
	// ErrSchemaViolation means the model's response failed output
	// validation. The gateway never repairs or re-prompts.
	ErrSchemaViolation = errors.New("ai response violates output schema")
	// ErrFlowUnavailable means the generation call did not complete in
	// time or the service could not be reached.
	ErrFlowUnavailable = errors.New("ai service unavailable")
	// ErrInvalidFlowInput means a required input field is missing.
	ErrInvalidFlowInput = errors.New("invalid flow input")
)

// Completer performs one prompt-completion round trip. Exactly one
// completion per call; no streaming, no retries.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiCompleter backs the gateway with the Gemini API in JSON response
// mode.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a new Gemini-backed completer
func NewGeminiCompleter(client *genai.Client, model string) *GeminiCompleter {
	return &GeminiCompleter{client: client, model: model}
}

// Complete sends the prompt and concatenates the text parts of the first
// candidate's content.
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("api returned no candidates")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("api returned empty content")
	}
	return out.String(), nil
}

// FlowService is the gateway to the generative-text service: each flow is a
// fixed prompt template over a closed input schema, returning a validated
// closed output schema. The gateway holds no state and never writes to the
// store; persisting derived results is the caller's job.
type FlowService struct {
	completer Completer
	timeout   time.Duration
	logger    zerolog.Logger
}

// FlowServiceOption is a functional option for FlowService
type FlowServiceOption func(*FlowService)

// FlowWithCompleter sets the completer
func FlowWithCompleter(c Completer) FlowServiceOption {
	return func(s *FlowService) {
		s.completer = c
	}
}

// FlowWithTimeout bounds each generation call. Without it a stuck upstream
// would hang the caller indefinitely.
func FlowWithTimeout(d time.Duration) FlowServiceOption {
	return func(s *FlowService) {
		s.timeout = d
	}
}

// FlowWithLogger sets the logger
func FlowWithLogger(logger zerolog.Logger) FlowServiceOption {
	return func(s *FlowService) {
		s.logger = logger
	}
}

// NewFlowService creates a new flow service
func NewFlowService(opts ...FlowServiceOption) *FlowService {
	s := &FlowService{
		timeout: 45 * time.Second,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// complete runs one round trip under the flow timeout and decodes the JSON
// payload into out. Any non-conforming payload is a schema violation.
func (s *FlowService) complete(ctx context.Context, flow, prompt string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn().Str("flow", flow).Dur("timeout", s.timeout).Msg("generation timed out")
			return ErrFlowUnavailable
		}
		s.logger.Warn().Err(err).Str("flow", flow).Msg("generation call failed")
		return fmt.Errorf("%w: %v", ErrFlowUnavailable, err)
	}

	if err := json.Unmarshal([]byte(stripFences(raw)), out); err != nil {
		s.logger.Warn().Err(err).Str("flow", flow).Msg("response is not valid json")
		return ErrSchemaViolation
	}
	return nil
}

// stripFences removes a markdown code fence the model sometimes wraps JSON
// in despite the response MIME type.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	return strings.TrimSpace(raw)
}

// --- Heatmap analysis ---

// AnalyzeHeatmapInput is the closed input schema for heatmap analysis.
type AnalyzeHeatmapInput struct {
	HeatmapData string `json:"heatmapData"`
	UserJournal string `json:"userJournal,omitempty"`
}

// DominantEmotion pairs a time of day with its dominant emotion.
type DominantEmotion struct {
	Time    string `json:"time"`
	Emotion string `json:"emotion"`
}

// AnalyzeHeatmapOutput is the closed output schema for heatmap analysis.
type AnalyzeHeatmapOutput struct {
	DominantEmotions  []DominantEmotion `json:"dominantEmotions"`
	PatternDetections []string          `json:"patternDetections"`
	Insights          []string          `json:"insights"`
}

// AnalyzeHeatmap identifies dominant emotions and anxiety/burnout/
// dissociation patterns in emotional heatmap data.
func (s *FlowService) AnalyzeHeatmap(ctx context.Context, input AnalyzeHeatmapInput) (*AnalyzeHeatmapOutput, error) {
	if input.HeatmapData == "" {
		return nil, fmt.Errorf("%w: heatmapData is required", ErrInvalidFlowInput)
	}

	journal := input.UserJournal
	if journal == "" {
		journal = "No user journal entries provided."
	}
	prompt := fmt.Sprintf(`You are an expert in analyzing emotional heatmaps to identify trends and patterns in user emotions.

Analyze the provided emotional heatmap data and user journal entries (if available) to identify dominant emotions at different times of the day and detect patterns related to anxiety, burnout, or dissociation.

Emotional Heatmap Data:
%s

User Journal Entries:
%s

Respond with a JSON object:
{
  "dominantEmotions": [{"time": "time of day", "emotion": "dominant emotion"}],
  "patternDetections": ["pattern related to anxiety, burnout, or dissociation"],
  "insights": ["additional insight from the heatmap and journal entries"]
}`, input.HeatmapData, journal)

	out := &AnalyzeHeatmapOutput{}
	if err := s.complete(ctx, "analyzeEmotionalHeatmap", prompt, out); err != nil {
		return nil, err
	}
	if out.DominantEmotions == nil && out.PatternDetections == nil && out.Insights == nil {
		return nil, ErrSchemaViolation
	}
	for _, e := range out.DominantEmotions {
		if e.Time == "" || e.Emotion == "" {
			return nil, ErrSchemaViolation
		}
	}
	return out, nil
}

// --- Dream simulation ---

// SimulateDreamInput is the closed input schema for dream simulation.
type SimulateDreamInput struct {
	Emotion     string `json:"emotion"`
	UserJournal string `json:"userJournal"`
}

// SimulateDreamOutput is the closed output schema for dream simulation.
type SimulateDreamOutput struct {
	DreamEnvironment       string `json:"dreamEnvironment"`
	TherapeuticSuggestions string `json:"therapeuticSuggestions"`
}

// SimulateDream generates a personalized dream environment for the
// patient's current emotional state.
func (s *FlowService) SimulateDream(ctx context.Context, input SimulateDreamInput) (*SimulateDreamOutput, error) {
	if input.Emotion == "" || input.UserJournal == "" {
		return nil, fmt.Errorf("%w: emotion and userJournal are required", ErrInvalidFlowInput)
	}

	prompt := fmt.Sprintf(`You are an AI dream simulation generator designed to create personalized and immersive therapy sessions based on user emotions.

The patient is currently feeling: %s.
The latest entry in their journal is: %s

Generate a dream environment tailored to this emotional state, and provide therapeutic suggestions for actions within the dream. The dream environment should feel immersive and personalized.

Respond with a JSON object:
{
  "dreamEnvironment": "a description of the AI-simulated dream environment",
  "therapeuticSuggestions": "suggestions for therapeutic actions within the dream environment"
}`, input.Emotion, input.UserJournal)

	out := &SimulateDreamOutput{}
	if err := s.complete(ctx, "aiDrivenDreamSimulation", prompt, out); err != nil {
		return nil, err
	}
	if out.DreamEnvironment == "" || out.TherapeuticSuggestions == "" {
		return nil, ErrSchemaViolation
	}
	return out, nil
}

// --- Notes summary ---

// SummarizeNotesInput is the closed input schema for the notes summary.
type SummarizeNotesInput struct {
	PatientData string `json:"patientData"`
}

// SummarizeNotesOutput is the closed output schema for the notes summary.
type SummarizeNotesOutput struct {
	Summary string `json:"summary"`
}

// SummarizeNotes produces a doctor-facing summary of key trends in patient
// data.
func (s *FlowService) SummarizeNotes(ctx context.Context, input SummarizeNotesInput) (*SummarizeNotesOutput, error) {
	if input.PatientData == "" {
		return nil, fmt.Errorf("%w: patientData is required", ErrInvalidFlowInput)
	}

	prompt := fmt.Sprintf(`You are an AI assistant that specializes in summarizing patient data for doctors.

Based on the patient data provided, generate a concise summary of key trends and insights regarding the patient's mental state.

Patient Data: %s

Respond with a JSON object:
{
  "summary": "a summary of the AI notes based on the patient data"
}`, input.PatientData)

	out := &SummarizeNotesOutput{}
	if err := s.complete(ctx, "generateAiNotesSummary", prompt, out); err != nil {
		return nil, err
	}
	if out.Summary == "" {
		return nil, ErrSchemaViolation
	}
	return out, nil
}

// --- Effectiveness rating ---

// RateEffectivenessInput is the closed input schema for the session
// effectiveness rating. DurationMinutes is the one numeric input across the
// five flows.
type RateEffectivenessInput struct {
	SessionType         string `json:"sessionType"`
	DurationMinutes     int    `json:"duration"`
	MoodBefore          string `json:"moodBefore"`
	MoodAfter           string `json:"moodAfter"`
	UserJournalFeedback string `json:"userJournalFeedback"`
}

// RateEffectivenessOutput is the closed output schema for the rating.
type RateEffectivenessOutput struct {
	EffectivenessRating float64 `json:"effectivenessRating"`
	Summary             string  `json:"summary"`
}

// RateEffectiveness scores a therapy session 1-10 with a short rationale.
func (s *FlowService) RateEffectiveness(ctx context.Context, input RateEffectivenessInput) (*RateEffectivenessOutput, error) {
	if input.SessionType == "" || input.MoodBefore == "" || input.MoodAfter == "" || input.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: sessionType, duration, moodBefore and moodAfter are required", ErrInvalidFlowInput)
	}

	prompt := fmt.Sprintf(`You are an AI that analyzes therapy session data and generates an effectiveness rating.

Based on the following information, provide an effectivenessRating (1-10) and a brief summary of your reasoning:

Session Type: %s
Duration: %d minutes
Mood Before: %s
Mood After: %s
User Journal Feedback: %s

Consider the session highly effective if the mood improved significantly and the user feedback is positive. Consider it ineffective if the mood worsened or the user feedback is negative.

Respond with a JSON object:
{
  "effectivenessRating": 7,
  "summary": "a brief summary of why the session was rated as such"
}`, input.SessionType, input.DurationMinutes, input.MoodBefore, input.MoodAfter, input.UserJournalFeedback)

	out := &RateEffectivenessOutput{}
	if err := s.complete(ctx, "generateEffectivenessRating", prompt, out); err != nil {
		return nil, err
	}
	if out.EffectivenessRating < 1 || out.EffectivenessRating > 10 || out.Summary == "" {
		return nil, ErrSchemaViolation
	}
	return out, nil
}

// --- Feedback comparison ---

// CompareFeedbackInput is the closed input schema for feedback comparison.
type CompareFeedbackInput struct {
	JournalEntries string `json:"journalEntries"`
	MoodTrends     string `json:"moodTrends"`
}

// CompareFeedbackOutput is the closed output schema for feedback comparison.
type CompareFeedbackOutput struct {
	Insights string `json:"insights"`
}

// CompareFeedback cross-references journal entries with mood trends to
// surface personalized insights and potential triggers.
func (s *FlowService) CompareFeedback(ctx context.Context, input CompareFeedbackInput) (*CompareFeedbackOutput, error) {
	if input.JournalEntries == "" || input.MoodTrends == "" {
		return nil, fmt.Errorf("%w: journalEntries and moodTrends are required", ErrInvalidFlowInput)
	}

	prompt := fmt.Sprintf(`You are an AI assistant specializing in mental health analysis.

You will be provided with a patient's journal entries and mood trends. Your goal is to identify potential triggers for mood changes and give personalized insights.

Journal Entries: %s

Mood Trends: %s

Based on the journal entries and mood trends, provide personalized insights and potential triggers for mood changes.

Respond with a JSON object:
{
  "insights": "personalized insights and potential triggers"
}`, input.JournalEntries, input.MoodTrends)

	out := &CompareFeedbackOutput{}
	if err := s.complete(ctx, "mindFeedbackComparison", prompt, out); err != nil {
		return nil, err
	}
	if out.Insights == "" {
		return nil, ErrSchemaViolation
	}
	return out, nil
}
