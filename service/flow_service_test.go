package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type hangingCompleter struct{}

func (hangingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestRateEffectivenessParsesResponse(t *testing.T) {
	completer := &fakeCompleter{response: `{"effectivenessRating": 8, "summary": "Mood improved significantly."}`}
	svc := NewFlowService(FlowWithCompleter(completer))

	out, err := svc.RateEffectiveness(context.Background(), RateEffectivenessInput{
		SessionType:     "Calm Room",
		DurationMinutes: 20,
		MoodBefore:      "Anxious",
		MoodAfter:       "Calm",
	})
	require.NoError(t, err)
	assert.Equal(t, 8.0, out.EffectivenessRating)
	assert.Equal(t, "Mood improved significantly.", out.Summary)
}

func TestRateEffectivenessSchemaViolation(t *testing.T) {
	cases := map[string]string{
		"not json":          `the session went well`,
		"rating too high":   `{"effectivenessRating": 15, "summary": "ok"}`,
		"rating too low":    `{"effectivenessRating": 0, "summary": "ok"}`,
		"missing summary":   `{"effectivenessRating": 7}`,
		"wrong value types": `{"effectivenessRating": "seven", "summary": "ok"}`,
	}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			completer := &fakeCompleter{response: response}
			svc := NewFlowService(FlowWithCompleter(completer))

			_, err := svc.RateEffectiveness(context.Background(), RateEffectivenessInput{
				SessionType:     "Calm Room",
				DurationMinutes: 20,
				MoodBefore:      "Anxious",
				MoodAfter:       "Calm",
			})
			assert.ErrorIs(t, err, ErrSchemaViolation)
			// Exactly one completion, no repair attempts.
			assert.Equal(t, 1, completer.calls)
		})
	}
}

func TestFlowStripsCodeFences(t *testing.T) {
	completer := &fakeCompleter{response: "```json\n{\"summary\": \"Patient shows steady improvement.\"}\n```"}
	svc := NewFlowService(FlowWithCompleter(completer))

	out, err := svc.SummarizeNotes(context.Background(), SummarizeNotesInput{PatientData: "cognition 8.2, mood Calm"})
	require.NoError(t, err)
	assert.Equal(t, "Patient shows steady improvement.", out.Summary)
}

func TestFlowTimeoutIsUnavailable(t *testing.T) {
	svc := NewFlowService(FlowWithCompleter(hangingCompleter{}), FlowWithTimeout(10*time.Millisecond))

	_, err := svc.SummarizeNotes(context.Background(), SummarizeNotesInput{PatientData: "cognition 8.2"})
	assert.ErrorIs(t, err, ErrFlowUnavailable)
}

func TestFlowInputValidation(t *testing.T) {
	completer := &fakeCompleter{response: `{}`}
	svc := NewFlowService(FlowWithCompleter(completer))
	ctx := context.Background()

	_, err := svc.AnalyzeHeatmap(ctx, AnalyzeHeatmapInput{})
	assert.ErrorIs(t, err, ErrInvalidFlowInput)

	_, err = svc.SimulateDream(ctx, SimulateDreamInput{Emotion: "calm"})
	assert.ErrorIs(t, err, ErrInvalidFlowInput)

	_, err = svc.RateEffectiveness(ctx, RateEffectivenessInput{SessionType: "Calm Room", MoodBefore: "Sad", MoodAfter: "Calm"})
	assert.ErrorIs(t, err, ErrInvalidFlowInput)

	_, err = svc.CompareFeedback(ctx, CompareFeedbackInput{JournalEntries: "..."})
	assert.ErrorIs(t, err, ErrInvalidFlowInput)

	// Invalid input never reaches the model.
	assert.Equal(t, 0, completer.calls)
}

func TestAnalyzeHeatmapValidatesEntries(t *testing.T) {
	completer := &fakeCompleter{response: `{"dominantEmotions": [{"time": "morning"}], "patternDetections": [], "insights": []}`}
	svc := NewFlowService(FlowWithCompleter(completer))

	_, err := svc.AnalyzeHeatmap(context.Background(), AnalyzeHeatmapInput{HeatmapData: "morning: anxious"})
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

func TestSimulateDreamRequiresBothFields(t *testing.T) {
	completer := &fakeCompleter{response: `{"dreamEnvironment": "A starlit beach", "therapeuticSuggestions": ""}`}
	svc := NewFlowService(FlowWithCompleter(completer))

	_, err := svc.SimulateDream(context.Background(), SimulateDreamInput{Emotion: "anxious", UserJournal: "Rough day."})
	assert.ErrorIs(t, err, ErrSchemaViolation)
}
