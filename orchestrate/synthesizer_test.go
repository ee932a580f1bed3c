package orchestrate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturekit/intakeflow/model"
	"github.com/venturekit/intakeflow/translate"
)

func TestSynthesizer_BlendsOutputs(t *testing.T) {
	mock := model.NewMockCompleter().QueueText("Great, a subscription model suits recurring demand. What price point do you have in mind?")
	s := NewSynthesizer(mock)

	outputs := []AgentOutput{
		{AgentName: "Market Analyst", Output: "Recurring demand supports subscriptions.", Success: true},
		{AgentName: "Context Collector", Error: "timeout", Success: false},
	}
	reply := s.Synthesize(context.Background(), "I want a subscription model", outputs, "What price point?", "")

	assert.Contains(t, reply, "subscription model")

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	prompt := reqs[0].Messages[0].Text
	assert.Contains(t, prompt, "Recurring demand supports subscriptions.")
	assert.Contains(t, prompt, "What price point?")
	assert.NotContains(t, prompt, "timeout", "failed outputs are not fed into synthesis")
}

func TestSynthesizer_CompletionFailureFallsBack(t *testing.T) {
	mock := model.NewMockCompleter().QueueError(errors.New("provider down"))
	s := NewSynthesizer(mock)

	reply := s.Synthesize(context.Background(), "hello",
		[]AgentOutput{{AgentName: "Lead", Output: "note", Success: true}}, "", "")
	assert.Equal(t, fallbackReply, reply)
}

func TestSynthesizer_NothingToSynthesize(t *testing.T) {
	mock := model.NewMockCompleter()
	s := NewSynthesizer(mock)

	reply := s.Synthesize(context.Background(), "hello", nil, "", "")
	assert.Equal(t, fallbackReply, reply)
	assert.Empty(t, mock.Requests(), "no model call when there is nothing to blend")
}

func TestSynthesizer_Translation(t *testing.T) {
	calls := 0
	translator := translate.Func(func(_ context.Context, text, targetLang, _ string) (translate.Result, error) {
		calls++
		return translate.Result{TranslatedText: "[" + targetLang + "] " + text, Success: true}, nil
	})

	mock := model.NewMockCompleter().QueueText("Sounds good.").QueueText("Sounds good.")
	s := NewSynthesizer(mock, func(o *SynthesizerOptions) {
		o.Translator = translator
	})

	outputs := []AgentOutput{{AgentName: "Lead", Output: "fine", Success: true}}

	reply := s.Synthesize(context.Background(), "ok", outputs, "", "es")
	assert.Equal(t, "[es] Sounds good.", reply)
	assert.Equal(t, 1, calls)

	// Same text and language hits the cache.
	reply = s.Synthesize(context.Background(), "ok", outputs, "", "es")
	assert.Equal(t, "[es] Sounds good.", reply)
	assert.Equal(t, 1, calls)
}

func TestSynthesizer_TranslationFailureKeepsOriginal(t *testing.T) {
	translator := translate.Func(func(context.Context, string, string, string) (translate.Result, error) {
		return translate.Result{}, errors.New("quota exceeded")
	})

	mock := model.NewMockCompleter().QueueText("All set.")
	s := NewSynthesizer(mock, func(o *SynthesizerOptions) {
		o.Translator = translator
	})

	reply := s.Synthesize(context.Background(), "ok",
		[]AgentOutput{{AgentName: "Lead", Output: "fine", Success: true}}, "", "fr")
	assert.Equal(t, "All set.", reply)
}

func TestSynthesizer_DefaultLanguageSkipsTranslator(t *testing.T) {
	translator := translate.Func(func(context.Context, string, string, string) (translate.Result, error) {
		t.Fatal("translator must not be called for the default language")
		return translate.Result{}, nil
	})

	mock := model.NewMockCompleter().QueueText("Done.")
	s := NewSynthesizer(mock, func(o *SynthesizerOptions) {
		o.Translator = translator
	})

	reply := s.Synthesize(context.Background(), "ok",
		[]AgentOutput{{AgentName: "Lead", Output: "fine", Success: true}}, "", "en")
	assert.Equal(t, "Done.", reply)
}
