package orchestrate

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/venturekit/intakeflow/logging"
	"github.com/venturekit/intakeflow/model"
	"github.com/venturekit/intakeflow/translate"
)

// fallbackReply is returned when synthesis itself fails. The turn still
// completes; only the polish is lost.
const fallbackReply = "Thanks, I've recorded that. Let's keep going with the next step of your business model."

const translationCacheSize = 256

// Synthesizer condenses the outputs of all executed tasks into one short
// reply in the requested language.
type Synthesizer struct {
	completer  model.Completer
	translator translate.Translator
	cache      *lru.Cache[string, string]
	logger     logging.Logger
}

// SynthesizerOptions configures Synthesizer construction.
type SynthesizerOptions struct {
	Logger logging.Logger
	// Translator converts the synthesized reply into the target language.
	// Defaults to a no-op pass-through.
	Translator translate.Translator
}

// NewSynthesizer builds a Synthesizer.
func NewSynthesizer(completer model.Completer, optFns ...func(o *SynthesizerOptions)) *Synthesizer {
	opts := SynthesizerOptions{
		Logger:     logging.NoOpLogger{},
		Translator: translate.NoOp{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	cache, _ := lru.New[string, string](translationCacheSize)
	return &Synthesizer{
		completer:  completer,
		translator: opts.Translator,
		cache:      cache,
		logger:     opts.Logger,
	}
}

const synthesisSystemPrompt = `You are the voice of a business-model intake guide: a single, warm, concise advisor.
Multiple specialists have contributed notes. Blend their input into one short reply to the founder.
Do not mention the specialists or the process. If a next question is provided, end by asking it.`

// Synthesize blends all agent outputs into one reply. Failed outputs are
// skipped; a failed synthesis call degrades to a fixed fallback so the
// caller always receives usable text.
func (s *Synthesizer) Synthesize(ctx context.Context, userMessage string, outputs []AgentOutput, nextQuestion, targetLang string) string {
	reply := s.compose(ctx, userMessage, outputs, nextQuestion)
	return s.translated(ctx, reply, targetLang)
}

func (s *Synthesizer) compose(ctx context.Context, userMessage string, outputs []AgentOutput, nextQuestion string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Founder's message:\n%s\n", userMessage)

	contributed := 0
	for _, out := range outputs {
		if !out.Success || strings.TrimSpace(out.Output) == "" {
			continue
		}
		fmt.Fprintf(&b, "\nNotes from %s:\n%s\n", out.AgentName, out.Output)
		contributed++
	}
	if nextQuestion != "" {
		fmt.Fprintf(&b, "\nNext question to ask:\n%s\n", nextQuestion)
	}

	if contributed == 0 && nextQuestion == "" {
		return fallbackReply
	}

	resp, err := s.completer.Complete(ctx, model.Request{
		System:   synthesisSystemPrompt,
		Messages: []model.Message{model.UserMessage(b.String())},
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		s.logger.Warn("synthesizer.compose.fallback", "error", err)
		return fallbackReply
	}
	return resp.Text
}

// translated converts the reply into the target language. Cache hits skip
// the translator; any translation failure falls back to the untranslated
// reply rather than losing the turn.
func (s *Synthesizer) translated(ctx context.Context, text, targetLang string) string {
	if targetLang == "" || targetLang == defaultLanguage {
		return text
	}

	key := targetLang + "\x00" + text
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	result, err := s.translator.Translate(ctx, text, targetLang, defaultLanguage)
	if err != nil || !result.Success {
		s.logger.Warn("synthesizer.translate.fallback", "lang", targetLang, "error", err)
		return text
	}

	s.cache.Add(key, result.TranslatedText)
	return result.TranslatedText
}
