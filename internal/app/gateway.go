package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"regexp"
	"time"

	"go.uber.org/zap"

	"studynotes/internal/ai"
	"studynotes/internal/model"
	"studynotes/internal/pkg/apperr"
)

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type StructuredSummary struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyTopics []string `json:"keyTopics"`
	WordCount int      `json:"wordCount"`
}

type Answer struct {
	Answer     string `json:"answer"`
	Confidence string `json:"confidence"`
}

type AnswerInput struct {
	Document string
	Question string
	History  []model.QAPair
}

type GatewayOptions struct {
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// Gateway owns every prompt sent to the language model and the speech provider.
type Gateway struct {
	llm         ai.Generator
	speech      SpeechSynthesizer
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

func NewGateway(llm ai.Generator, speech SpeechSynthesizer, opts GatewayOptions, logger *zap.Logger) *Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 300 * time.Millisecond
	}
	return &Gateway{
		llm:         llm,
		speech:      speech,
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		logger:      logger,
	}
}

// SummarizeText formats free-form notes into numbered plain-text sections.
func (g *Gateway) SummarizeText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.Invalid("notes are required")
	}
	return g.complete(ctx, "summarize_text", []ai.ChatMessage{
		{Role: ai.RoleUser, Content: fmt.Sprintf(summarizePrompt, text)},
	})
}

// SummarizeDocument summarizes extracted file text with a heading per section.
func (g *Gateway) SummarizeDocument(ctx context.Context, text string) (string, error) {
	return g.complete(ctx, "summarize_document", []ai.ChatMessage{
		{Role: ai.RoleUser, Content: fmt.Sprintf(documentSummaryPrompt, text)},
	})
}

func (g *Gateway) SummarizeStructured(ctx context.Context, text string) (*StructuredSummary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Invalid("text is required")
	}
	raw, err := g.complete(ctx, "summarize_structured", []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: structuredSummarySystemPrompt},
		{Role: ai.RoleUser, Content: "Text:\n\n" + text},
	})
	if err != nil {
		return nil, err
	}

	var out StructuredSummary
	if err := decodeModelJSON(raw, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, &apperr.ParseError{Raw: raw, Err: errors.New("summary field is empty")}
	}
	if out.KeyTopics == nil {
		out.KeyTopics = []string{}
	}
	return &out, nil
}

func (g *Gateway) AnswerQuestion(ctx context.Context, input AnswerInput) (*Answer, error) {
	if strings.TrimSpace(input.Question) == "" || strings.TrimSpace(input.Document) == "" {
		return nil, apperr.Invalid("question and content are required")
	}

	messages := make([]ai.ChatMessage, 0, 2+2*len(input.History))
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: answerSystemPrompt})
	if len(input.History) > 0 {
		messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: answerUserPrompt(input.Document, input.History[0].Question)})
		messages = append(messages, ai.ChatMessage{Role: ai.RoleAssistant, Content: input.History[0].Answer})
		for _, pair := range input.History[1:] {
			messages = append(messages,
				ai.ChatMessage{Role: ai.RoleUser, Content: "Question: " + pair.Question},
				ai.ChatMessage{Role: ai.RoleAssistant, Content: pair.Answer},
			)
		}
		messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: "Question: " + input.Question})
	} else {
		messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: answerUserPrompt(input.Document, input.Question)})
	}

	raw, err := g.complete(ctx, "answer_question", messages)
	if err != nil {
		return nil, err
	}
	var out Answer
	if err := decodeModelJSON(raw, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Answer) == "" {
		return nil, &apperr.ParseError{Raw: raw, Err: errors.New("answer field is empty")}
	}
	out.Confidence = normalizeConfidence(out.Confidence)
	return &out, nil
}

func (g *Gateway) GenerateQuestions(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperr.Invalid("text is required")
	}
	out, err := g.complete(ctx, "generate_questions", []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: assistantSystemPrompt},
		{Role: ai.RoleUser, Content: fmt.Sprintf(examQuestionsPrompt, text)},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ReverseLearn rejects an unknown mode before contacting the model.
func (g *Gateway) ReverseLearn(ctx context.Context, mode, input string) (string, error) {
	template, ok := reverseLearnPrompts[mode]
	if !ok {
		return "", apperr.Invalid("invalid mode selected")
	}
	if strings.TrimSpace(input) == "" {
		return "", apperr.Invalid("input is required")
	}
	return g.complete(ctx, "reverse_learn", []ai.ChatMessage{
		{Role: ai.RoleSystem, Content: academicSystemPrompt},
		{Role: ai.RoleUser, Content: fmt.Sprintf(template, input)},
	})
}

// SuggestTitle returns a cleaned 2-3 word title, or "" when the model gave nothing usable.
func (g *Gateway) SuggestTitle(ctx context.Context, text string) (string, error) {
	out, err := g.complete(ctx, "suggest_title", []ai.ChatMessage{
		{Role: ai.RoleUser, Content: fmt.Sprintf(titlePrompt, text)},
	})
	if err != nil {
		return "", err
	}
	return cleanTitle(out), nil
}

func (g *Gateway) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Invalid("text is required")
	}
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	audio, err := g.speech.Synthesize(callCtx, text)
	if err != nil {
		if !errors.Is(err, apperr.ErrUpstream) {
			err = fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
		}
		g.logger.Error("speech synthesis failed", zap.Error(err), zap.Int("chars", len(text)))
		return nil, err
	}
	return audio, nil
}

// complete runs one model call per attempt, each bounded by the gateway timeout.
// Only upstream failures are retried.
func (g *Gateway) complete(ctx context.Context, op string, messages []ai.ChatMessage) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		out, err := g.llm.Complete(callCtx, messages)
		cancel()
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, apperr.ErrUpstream) {
			err = fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
		}
		lastErr = err
		g.logger.Warn("llm call failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.maxAttempts),
			zap.Error(err),
		)
		if attempt == g.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", apperr.ErrUpstream, ctx.Err())
		case <-time.After(g.retryDelay * time.Duration(attempt)):
		}
	}
	return "", fmt.Errorf("%s failed: %w", op, lastErr)
}

// decodeModelJSON accepts a bare JSON object, optionally wrapped in one markdown code fence.
func decodeModelJSON(raw string, dst interface{}) error {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(text, "json")
		}
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
	}
	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return &apperr.ParseError{Raw: raw, Err: err}
	}
	return nil
}

func normalizeConfidence(c string) string {
	switch c = strings.ToLower(strings.TrimSpace(c)); c {
	case "high", "medium", "low":
		return c
	default:
		return "low"
	}
}

// listMarker matches a leading "1." or "2)" the model sometimes numbers its reply with.
var listMarker = regexp.MustCompile(`^\d+[.)]\s+`)

func cleanTitle(raw string) string {
	line := strings.TrimSpace(raw)
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	line = listMarker.ReplaceAllString(line, "")
	line = strings.TrimPrefix(line, "Title:")
	line = strings.Trim(strings.TrimSpace(line), "\"'`*")
	line = strings.TrimRight(line, ".!?:;, ")
	words := strings.Fields(line)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}
