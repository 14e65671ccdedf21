package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/goanswer/internal/answer"
	"github.com/hyperifyio/goanswer/internal/cache"
	"github.com/hyperifyio/goanswer/internal/llm"
)

// ErrEmptyCompletion indicates the model returned no usable reply text.
var ErrEmptyCompletion = errors.New("synth: empty completion")

const systemPrompt = "You are a concise research assistant. Answer the user's question using the provided web context. " +
	"Cite sources inline using [n] notation matching the provided source list. If unsure, say you don't know."

// Synthesizer delegates answer writing to a chat model while preserving the
// [n] citation contract. Any failure is the caller's cue to fall back to the
// extractive summarizer.
type Synthesizer struct {
	Client llm.Client
	Model  string
	Cache  *cache.Store
	TTL    time.Duration

	// MaxDocs, MaxDocChars, and MaxContextChars bound the prompt context.
	// Zero values select 5, 1500, and 8000.
	MaxDocs         int
	MaxDocChars     int
	MaxContextChars int
}

// Synthesize asks the model for a cited answer over the given documents. The
// returned sources are exactly the documents offered in the prompt, in
// prompt order, so inline [n] markers resolve against them.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, docs []answer.Document) (answer.Answer, error) {
	if s.Client == nil || strings.TrimSpace(s.Model) == "" {
		return answer.Answer{}, errors.New("synth: not configured")
	}
	user, used := s.buildUserMessage(query, docs)
	if len(used) == 0 {
		return answer.Answer{}, ErrEmptyCompletion
	}

	cacheInput := s.Model + "\n" + systemPrompt + "\n" + user
	var reply string
	err := s.Cache.GetOrCompute(ctx, cache.NamespaceLLM, cacheInput, s.TTL, &reply, func(ctx context.Context) (any, error) {
		return s.complete(ctx, user)
	})
	if err != nil {
		return answer.Answer{}, err
	}
	if strings.TrimSpace(reply) == "" {
		return answer.Answer{}, ErrEmptyCompletion
	}
	return answer.Answer{Reply: strings.TrimSpace(reply), Sources: used}, nil
}

func (s *Synthesizer) complete(ctx context.Context, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   500,
		N:           1,
	}
	resp, err := s.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		// One short retry for transient failures; the context deadline still
		// bounds the total wait.
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
		resp, err = s.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("synthesis call (after retry): %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

func (s *Synthesizer) buildUserMessage(query string, docs []answer.Document) (string, []answer.Source) {
	maxDocs := s.MaxDocs
	if maxDocs <= 0 {
		maxDocs = 5
	}
	maxDocChars := s.MaxDocChars
	if maxDocChars <= 0 {
		maxDocChars = 1500
	}
	maxContext := s.MaxContextChars
	if maxContext <= 0 {
		maxContext = 8000
	}

	var chunks []string
	var used []answer.Source
	total := 0
	for _, d := range docs {
		if len(used) >= maxDocs {
			break
		}
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		if len(text) > maxDocChars {
			text = text[:maxDocChars] + "…"
		}
		title := d.Title
		if title == "" {
			title = "Untitled"
		}
		chunk := fmt.Sprintf("[%d] %s\nURL: %s\nContent:\n%s\n", len(used)+1, title, d.URL, text)
		chunks = append(chunks, chunk)
		used = append(used, answer.Source{URL: d.URL, Title: title})
		total += len(chunk)
		if total > maxContext {
			break
		}
	}

	contextBlock := "No external context available."
	if len(chunks) > 0 {
		contextBlock = strings.Join(chunks, "\n\n")
	}
	user := fmt.Sprintf(
		"Question: %s\n\nSources:\n%s\n\nWrite a helpful, truthful answer in 4-8 sentences. Include citations like [1], [2] where relevant.",
		query, contextBlock,
	)
	return user, used
}
