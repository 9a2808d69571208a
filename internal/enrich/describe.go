// Package enrich generates product descriptions with an OpenAI chat model.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"fashionstore/internal/model"
)

const (
	DefaultModel   = openai.GPT4oMini
	DefaultWorkers = 4
	maxWorkers     = 16
)

// ChatCompleter is implemented by *openai.Client.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Describer fills nil descriptions. A product whose request fails keeps a
// nil description; the import goes on.
type Describer struct {
	Client  ChatCompleter
	Model   string
	Workers int
	// Limiter paces requests across workers; nil means unlimited.
	Limiter *rate.Limiter
}

// New returns a Describer backed by the OpenAI API.
func New(apiKey, model string, workers int) *Describer {
	return &Describer{
		Client:  openai.NewClient(apiKey),
		Model:   model,
		Workers: workers,
		Limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}
}

func (d *Describer) workers(jobs int) int {
	n := d.Workers
	if n <= 0 {
		n = DefaultWorkers
	}
	if n > maxWorkers {
		n = maxWorkers
	}
	if n > jobs {
		n = jobs
	}
	return n
}

// Describe writes a description into every product that has none. It
// returns an error summarizing failures; products are updated in place.
func (d *Describer) Describe(ctx context.Context, products []model.Product) error {
	var pending []int
	for i := range products {
		if products[i].Description == nil {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	jobs := make(chan int)
	var (
		wg     sync.WaitGroup
		failed int64
	)
	for i := 0; i < d.workers(len(pending)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				p := &products[idx]
				if d.Limiter != nil {
					if err := d.Limiter.Wait(ctx); err != nil {
						atomic.AddInt64(&failed, 1)
						continue
					}
				}
				text, err := d.describe(ctx, *p)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					slog.Warn("describe product", slog.Int("id", p.ID), slog.Any("error", err))
					continue
				}
				p.Description = &text
				slog.Debug("product described", slog.Int("id", p.ID))
			}
		}()
	}

	sent := 0
feed:
	for _, idx := range pending {
		select {
		case jobs <- idx:
			sent++
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("describe: %d of %d products left: %w", len(pending)-sent, len(pending), err)
	}
	if n := atomic.LoadInt64(&failed); n > 0 {
		return fmt.Errorf("describe: %d of %d products failed", n, len(pending))
	}
	return nil
}

func (d *Describer) describe(ctx context.Context, p model.Product) (string, error) {
	modelName := d.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	resp, err := d.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       modelName,
		Temperature: 0.7,
		MaxTokens:   160,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: productPrompt(p)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion for product %d", p.ID)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("blank completion for product %d", p.ID)
	}
	return text, nil
}

const systemPrompt = "You write short product descriptions for an online clothing store. " +
	"Two sentences, plain text, no prices, no invented materials."

func productPrompt(p model.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\nCategory: %s\n", p.Name, p.Category)
	if len(p.Sizes) > 0 {
		fmt.Fprintf(&b, "Sizes: %s\n", strings.Join(p.Sizes, ", "))
	}
	if p.Rating > 0 {
		fmt.Fprintf(&b, "Rating: %.1f\n", p.Rating)
	}
	for i, r := range p.Reviews {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "Review: %s\n", r.Body)
	}
	return b.String()
}
