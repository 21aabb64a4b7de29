package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"healthwatch/internal/core"
)

// LLM classifies titles through an external completion API. It satisfies the
// same Classify contract as the keyword classifier; batching, retries and
// call failures are its own policy and never surface to the pipeline — a
// failed call degrades the affected titles to unknown.
type LLM struct {
	config LLMConfig
	client *http.Client

	// cache holds resolved titles so a batch run never re-asks for the same
	// title twice. Guarded by mu: the worker shares one classifier between
	// its consumers and the periodic sweep.
	mu    sync.Mutex
	cache map[string]core.Classification
}

// LLMConfig configures the external completion endpoint.
type LLMConfig struct {
	Endpoint   string
	APIKey     string
	Model      string
	BatchSize  int
	MaxRetries int
	Timeout    time.Duration
}

// NewLLM creates an LLM-backed classifier.
func NewLLM(cfg LLMConfig) *LLM {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-lite"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &LLM{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  make(map[string]core.Classification),
	}
}

// Classify resolves a single title, consulting the cache first. Unresolvable
// titles (API failure, unparsable response) come back unknown.
func (l *LLM) Classify(title string) core.Classification {
	l.mu.Lock()
	c, ok := l.cache[title]
	l.mu.Unlock()
	if ok {
		return c
	}
	results := l.ClassifyBatch(context.Background(), []string{title})
	return results[title]
}

// ClassifyBatch resolves a set of titles in batches against the API.
// Every requested title is present in the result map; failures map to unknown.
func (l *LLM) ClassifyBatch(ctx context.Context, titles []string) map[string]core.Classification {
	results := make(map[string]core.Classification, len(titles))

	var pending []string
	l.mu.Lock()
	for _, t := range titles {
		if c, ok := l.cache[t]; ok {
			results[t] = c
			continue
		}
		pending = append(pending, t)
	}
	l.mu.Unlock()

	for start := 0; start < len(pending); start += l.config.BatchSize {
		end := start + l.config.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		resolved, err := l.callWithRetry(ctx, batch)
		if err != nil {
			slog.WarnContext(ctx, "LLM classification batch failed, degrading to unknown",
				"batch_size", len(batch), "error", err)
			for _, t := range batch {
				results[t] = core.Unknown
			}
			continue
		}
		l.mu.Lock()
		for _, t := range batch {
			c, ok := resolved[t]
			if !ok || !c.Valid() {
				c = core.Unknown
			}
			results[t] = c
			l.cache[t] = c
		}
		l.mu.Unlock()
	}
	return results
}

func (l *LLM) callWithRetry(ctx context.Context, batch []string) (map[string]core.Classification, error) {
	var lastErr error
	for attempt := 0; attempt <= l.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
		resolved, err := l.call(ctx, batch)
		if err == nil {
			return resolved, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (l *LLM) call(ctx context.Context, batch []string) (map[string]core.Classification, error) {
	prompt := buildPrompt(batch)

	payload := map[string]any{
		"model": l.config.Model,
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", l.config.Endpoint, l.config.Model, l.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call completion API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parseResponse(raw, batch)
}

func buildPrompt(titles []string) string {
	var b strings.Builder
	b.WriteString("Classify each public-sector job title as \"clinical\", \"bureaucratic\" or \"unknown\".\n")
	b.WriteString("Management, coordination and policy roles are bureaucratic even when the title sounds clinical.\n")
	b.WriteString("Respond with a JSON object mapping each title exactly as given to its classification.\n\nTitles:\n")
	for _, t := range titles {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	return b.String()
}

// geminiResponse mirrors the subset of the generateContent payload we read.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func parseResponse(raw []byte, batch []string) (map[string]core.Classification, error) {
	var gr geminiResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	// Models often wrap JSON in a fenced block.
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var mapping map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &mapping); err != nil {
		return nil, fmt.Errorf("decode classification JSON: %w", err)
	}

	out := make(map[string]core.Classification, len(batch))
	for title, label := range mapping {
		out[title] = core.Classification(strings.ToLower(strings.TrimSpace(label)))
	}
	return out, nil
}
