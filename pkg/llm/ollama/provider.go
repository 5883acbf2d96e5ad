package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ImAmyth-II/OllamaChat/internal/constant"
	"github.com/ImAmyth-II/OllamaChat/internal/pkg/logger"
	"github.com/ImAmyth-II/OllamaChat/pkg/llm"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
	log       logger.ILogger
}

// Ensure OllamaProvider implements StreamingProvider
var _ llm.StreamingProvider = &OllamaProvider{}

// NewOllamaProvider builds a provider against a local Ollama server.
// The HTTP client deliberately has no timeout: a generation stream runs
// until the model finishes, fails, or the context is cancelled.
func NewOllamaProvider(baseURL, modelName string, log logger.ILogger) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client:    &http.Client{},
		log:       log,
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// --- Interface Implementation ---

// GenerateStream posts a streaming generate request and feeds each decoded
// fragment to fn in arrival order. Lines that are not valid JSON are skipped
// and logged; Ollama is known to emit partial lines around stream boundaries.
func (o *OllamaProvider) GenerateStream(ctx context.Context, prompt string, fn llm.StreamHandler, opts ...llm.Option) error {
	// 1. Process Options
	options := &llm.Options{
		Temperature: 0.7, // Default
	}
	for _, opt := range opts {
		opt(options)
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	// 2. Prepare Payload
	reqPayload := ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: true,
		Options: &ollamaOptions{
			Temperature: options.Temperature,
		},
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	// 3. Send Request
	url := o.BaseURL + constant.OllamaGenerateEndpoint
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	// 4. Scan the NDJSON stream. Cancelling ctx aborts the pending read,
	// which surfaces here as a scanner error mapped back to ctx.Err().
	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record ollamaGenerateResponse
		if err := json.Unmarshal(line, &record); err != nil {
			o.log.Warn("llm.ollama", "Skipping malformed stream line", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		if record.Response != "" {
			if err := fn(llm.Chunk{Text: record.Response}); err != nil {
				return err
			}
		}

		// done:true ends the sequence even if more bytes follow on the wire.
		if record.Done {
			return fn(llm.Chunk{Done: true})
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}

	// Upstream closed without a done record; everything received still counts.
	return nil
}
