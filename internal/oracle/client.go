package oracle

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"course-matcher/internal/circuitbreaker"
	"course-matcher/internal/common/errors"
	"course-matcher/internal/common/logging"
)

// Config selects the endpoint and guards used to reach the model
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Azure deployments are used when AzureEndpoint is set; Model is then the
	// deployment name.
	AzureEndpoint   string
	AzureAPIKey     string
	AzureAPIVersion string

	// RequestsPerSecond paces outbound calls; 0 disables pacing
	RequestsPerSecond float64
	// BreakerEnabled guards the oracle with a circuit breaker
	BreakerEnabled bool
	// EstimateTokens logs a tiktoken prompt size estimate before each call
	EstimateTokens bool
}

// OpenAIClient calls the chat completions API
type OpenAIClient struct {
	client  openai.Client
	model   string
	limiter *rate.Limiter
	breaker *circuitbreaker.GoBreakerAdapter
	config  Config
	logger  logging.Logger
}

// NewOpenAIClient builds a client for the OpenAI API or an Azure OpenAI
// deployment. The SDK's own retries are disabled; a failed call fails the
// comparison.
func NewOpenAIClient(config Config, logger logging.Logger) (*OpenAIClient, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if config.Model == "" {
		return nil, errors.ConfigError("oracle model is required")
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if config.AzureEndpoint != "" {
		if config.AzureAPIKey == "" {
			return nil, errors.ConfigError("azure api key is required")
		}
		opts = append(opts,
			azure.WithEndpoint(config.AzureEndpoint, config.AzureAPIVersion),
			azure.WithAPIKey(config.AzureAPIKey),
		)
	} else {
		if config.APIKey == "" {
			return nil, errors.ConfigError("openai api key is required")
		}
		opts = append(opts, option.WithAPIKey(config.APIKey))
		if config.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(config.BaseURL))
		}
	}

	c := &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  config.Model,
		config: config,
		logger: logger.WithFields(logging.Field{"component", "oracle"}),
	}

	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	if config.BreakerEnabled {
		c.breaker = circuitbreaker.NewGoBreaker("oracle", circuitbreaker.OracleConfig, logger)
	}

	return c, nil
}

// Compare sends both texts in one prompt and returns the trimmed reply
func (c *OpenAIClient) Compare(ctx context.Context, textA, textB string) (Verdict, error) {
	prompt := BuildPrompt(textA, textB)
	logger := c.logger.WithContext(ctx)

	if c.config.EstimateTokens {
		if tokens, err := EstimateTokens(prompt, c.model); err == nil {
			logger.Debug("Estimated prompt size",
				logging.Field{"model", c.model},
				logging.Field{"prompt_tokens", tokens},
			)
		} else {
			logger.Debug("Prompt token estimate unavailable", logging.Field{"error", err.Error()})
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Verdict{}, errors.ComparisonError("comparison request was not sent", err)
		}
	}

	start := time.Now()
	var text string
	call := func() error {
		var err error
		text, err = c.complete(ctx, prompt)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(ctx, call)
	} else {
		err = call()
	}

	if err != nil {
		if errors.HasCode(err, errors.CodeBreakerOpen) && !errors.IsType(err, errors.ErrTypeComparison) {
			err = errors.ComparisonError("comparison service unavailable", err).WithCode(errors.CodeBreakerOpen)
		}
		logger.Error("Comparison failed", err, logging.Field{"model", c.model})
		return Verdict{}, err
	}

	logger.Info("Comparison completed",
		logging.Field{"model", c.model},
		logging.Field{"duration", time.Since(start).String()},
	)

	return NewVerdict(text), nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(MaxCompletionTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if stderrors.As(err, &apiErr) {
			return "", errors.ComparisonError("comparison service returned an error", err).
				WithContext("status", apiErr.StatusCode)
		}
		return "", errors.ComparisonError("comparison request failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.ComparisonError("comparison service returned no choices", nil).
			WithCode(errors.CodeMalformedReply)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.ComparisonError("comparison service returned empty content", nil).
			WithCode(errors.CodeMalformedReply)
	}
	return text, nil
}

// BreakerStats reports the circuit breaker state, or nil when disabled
func (c *OpenAIClient) BreakerStats() *circuitbreaker.Stats {
	if c.breaker == nil {
		return nil
	}
	stats := c.breaker.Stats()
	return &stats
}
