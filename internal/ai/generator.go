package ai

import (
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultRetryDelay = 2 * time.Second

type Generator struct {
	client     *openai.Client
	model      string
	retryDelay time.Duration
}

// NewGenerator returns a generator using the given chat model. An empty
// model selects GPT-4o.
func NewGenerator(apiKey string, model string) *Generator {
	return NewGeneratorWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewGeneratorWithConfig allows pointing the client at another base URL.
func NewGeneratorWithConfig(config openai.ClientConfig, model string) *Generator {
	if model == "" {
		model = openai.GPT4o
	}
	return &Generator{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		retryDelay: defaultRetryDelay,
	}
}
