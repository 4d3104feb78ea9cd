package rank

import (
	"context"
	"fmt"
	"os"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Embedder encodes texts into fixed-length vectors, one per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelFactory constructs the embedding model. It is called at most once
// per Reranker.
type ModelFactory func(ctx context.Context) (Embedder, error)

// Embedding backends.
const (
	BackendOllama  = "ollama"
	BackendOpenAI  = "openai"
	BackendHashing = "hashing"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "all-minilm"
	DefaultOpenAIModel = string(chromem.EmbeddingModelOpenAI3Small)
)

// Options selects and configures an embedding backend.
type Options struct {
	Backend string
	Model   string
	BaseURL string
	// APIKey is read from OPENAI_API_KEY when empty.
	APIKey string
	// Dimension is only used by the hashing backend.
	Dimension int
}

// NewFactory returns the ModelFactory for opts.Backend. Unknown backends are
// rejected here, before any work is scheduled.
func NewFactory(opts Options) (ModelFactory, error) {
	switch opts.Backend {
	case "", BackendOllama:
		return func(ctx context.Context) (Embedder, error) { return newOllamaEmbedder(ctx, opts) }, nil
	case BackendOpenAI:
		return func(ctx context.Context) (Embedder, error) { return newOpenAIEmbedder(opts) }, nil
	case BackendHashing:
		return func(ctx context.Context) (Embedder, error) { return NewHashingEmbedder(opts.Dimension), nil }, nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", opts.Backend)
	}
}

// ollamaEmbedder runs a sentence embedding model on an Ollama server.
type ollamaEmbedder struct {
	impl *embeddings.EmbedderImpl
}

// newOllamaEmbedder connects to the server and embeds a probe text, so an
// unreachable server or a missing model fails construction.
func newOllamaEmbedder(ctx context.Context, opts Options) (*ollamaEmbedder, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOllamaURL
	}
	if opts.Model == "" {
		opts.Model = DefaultOllamaModel
	}
	log.Debug().Str("target", "reranker").Str("base_url", opts.BaseURL).Str("model", opts.Model).Msg("creating ollama embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(opts.BaseURL),
		ollama.WithModel(opts.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama client: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	if _, err := impl.EmbedQuery(ctx, "hola"); err != nil {
		return nil, fmt.Errorf("probing model %s at %s: %w", opts.Model, opts.BaseURL, err)
	}
	return &ollamaEmbedder{impl: impl}, nil
}

func (e *ollamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.impl.EmbedDocuments(ctx, texts)
}

// openAIEmbedder calls the OpenAI embeddings endpoint, one text per request.
type openAIEmbedder struct {
	fn chromem.EmbeddingFunc
}

func newOpenAIEmbedder(opts Options) (*openAIEmbedder, error) {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai backend needs an API key (OPENAI_API_KEY)")
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	log.Debug().Str("target", "reranker").Str("model", opts.Model).Msg("creating openai embedder")
	return &openAIEmbedder{fn: chromem.NewEmbeddingFuncOpenAI(opts.APIKey, chromem.EmbeddingModelOpenAI(opts.Model))}, nil
}

func (e *openAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.fn(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
