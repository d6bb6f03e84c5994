package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	generativelanguage "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"

	"kickform/internal/domain"
)

// debugEnv enables outbound request dumps in debug logs.
const debugEnv = "KICKFORM_DEBUG"

// Analyzer produces a structured verdict for one captured video.
type Analyzer interface {
	Analyze(ctx context.Context, video *domain.CapturedVideo) (*domain.AnalysisResult, error)
	Close() error
}

// generator abstracts the generative client for testability.
type generator interface {
	GenerateContent(ctx context.Context, req *generativelanguagepb.GenerateContentRequest, opts ...gax.CallOption) (*generativelanguagepb.GenerateContentResponse, error)
	Close() error
}

// Gemini sends exactly one GenerateContent request per analysis. It
// does not retry, cache, or batch.
type Gemini struct {
	model        string
	client       generator
	logger       *slog.Logger
	dumpRequests bool
}

// NewGemini constructs the production adapter. A missing API key is a
// configuration failure, not a transport one.
func NewGemini(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &Error{Kind: KindConfig, Reason: "missing API key"}
	}

	client, err := generativelanguage.NewGenerativeClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &Error{Kind: KindConfig, Reason: "cannot create generative client", Err: err}
	}

	return &Gemini{
		model:        modelResource(model),
		client:       client,
		logger:       logger,
		dumpRequests: os.Getenv(debugEnv) != "",
	}, nil
}

// NewGeminiForTests constructs an adapter with an injected client.
func NewGeminiForTests(client generator, model string) *Gemini {
	return &Gemini{
		model:  modelResource(model),
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Analyze encodes the clip into a single generate request with the
// fixed instruction and response schema, then parses the reply.
func (g *Gemini) Analyze(ctx context.Context, video *domain.CapturedVideo) (*domain.AnalysisResult, error) {
	if video == nil || len(video.Data) == 0 {
		return nil, fmt.Errorf("no video data to analyze")
	}

	req := &generativelanguagepb.GenerateContentRequest{
		Model: g.model,
		Contents: []*generativelanguagepb.Content{{
			Role: "user",
			Parts: []*generativelanguagepb.Part{
				{Data: &generativelanguagepb.Part_Text{Text: instruction}},
				{Data: &generativelanguagepb.Part_InlineData{InlineData: &generativelanguagepb.Blob{
					MimeType: video.MIMEType,
					Data:     video.Data,
				}}},
			},
		}},
		GenerationConfig: &generativelanguagepb.GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
			Temperature:      proto.Float32(0.2),
		},
	}

	g.logger.Debug("sending analysis request",
		"model", g.model,
		"mime", video.MIMEType,
		"bytes", len(video.Data),
	)
	if g.dumpRequests {
		g.logger.Debug("outbound request", "dump", dumpRequest(req))
	}

	resp, err := g.client.GenerateContent(ctx, req)
	if err != nil {
		classified := classifyTransport(err)
		g.logger.Warn("analysis request failed", "kind", classified.Kind, "err", err)
		return nil, classified
	}

	result, err := parseResponse(resp)
	if err != nil {
		g.logger.Warn("analysis response rejected", "kind", KindOf(err), "err", err)
		return nil, err
	}

	g.logger.Info("analysis complete",
		"status", result.Status,
		"action", result.DetectedAction,
		"score", result.FormScore,
	)
	return result, nil
}

// Close releases the underlying client connection.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// dumpRequest renders the request as prototext with the clip bytes
// elided.
func dumpRequest(req *generativelanguagepb.GenerateContentRequest) string {
	clone := proto.Clone(req).(*generativelanguagepb.GenerateContentRequest)
	for _, content := range clone.GetContents() {
		for _, part := range content.GetParts() {
			blob := part.GetInlineData()
			if blob == nil {
				continue
			}
			blob.Data = []byte(fmt.Sprintf("<%d bytes>", len(blob.Data)))
		}
	}
	return prototext.Format(clone)
}

// modelResource expands a bare model ID to its full resource name.
func modelResource(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultModelID
	}
	if !strings.HasPrefix(name, "models/") {
		name = "models/" + name
	}
	return name
}
