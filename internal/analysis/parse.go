package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"

	"kickform/internal/domain"
)

// parseResponse validates the service response and decodes it into the
// result model. It returns a well-typed value or a classified error,
// never partially-trusted data.
func parseResponse(resp *generativelanguagepb.GenerateContentResponse) (*domain.AnalysisResult, error) {
	if resp == nil {
		return nil, &Error{Kind: KindEmptyResponse, Reason: "no response"}
	}

	if fb := resp.GetPromptFeedback(); fb != nil {
		if reason := fb.GetBlockReason(); reason != generativelanguagepb.GenerateContentResponse_PromptFeedback_BLOCK_REASON_UNSPECIFIED {
			return nil, &Error{Kind: KindSafety, Reason: "prompt blocked: " + reason.String()}
		}
	}

	candidates := resp.GetCandidates()
	if len(candidates) == 0 {
		return nil, &Error{Kind: KindEmptyResponse, Reason: "no candidates returned"}
	}

	candidate := candidates[0]
	if candidate.GetFinishReason() == generativelanguagepb.Candidate_SAFETY {
		return nil, &Error{Kind: KindSafety, Reason: "candidate blocked by safety filter"}
	}

	var sb strings.Builder
	for _, part := range candidate.GetContent().GetParts() {
		sb.WriteString(part.GetText())
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, &Error{Kind: KindEmptyResponse, Reason: "empty response body"}
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(stripFences(text)), &result); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Reason: "response is not valid JSON", Err: err}
	}

	if err := validate(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// stripFences removes the markdown code fence the model occasionally
// wraps around JSON output despite the response MIME type.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// validate enforces the response-shape contract beyond JSON syntax.
func validate(result *domain.AnalysisResult) error {
	switch result.Status {
	case domain.AnalysisSuccess, domain.AnalysisRefused:
	default:
		return &Error{
			Kind:   KindMalformedResponse,
			Reason: fmt.Sprintf("unexpected status %q", result.Status),
		}
	}

	if result.Status == domain.AnalysisSuccess {
		if result.FormScore < 0 || result.FormScore > 10 {
			return &Error{
				Kind:   KindMalformedResponse,
				Reason: fmt.Sprintf("form score %v outside 0-10", result.FormScore),
			}
		}
	}

	return nil
}
