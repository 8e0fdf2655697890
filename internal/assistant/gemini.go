package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"meetroom/backend/internal/models"

	"github.com/pkg/errors"
)

// GeminiClient calls the generateContent endpoint of the Generative Language
// API.
type GeminiClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewGeminiClient(baseURL, apiKey string) *GeminiClient {
	return &GeminiClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: http.DefaultClient,
	}
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type geminiToolConfig struct {
	RetrievalConfig struct {
		LatLng geminiLatLng `json:"latLng"`
	} `json:"retrievalConfig"`
}

type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	Tools             []map[string]any  `json:"tools,omitempty"`
	ToolConfig        *geminiToolConfig `json:"toolConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		GroundingMetadata *models.GroundingMetadata `json:"groundingMetadata"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func encodeRequest(req *Request) geminiRequest {
	body := geminiRequest{Contents: make([]geminiContent, 0, len(req.Turns))}
	for _, t := range req.Turns {
		body.Contents = append(body.Contents, geminiContent{
			Role:  string(t.Role),
			Parts: []geminiPart{{Text: t.Text}},
		})
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}
	for _, tool := range req.Tools {
		body.Tools = append(body.Tools, map[string]any{string(tool): map[string]any{}})
	}
	if req.RetrievalLocation != nil {
		tc := &geminiToolConfig{}
		tc.RetrievalConfig.LatLng = geminiLatLng{
			Latitude:  req.RetrievalLocation.Latitude,
			Longitude: req.RetrievalLocation.Longitude,
		}
		body.ToolConfig = tc
	}
	return body
}

// Generate implements Collaborator.
func (c *GeminiClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	if c.APIKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}

	bodyBytes, err := json.Marshal(encodeRequest(req))
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "gemini request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, errors.Wrapf(err, "decode response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		if apiResp.Error != nil {
			return nil, errors.Errorf("gemini %d %s: %s", apiResp.Error.Code, apiResp.Error.Status, apiResp.Error.Message)
		}
		return nil, errors.Errorf("gemini returned status %d", resp.StatusCode)
	}
	if len(apiResp.Candidates) == 0 {
		return nil, errors.New("gemini returned no candidates")
	}

	cand := apiResp.Candidates[0]
	var text strings.Builder
	for _, p := range cand.Content.Parts {
		text.WriteString(p.Text)
	}
	return &Response{Text: text.String(), GroundingMetadata: cand.GroundingMetadata}, nil
}
