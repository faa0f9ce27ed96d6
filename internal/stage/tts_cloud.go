package stage

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	ttsModel  = "gemini-2.5-flash-preview-tts"
	textModel = "gemini-2.5-flash"
)

// GenAIClient wraps one genai connection for both collaborator boundaries:
// cloud speech synthesis and phrase-pool generation. A nil client is valid
// and means both paths report failure, which the callers degrade around.
type GenAIClient struct {
	client *genai.Client
}

// NewGenAIClient dials the Gemini API. An empty key yields a nil client
// (degraded mode) rather than an error.
func NewGenAIClient(ctx context.Context, apiKey string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GenAIClient{client: client}, nil
}

// Synthesize implements CloudSynth: text in, raw s16le mono PCM out. The
// model returns 24 kHz audio; failures of any kind surface as errors for
// the router to fall back on.
func (c *GenAIClient) Synthesize(ctx context.Context, text, persona, voice string) ([]byte, int, error) {
	if c == nil || c.client == nil {
		return nil, 0, fmt.Errorf("cloud speech unavailable")
	}
	if voice == "" {
		voice = CloudVoiceName
	}
	prompt := text
	if persona != "" {
		prompt = persona + "\n\n" + text
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	resp, err := c.client.Models.GenerateContent(ctx, ttsModel, genai.Text(prompt), cfg)
	if err != nil {
		return nil, 0, fmt.Errorf("tts request: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, CloudPCMRate, nil
			}
		}
	}
	return nil, 0, fmt.Errorf("tts response carried no audio")
}

// FetchPhrases implements the text-generation boundary: no arguments in, an
// ordered list of short strings out.
func (c *GenAIClient) FetchPhrases(ctx context.Context) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("text generation unavailable")
	}
	resp, err := c.client.Models.GenerateContent(ctx, textModel, genai.Text(phrasePrompt), nil)
	if err != nil {
		return nil, fmt.Errorf("phrase fetch: %w", err)
	}
	return splitPhrases(resp.Text()), nil
}
