// Package questiongen generates interview questions for a candidate using
// OpenAI chat completions.
package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"
)

const DefaultQuestionCount = 5

// QuestionGenerator produces tailored interview questions from a job
// description and a candidate's resume text.
type QuestionGenerator struct {
	client *openai.Client
}

// NewQuestionGenerator creates a new question generator.
func NewQuestionGenerator(apiKey string) *QuestionGenerator {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &QuestionGenerator{
		client: &client,
	}
}

type questionsPayload struct {
	Questions []string `json:"questions"`
}

// GenerateQuestions asks the model for count interview questions tailored to
// the overlap (and gaps) between the candidate and the job description.
func (g *QuestionGenerator) GenerateQuestions(ctx context.Context, jobDescription, resumeText string, count int) ([]string, error) {
	if jobDescription == "" || resumeText == "" {
		return nil, errors.New("job description and resume text are required")
	}
	if count <= 0 {
		count = DefaultQuestionCount
	}

	systemPrompt := `You are a technical recruiter. Generate interview questions tailored to a specific candidate and job. Return ONLY valid JSON.`

	userPrompt := fmt.Sprintf(`Generate exactly %d interview questions for this candidate and job.

Job description:
%s

Candidate resume:
%s

Focus on:
- Verifying claimed experience relevant to the job
- Probing gaps between the job requirements and the resume
- At most one behavioral question

Return JSON in the form {"questions": string[]} with no explanatory text.`, count, jobDescription, resumeText)

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model: "gpt-4o-mini",
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: constant.JSONObject("json_object"),
			},
		},
		Temperature: openai.Float(0.4),
		MaxTokens:   openai.Int(1500),
	})
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no response from openai")
	}

	var payload questionsPayload
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse questions JSON: %w", err)
	}
	if len(payload.Questions) == 0 {
		return nil, errors.New("model returned no questions")
	}
	if len(payload.Questions) > count {
		payload.Questions = payload.Questions[:count]
	}
	return payload.Questions, nil
}
