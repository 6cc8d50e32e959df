package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/reliefhub/reliefhub/internal/constants"
	"github.com/sashabaranov/go-openai"
)

// SuggestionService drafts relief tasks from a free-text project description
// using the OpenAI API. Results are advisory; nothing is persisted here.
type SuggestionService struct {
	client *openai.Client
}

// SuggestedTask is one drafted task proposal.
type SuggestedTask struct {
	Title            string `json:"title"`
	Necessity        string `json:"necessity"`
	Quantity         int    `json:"quantity"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	ResolvesByItself bool   `json:"resolves_by_itself"`
}

// NewSuggestionService creates a new SuggestionService.
func NewSuggestionService(apiKey string) *SuggestionService {
	return &SuggestionService{
		client: openai.NewClient(apiKey),
	}
}

// DraftTasks analyzes a project description and proposes concrete tasks.
func (s *SuggestionService) DraftTasks(ctx context.Context, description string) ([]SuggestedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	today := time.Now().Format("2006-01-02")
	prompt := fmt.Sprintf(`You are an assistant for relief/aid project planning. Extract concrete tasks from the project description below.

Today's date: %s

Description:
%s

Return a JSON array of tasks with this shape:
[
  {
    "title": "short task title",
    "necessity": "what material or service the task needs",
    "quantity": 1,
    "start_date": "YYYY-MM-DD",
    "end_date": "YYYY-MM-DD",
    "resolves_by_itself": true when a single organization can fulfill the task alone, false when outside collaboration is needed
  }
]

Rules:
- Return an empty array [] when no tasks can be extracted
- Convert relative dates ("next week") to concrete dates
- Dates must be YYYY-MM-DD strings
- Return only the JSON, no prose`, today, description)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	var tasks []SuggestedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	if len(tasks) > constants.MaxSuggestedTasks {
		tasks = tasks[:constants.MaxSuggestedTasks]
	}

	valid := make([]SuggestedTask, 0, len(tasks))
	for _, task := range tasks {
		if strings.TrimSpace(task.Title) == "" {
			continue
		}
		if task.Quantity <= 0 {
			task.Quantity = 1
		}
		valid = append(valid, task)
	}

	return valid, nil
}
