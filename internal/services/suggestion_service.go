package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/projectdesk/internal/constants"
	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/repository"
)

var (
	ErrNoTasksSuggested = errors.New("no tasks were suggested")
)

// chatCompleter is the part of the OpenAI client the suggestion service uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// SuggestedTask is a task proposed for a project. Suggestions are never
// stored; a client creates the ones it wants through the task operations.
type SuggestedTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

// SuggestTasksInput represents input for task suggestions
type SuggestTasksInput struct {
	Hint  string
	Limit int
}

// SuggestionService proposes tasks for a project from its description.
type SuggestionService struct {
	client chatCompleter
	store  *repository.Store
	now    func() time.Time
}

// NewSuggestionService creates a new SuggestionService. With an empty API
// key every request fails with ErrSuggestionsUnavailable.
func NewSuggestionService(apiKey string, store *repository.Store) *SuggestionService {
	s := &SuggestionService{store: store, now: time.Now}
	if apiKey != "" {
		s.client = openai.NewClient(apiKey)
	}
	return s
}

// SuggestTasks asks the model for tasks that would move the project forward
func (s *SuggestionService) SuggestTasks(ctx context.Context, projectID uint64, input SuggestTasksInput) ([]SuggestedTask, error) {
	if s.client == nil {
		return nil, ErrSuggestionsUnavailable
	}

	limit := input.Limit
	if limit <= 0 || limit > constants.MaxSuggestedTasks {
		limit = constants.MaxSuggestedTasks
	}

	project, err := s.store.Projects.FindByID(projectID)
	if err != nil {
		return nil, storeErr("project", "find", err)
	}
	if project.Status.Terminal() {
		return nil, invalid("projectId", fmt.Sprintf("project is %s", project.Status))
	}

	raw, err := s.complete(ctx, project, strings.TrimSpace(input.Hint), limit)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoTasksSuggested
	}

	cutoff := s.now().Add(-24 * time.Hour)
	suggestions := make([]SuggestedTask, 0, len(raw))
	for _, task := range raw {
		task.Title = strings.TrimSpace(task.Title)
		if task.Title == "" {
			continue
		}
		if !task.Priority.Valid() {
			task.Priority = models.TaskPriorityMedium
		}
		if task.DueDate != nil && task.DueDate.Before(cutoff) {
			task.DueDate = nil
		}

		suggestions = append(suggestions, task)
		if len(suggestions) == limit {
			break
		}
	}

	if len(suggestions) == 0 {
		return nil, ErrNoTasksSuggested
	}

	return suggestions, nil
}

func (s *SuggestionService) complete(ctx context.Context, project *models.Project, hint string, limit int) ([]SuggestedTask, error) {
	currentTime := s.now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You are a project planning assistant. Propose concrete tasks for the project below.

Current time: %s

Project: %s
Runs from %s to %s
Description:
%s

Additional guidance:
%s

Return a JSON array of at most %d tasks in this form:
[
  {
    "title": "short task title",
    "description": "what has to be done",
    "priority": "one of Low, Medium, High, Critical",
    "due_date": "ISO8601 deadline such as 2025-10-28T23:59:59Z, or null"
  }
]

Rules:
- Return [] if nothing sensible can be proposed
- Due dates must fall within the project dates
- Return only JSON, no commentary`,
		currentTime,
		project.Name,
		project.StartDate.Format("2006-01-02"),
		project.EndDate.Format("2006-01-02"),
		project.Description,
		hint,
		limit,
	)

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

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")

	var tasks []SuggestedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w (response: %s)", err, content)
	}

	return tasks, nil
}
