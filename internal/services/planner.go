package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/planit-app/planit-api/internal/config"
	"github.com/planit-app/planit-api/internal/models"
	"github.com/rs/zerolog"
)

const (
	defaultTripDays = 7

	chatSystemPrompt = `You are a travel planning assistant. Create a detailed trip itinerary based on the user's request.
Include destination-specific activities spread over suggested dates. If the user hasn't specified the
number of days, preferences or city, ask for that information.

Format the response as a clear, day-by-day itinerary with activities for each day.`
)

var tripDaysPattern = regexp.MustCompile(`(?i)(\d+)\s*days?`)

// PlannerService drafts itineraries with a chat completion model. Without an
// API key every call fails with ErrPlannerDisabled.
type PlannerService struct {
	client *openai.Client
	model  string
	now    func() time.Time
	log    zerolog.Logger
}

func NewPlannerService(cfg config.OpenAIConfig, log zerolog.Logger, opts ...option.RequestOption) *PlannerService {
	s := &PlannerService{model: cfg.Model, now: time.Now, log: log}
	if cfg.APIKey == "" {
		return s
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)...)
	s.client = &client
	return s
}

func (s *PlannerService) Enabled() bool {
	return s.client != nil
}

func (s *PlannerService) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	if s.client == nil {
		return "", ErrPlannerDisabled
	}
	params.Model = openai.ChatModel(s.model)

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		s.log.Error().Err(err).Msg("chat completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrPlannerBadResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Chat answers a free-form planning request with itinerary text.
func (s *PlannerService) Chat(ctx context.Context, prompt string) (string, error) {
	return s.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(chatSystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.7),
	})
}

// Itinerary turns a planning conversation into a structured trip draft
// starting today. The reply is decoded from its first '{' to its last '}'.
func (s *PlannerService) Itinerary(ctx context.Context, conversation string) (*models.Itinerary, error) {
	content, err := s.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.itineraryPrompt(conversation)),
			openai.UserMessage(conversation),
		},
		Temperature: openai.Float(0.1),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, err
	}

	itinerary, err := parseItinerary(content)
	if err != nil {
		s.log.Warn().Err(err).Int("length", len(content)).Msg("unusable itinerary response")
		return nil, ErrPlannerBadResponse
	}
	return itinerary, nil
}

func parseItinerary(content string) (*models.Itinerary, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var envelope struct {
		Trip *models.Itinerary `json:"trip"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &envelope); err != nil {
		return nil, err
	}
	if envelope.Trip == nil {
		return nil, fmt.Errorf("response has no trip")
	}
	if envelope.Trip.Activities == nil {
		envelope.Trip.Activities = []models.PlannedActivity{}
	}
	return envelope.Trip, nil
}

// tripDays reads the trip length from phrases like "5 days".
func tripDays(conversation string) int {
	m := tripDaysPattern.FindStringSubmatch(conversation)
	if m == nil {
		return defaultTripDays
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return defaultTripDays
	}
	return n
}

func (s *PlannerService) itineraryPrompt(conversation string) string {
	days := tripDays(conversation)
	start := s.now()
	day := func(offset int) string { return start.AddDate(0, 0, offset).Format(models.DateLayout) }

	template, _ := json.MarshalIndent(map[string]any{
		"trip": models.Itinerary{
			Destination: "Sample Destination",
			StartDate:   day(0),
			EndDate:     day(days),
			Budget:      "1000 USD",
			Activities: []models.PlannedActivity{
				{Date: day(0), Title: "Sample Activity 1", Notes: "Description of activity 1", Category: models.CategorySightseeing, EstimatedCost: ptr(50.0)},
				{Date: day(1), Title: "Sample Activity 2", Notes: "Description of activity 2", Category: models.CategoryFood, EstimatedCost: ptr(30.0)},
			},
		},
	}, "", "  ")

	var dates strings.Builder
	for i := range days {
		fmt.Fprintf(&dates, "Day %d: %s\n", i+1, day(i))
	}

	return fmt.Sprintf(`You are a JSON formatting expert. Create a valid JSON object describing the trip discussed by the user.

Use exactly this structure:
%s

Requirements:
1. All activity dates must be between %s and %s, inclusive, formatted as YYYY-MM-DD.
2. Use these dates for the activities:
%s3. "category" is one of %s.
4. "estimatedCost" is a number without currency symbols or quotes.
5. Do not add fields that are not in the template.
6. Return only the JSON object.`,
		template, day(0), day(days), dates.String(), strings.Join(models.ActivityCategories, ", "))
}

func ptr[T any](v T) *T {
	return &v
}
