package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dstojkovic/fitlog/internal/telemetry/tracing"
	"go.opentelemetry.io/otel/attribute"
)

type Type string

const (
	TypeWorkout Type = "workout"
	TypeMeal    Type = "meal"
)

var (
	ErrAgentTimeout     = errors.New("agent request timed out")
	ErrAgentUnavailable = errors.New("agent unavailable")
)

// Free text mentioning any of these goes to the meal agent, everything else
// defaults to the workout agent.
var mealKeywords = []string{
	"meal", "calorie", "calories", "cals", "protein",
	"breakfast", "lunch", "dinner", "food", "snack",
}

// Classify decides which agent a free-text input belongs to.
func Classify(input string) Type {
	inputLower := strings.ToLower(input)
	for _, keyword := range mealKeywords {
		if strings.Contains(inputLower, keyword) {
			return TypeMeal
		}
	}
	return TypeWorkout
}

// TriggerPayload is what gets posted to the automation agent. The agent
// answers asynchronously on the callback URL.
type TriggerPayload struct {
	Input       string `json:"input"`
	UserID      int    `json:"user_id"`
	Date        string `json:"date"`
	CallbackURL string `json:"callback_url"`
}

type DispatchResult struct {
	AgentType     Type           `json:"agentType"`
	AgentStatus   int            `json:"agentStatus"`
	AgentResponse string         `json:"agentResponse"`
	PayloadSent   TriggerPayload `json:"payloadSent"`
}

// agentResponseMaxChars caps how much of the agent's reply body is kept.
const agentResponseMaxChars = 500

type Client struct {
	workoutAgentURL string
	mealAgentURL    string
	callbackBaseURL string
	timeout         time.Duration
	httpClient      *http.Client
}

func NewClient(
	workoutAgentURL string,
	mealAgentURL string,
	callbackBaseURL string,
	timeout time.Duration,
	httpClient *http.Client,
) *Client {
	return &Client{
		workoutAgentURL: workoutAgentURL,
		mealAgentURL:    mealAgentURL,
		callbackBaseURL: callbackBaseURL,
		timeout:         timeout,
		httpClient:      httpClient,
	}
}

// Dispatch classifies the input, posts it to the matching agent and returns
// whatever the agent answered synchronously. One attempt, no retries: the
// agent delivers its real result later through the callback endpoint.
func (c *Client) Dispatch(ctx context.Context, input string, userID int, date string) (_ *DispatchResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "agent.dispatch")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	agentType := Classify(input)
	targetURL := c.workoutAgentURL
	if agentType == TypeMeal {
		targetURL = c.mealAgentURL
	}

	span.SetAttributes(attribute.String("agent.type", string(agentType)))

	payload := TriggerPayload{
		Input:       input,
		UserID:      userID,
		Date:        date,
		CallbackURL: fmt.Sprintf("%s/agent/callback/%s", c.callbackBaseURL, agentType),
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal trigger payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		switch {
		case errors.Is(err, context.DeadlineExceeded),
			errors.As(err, &netErr) && netErr.Timeout():
			return nil, fmt.Errorf("%w: %s", ErrAgentTimeout, err)
		default:
			return nil, fmt.Errorf("%w: %s", ErrAgentUnavailable, err)
		}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Errorf("failed to close agent response body: %s", closeErr)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, agentResponseMaxChars))
	if err != nil {
		return nil, fmt.Errorf("read agent response: %w", err)
	}

	span.SetAttributes(attribute.Int("agent.status", resp.StatusCode))

	return &DispatchResult{
		AgentType:     agentType,
		AgentStatus:   resp.StatusCode,
		AgentResponse: string(respBody),
		PayloadSent:   payload,
	}, nil
}
