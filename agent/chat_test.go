package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-mcp/config"
)

func TestToOpenAITools(t *testing.T) {
	schema := mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"query": map[string]interface{}{"type": "string"},
		},
		Required: []string{"query"},
	}
	tools := toOpenAITools([]mcp.Tool{
		{Name: "execute_query", Description: "Run SQL", InputSchema: schema},
		{Name: "list_tables", Description: "List tables"},
	})

	require.Len(t, tools, 2)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.Equal(t, "execute_query", tools[0].Function.Name)
	assert.Equal(t, "Run SQL", tools[0].Function.Description)
	assert.Equal(t, schema, tools[0].Function.Parameters)
	assert.Equal(t, "list_tables", tools[1].Function.Name)
}

func testChat(t *testing.T, handler http.Handler) *Chat {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	aiCfg := openai.DefaultAzureConfig("test-key", srv.URL)
	return &Chat{
		ai:         openai.NewClientWithConfig(aiCfg),
		deployment: "gpt-4o",
		log:        log.New(io.Discard),
		messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
	}
}

func TestAskReturnsDirectAnswer(t *testing.T) {
	var gotRequest openai.ChatCompletionRequest
	c := testChat(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: "There are 42 orders.",
				}},
			},
		})
	}))

	answer, err := c.Ask(context.Background(), "how many orders?", nil)
	require.NoError(t, err)
	assert.Equal(t, "There are 42 orders.", answer)

	// system prompt + user turn went out; assistant reply was recorded.
	require.Len(t, gotRequest.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleUser, gotRequest.Messages[1].Role)
	assert.Equal(t, "how many orders?", gotRequest.Messages[1].Content)
	require.Len(t, c.messages, 3)
	assert.Equal(t, openai.ChatMessageRoleAssistant, c.messages[2].Role)
}

func TestAskFailsWithoutChoices(t *testing.T) {
	c := testChat(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{})
	}))

	_, err := c.Ask(context.Background(), "hello", nil)
	assert.ErrorContains(t, err, "no choices")
}

func TestRunToolCallRejectsInvalidArguments(t *testing.T) {
	c := &Chat{log: log.New(io.Discard)}

	result := c.runToolCall(context.Background(), openai.ToolCall{
		Function: openai.FunctionCall{Name: "execute_query", Arguments: "{not json"},
	}, nil)
	assert.Contains(t, result, `"success": false`)
	assert.Contains(t, result, "invalid tool arguments")
}

func TestRunREPLExits(t *testing.T) {
	c := &Chat{log: log.New(io.Discard)}

	var out strings.Builder
	err := c.RunREPL(context.Background(), strings.NewReader("\nexit\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "you>")
}

func TestNewChatValidatesConfig(t *testing.T) {
	_, err := NewChat(config.AzureOpenAIConfig{Endpoint: "https://x.openai.azure.com"}, &MCPClient{}, log.New(io.Discard))
	assert.ErrorIs(t, err, config.ErrMissingField)
}
