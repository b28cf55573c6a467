package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sashabaranov/go-openai"

	"warehouse-mcp/config"
)

// maxToolRounds caps the tool-call loop for one user turn.
const maxToolRounds = 8

const systemPrompt = "You are a data assistant. You can query analytics warehouses " +
	"through the tools provided. Prefer tools over guessing; summarize tabular " +
	"results instead of echoing raw JSON."

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	toolStyle   = lipgloss.NewStyle().Faint(true)
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Chat drives the Azure OpenAI tool-calling loop against an MCP server.
type Chat struct {
	ai         *openai.Client
	mcp        *MCPClient
	deployment string
	log        *log.Logger

	tools    []openai.Tool
	messages []openai.ChatCompletionMessage
}

func NewChat(cfg config.AzureOpenAIConfig, mcpClient *MCPClient, logger *log.Logger) (*Chat, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	aiCfg := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	aiCfg.APIVersion = cfg.APIVersion

	return &Chat{
		ai:         openai.NewClientWithConfig(aiCfg),
		mcp:        mcpClient,
		deployment: cfg.Deployment,
		log:        logger,
		tools:      toOpenAITools(mcpClient.Tools()),
		messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
	}, nil
}

// toOpenAITools advertises MCP tool descriptors as OpenAI function tools.
// The MCP input schema already is JSON Schema, so it passes through.
func toOpenAITools(tools []mcp.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

// Ask sends one user message and runs tool calls until the model produces
// a final answer.
func (c *Chat) Ask(ctx context.Context, message string, toolTrace io.Writer) (string, error) {
	c.messages = append(c.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	for round := 0; round < maxToolRounds; round++ {
		resp, err := c.ai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    c.deployment,
			Messages: c.messages,
			Tools:    c.tools,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat completion returned no choices")
		}

		choice := resp.Choices[0].Message
		c.messages = append(c.messages, choice)

		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}

		for _, call := range choice.ToolCalls {
			result := c.runToolCall(ctx, call, toolTrace)
			c.messages = append(c.messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}
	return "", fmt.Errorf("no final answer after %d tool rounds", maxToolRounds)
}

func (c *Chat) runToolCall(ctx context.Context, call openai.ToolCall, toolTrace io.Writer) string {
	name := call.Function.Name
	if toolTrace != nil {
		fmt.Fprintln(toolTrace, toolStyle.Render(fmt.Sprintf("  ⚙ %s(%s)", name, call.Function.Arguments)))
	}

	var args map[string]interface{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return fmt.Sprintf(`{"success": false, "error": "invalid tool arguments: %v"}`, err)
		}
	}

	result, err := c.mcp.CallTool(ctx, name, args)
	if err != nil {
		c.log.Warn("tool call failed", "tool", name, "err", err)
		if result != "" {
			return result
		}
		return fmt.Sprintf(`{"success": false, "error": %q}`, err.Error())
	}
	return result
}

// RunREPL reads user turns from in and renders answers to out until EOF.
func (c *Chat) RunREPL(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, replyStyle.Render("Connected. Ask about your data; Ctrl-D to exit."))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		answer, err := c.Ask(ctx, line, out)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("error: "+err.Error()))
			continue
		}
		fmt.Fprintln(out, replyStyle.Render(answer))
	}
}
