// Package prompts implements MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ExplorePrompt handles the docweave-explore MCP prompt. It walks an
// agent through orienting itself in the corpus before making edits.
type ExplorePrompt struct{}

// NewExplorePrompt creates an ExplorePrompt.
func NewExplorePrompt() *ExplorePrompt {
	return &ExplorePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ExplorePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("docweave-explore",
		mcp.WithPromptDescription(
			"Explore the documentation corpus. "+
				"Walks from the namespace overview down to individual sections, "+
				"or straight to search results when you already know the topic.",
		),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Optional topic to search for first"),
		),
	)
}

// Handle processes the docweave-explore prompt request.
func (p *ExplorePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := ""
	if args := req.Params.Arguments; args != nil {
		topic = args["topic"]
	}

	if topic != "" {
		return &mcp.GetPromptResult{
			Description: fmt.Sprintf("Explore documentation about %q", topic),
			Messages: []mcp.PromptMessage{
				{
					Role: mcp.RoleUser,
					Content: mcp.NewTextContent(fmt.Sprintf(
						"I want to find documentation about '%s'.\n\n"+
							"Please:\n"+
							"1. Run `search_documents` with query='%s'\n"+
							"2. For the most relevant hit, run `view_document` to see its section outline\n"+
							"3. Run `view_section` on the matching section so we work from the exact text\n"+
							"4. Run `view_relationships` on that document and mention anything related I should read\n\n"+
							"Summarize what you found before suggesting any edits.",
						topic, topic,
					)),
				},
			},
		}, nil
	}

	return &mcp.GetPromptResult{
		Description: "Explore the documentation corpus",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want an overview of this documentation corpus.\n\n" +
						"Please:\n" +
						"1. Run `browse_documents` to list namespaces and their documents\n" +
						"2. Pick the two or three most central documents and run `view_document` on each\n" +
						"3. Describe how the corpus is organized and where the gaps are\n" +
						"4. Ask me what I'd like to read or change next",
				),
			},
		},
	}, nil
}
