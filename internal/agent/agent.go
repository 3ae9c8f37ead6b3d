// Package agent implements the AI triage agent. Given a free-text support
// query and the caller's conversation history, it retrieves relevant
// knowledge-base articles and asks a language model, in strict JSON mode,
// to produce exactly one of three outcomes: a knowledge-base article
// reference, a ticket draft for a named team, or a free-text reply.
//
// The agent performs no validation of the returned team name; a drafted
// ticket only becomes real when the human submits it through the normal
// creation path, where a hallucinated team fails referential integrity.
// Provider errors propagate to the caller uncaught: no retry, no fallback.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/autocrm/helpdesk-backend/internal/kb"
)

// Chat roles, matching the wire format of the completion providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prompt turn sent to the completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompleter produces a completion constrained to a single JSON object.
// Implementations wrap a provider's JSON response mode.
type ChatCompleter interface {
	CompleteJSON(ctx context.Context, messages []Message) (string, error)
}

// Turn is one entry of the caller-held conversation history.
type Turn struct {
	Content   string `json:"content"`
	FromAgent bool   `json:"is_ai"`
}

// TicketDraft is the prefill the agent proposes when human handling is
// needed. The team is referenced by name; resolution to an id happens when
// the human submits the draft.
type TicketDraft struct {
	TeamName    string `json:"team_name"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// TriageResult is the parsed model output. Exactly one of ArticleID, Ticket,
// or Response is expected to be populated; Raw preserves the model's JSON
// object verbatim for callers that pass it through.
type TriageResult struct {
	ArticleID string          `json:"article_id,omitempty"`
	Ticket    *TicketDraft    `json:"ticket,omitempty"`
	Response  string          `json:"response,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// EvaluateInput describes an already-created ticket for the offline triage
// path.
type EvaluateInput struct {
	TeamName       string `json:"team_name"`
	OrganizationID string `json:"organization_id"`
	Subject        string `json:"subject"`
	Description    string `json:"description"`
	Priority       string `json:"priority,omitempty"`
}

// Agent ties the knowledge-base index to a JSON-mode completion provider.
type Agent struct {
	Index     kb.Index
	Completer ChatCompleter
}

// New constructs an Agent over the given index and completer.
func New(index kb.Index, completer ChatCompleter) *Agent {
	return &Agent{Index: index, Completer: completer}
}

// fallbackReply is the canned uncertainty answer the system prompt instructs
// the model to use.
const fallbackReply = "Sorry, I'm not sure how best to help with that. " +
	"Please feel free to rephrase the question or to open a ticket with a human agent."

// HandleChatQuery retrieves articles scoped to orgID, builds the triage
// prompt with the prior turns and the retrieved context, and returns the
// model's JSON object parsed but otherwise untouched.
func (a *Agent) HandleChatQuery(ctx context.Context, query, orgID string, teamNames []string, history []Turn) (*TriageResult, error) {
	tr := otel.Tracer("agent/Agent")
	ctx, span := tr.Start(ctx, "HandleChatQuery",
		trace.WithAttributes(attribute.String("org.id", orgID)),
	)
	defer span.End()

	articles, err := a.Index.FindRelevantArticles(ctx, query, orgID)
	if err != nil {
		return nil, err
	}

	messages := a.buildPrompt(query, articles, teamNames, history)
	out, err := a.Completer.CompleteJSON(ctx, messages)
	if err != nil {
		return nil, err
	}
	return parseResult(out)
}

// EvaluateTicket decides whether an existing article resolves the ticket or
// human handling is required, returning {article_id} or {response: reason}.
// Defined for offline/backlog triage; see the /chat/evaluate endpoint.
func (a *Agent) EvaluateTicket(ctx context.Context, in EvaluateInput) (*TriageResult, error) {
	tr := otel.Tracer("agent/Agent")
	ctx, span := tr.Start(ctx, "EvaluateTicket",
		trace.WithAttributes(attribute.String("org.id", in.OrganizationID)),
	)
	defer span.End()

	query := in.TeamName + "\n" + in.Subject + "\n" + in.Description
	articles, err := a.Index.FindRelevantArticles(ctx, query, in.OrganizationID)
	if err != nil {
		return nil, err
	}

	contents := make([]string, 0, len(articles))
	for _, art := range articles {
		contents = append(contents, art.Content)
	}
	payload, err := json.Marshal(map[string]any{
		"ticket":           in,
		"relevantArticles": contents,
	})
	if err != nil {
		return nil, err
	}

	messages := []Message{
		{Role: RoleSystem, Content: `You are a helpful customer support AI agent.
Your task is to determine if this support ticket could be resolved using existing knowledge base articles.
If yes, provide the relevant article ID via the JSON response format {"article_id": "ID HERE"}. If no, explain why human support is needed via the JSON response format {"response": "REASON HERE"}.
Consider the ticket priority and complexity when making your decision.`},
		{Role: RoleUser, Content: string(payload)},
	}
	out, err := a.Completer.CompleteJSON(ctx, messages)
	if err != nil {
		return nil, err
	}
	return parseResult(out)
}

// buildPrompt assembles the triage conversation: the fixed system
// instruction with the permitted JSON shapes and team names, the prior
// turns, a system block listing the retrieved articles, and the query as
// the final user turn.
func (a *Agent) buildPrompt(query string, articles []kb.Article, teamNames []string, history []Turn) []Message {
	system := fmt.Sprintf(`You are a helpful customer support AI agent.
You have access to knowledge base articles and, should one be directly relevant, provide the article ID
    - JSON response format: {"article_id": "ID HERE"}.
If a question cannot be answered using the knowledge base and requires human expertise, suggest creating a ticket with a human agent. Possible teams to create a ticket for are: %s.
    - JSON response format: {"ticket": {"team_name": "TEAM NAME HERE", "subject": "SUBJECT HERE", "description": "DESCRIPTION HERE"}}.
If you're unsure, respond with: {"response": %q}`, strings.Join(teamNames, ", "), fallbackReply)

	messages := make([]Message, 0, len(history)+3)
	messages = append(messages, Message{Role: RoleSystem, Content: system})

	for _, turn := range history {
		role := RoleUser
		if turn.FromAgent {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: turn.Content})
	}

	if len(articles) > 0 {
		var b strings.Builder
		b.WriteString("Relevant knowledge base articles:\n")
		for i, art := range articles {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "[ID:%s] [CATEGORY:%s]\n%s", art.ID, art.Category, art.Content)
		}
		messages = append(messages, Message{Role: RoleSystem, Content: b.String()})
	}

	messages = append(messages, Message{Role: RoleUser, Content: query})
	return messages
}

// parseResult validates that the completion is a JSON object and keeps it
// verbatim alongside the decoded fields.
func parseResult(out string) (*TriageResult, error) {
	raw := json.RawMessage(strings.TrimSpace(out))
	var res TriageResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("agent: model returned invalid JSON: %w", err)
	}
	res.Raw = raw
	return &res, nil
}
