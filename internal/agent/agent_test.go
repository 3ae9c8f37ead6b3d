package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/autocrm/helpdesk-backend/internal/kb"
)

type fakeIndex struct {
	articles []kb.Article
	err      error

	gotQuery string
	gotOrg   string
}

func (f *fakeIndex) FindRelevantArticles(_ context.Context, query, orgID string) ([]kb.Article, error) {
	f.gotQuery = query
	f.gotOrg = orgID
	return f.articles, f.err
}

func (f *fakeIndex) Len() int { return len(f.articles) }

type fakeCompleter struct {
	reply string
	err   error

	gotMessages []Message
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, messages []Message) (string, error) {
	f.gotMessages = messages
	return f.reply, f.err
}

func TestHandleChatQuery_PromptAssembly(t *testing.T) {
	ix := &fakeIndex{articles: []kb.Article{
		{ID: "art-1", Category: "Billing", Content: "How invoices work."},
		{ID: "art-2", Category: "Billing", Content: "Refund policy."},
	}}
	fc := &fakeCompleter{reply: `{"article_id": "art-1"}`}
	a := New(ix, fc)

	history := []Turn{
		{Content: "hi", FromAgent: false},
		{Content: "hello, how can I help?", FromAgent: true},
	}
	res, err := a.HandleChatQuery(context.Background(), "invoice question", "org1", []string{"Billing", "Support"}, history)
	if err != nil {
		t.Fatalf("HandleChatQuery: %v", err)
	}
	if res.ArticleID != "art-1" {
		t.Fatalf("article_id = %q, want art-1", res.ArticleID)
	}

	if ix.gotQuery != "invoice question" || ix.gotOrg != "org1" {
		t.Fatalf("index queried with (%q, %q)", ix.gotQuery, ix.gotOrg)
	}

	msgs := fc.gotMessages
	// system, 2 history turns, article block, final user query.
	if len(msgs) != 5 {
		t.Fatalf("prompt has %d messages, want 5", len(msgs))
	}
	if msgs[0].Role != RoleSystem {
		t.Fatalf("first message role = %q", msgs[0].Role)
	}
	for _, want := range []string{
		`{"article_id": "ID HERE"}`,
		`{"ticket": {"team_name":`,
		"Billing, Support",
	} {
		if !strings.Contains(msgs[0].Content, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, msgs[0].Content)
		}
	}
	if msgs[1].Role != RoleUser || msgs[2].Role != RoleAssistant {
		t.Fatalf("history roles = %q, %q", msgs[1].Role, msgs[2].Role)
	}
	if msgs[3].Role != RoleSystem || !strings.Contains(msgs[3].Content, "[ID:art-1] [CATEGORY:Billing]") {
		t.Fatalf("article block wrong:\n%s", msgs[3].Content)
	}
	if !strings.Contains(msgs[3].Content, "[ID:art-2]") {
		t.Fatalf("second article missing:\n%s", msgs[3].Content)
	}
	if msgs[4].Role != RoleUser || msgs[4].Content != "invoice question" {
		t.Fatalf("final turn = %+v", msgs[4])
	}
}

func TestHandleChatQuery_NoArticlesOmitsContextBlock(t *testing.T) {
	ix := &fakeIndex{}
	fc := &fakeCompleter{reply: `{"response": "try restarting"}`}
	a := New(ix, fc)

	res, err := a.HandleChatQuery(context.Background(), "weird issue", "org1", nil, nil)
	if err != nil {
		t.Fatalf("HandleChatQuery: %v", err)
	}
	if res.Response != "try restarting" {
		t.Fatalf("response = %q", res.Response)
	}
	if len(fc.gotMessages) != 2 {
		t.Fatalf("prompt has %d messages, want 2 (system + query)", len(fc.gotMessages))
	}
}

func TestHandleChatQuery_TicketDraft(t *testing.T) {
	ix := &fakeIndex{}
	fc := &fakeCompleter{reply: `{"ticket": {"team_name": "Support", "subject": "s", "description": "d"}}`}
	a := New(ix, fc)

	res, err := a.HandleChatQuery(context.Background(), "help", "org1", []string{"Support"}, nil)
	if err != nil {
		t.Fatalf("HandleChatQuery: %v", err)
	}
	if res.Ticket == nil || res.Ticket.TeamName != "Support" || res.Ticket.Subject != "s" {
		t.Fatalf("ticket draft = %+v", res.Ticket)
	}
	// Raw passes the model object through untouched.
	var echo map[string]json.RawMessage
	if err := json.Unmarshal(res.Raw, &echo); err != nil {
		t.Fatalf("raw is not the original object: %v", err)
	}
	if _, ok := echo["ticket"]; !ok {
		t.Fatalf("raw lost the ticket key: %s", res.Raw)
	}
}

func TestHandleChatQuery_InvalidJSON(t *testing.T) {
	ix := &fakeIndex{}
	fc := &fakeCompleter{reply: "I think you should reboot."}
	a := New(ix, fc)

	if _, err := a.HandleChatQuery(context.Background(), "help", "org1", nil, nil); err == nil {
		t.Fatal("expected error for non-JSON completion")
	}
}

func TestHandleChatQuery_ErrorsPropagate(t *testing.T) {
	a := New(&fakeIndex{err: errors.New("index down")}, &fakeCompleter{})
	if _, err := a.HandleChatQuery(context.Background(), "q", "org1", nil, nil); err == nil {
		t.Fatal("expected index error")
	}

	a = New(&fakeIndex{}, &fakeCompleter{err: errors.New("provider down")})
	if _, err := a.HandleChatQuery(context.Background(), "q", "org1", nil, nil); err == nil {
		t.Fatal("expected completer error")
	}
}

func TestEvaluateTicket_Payload(t *testing.T) {
	ix := &fakeIndex{articles: []kb.Article{
		{ID: "art-9", Category: "Network", Content: "Router reset steps."},
	}}
	fc := &fakeCompleter{reply: `{"article_id": "art-9"}`}
	a := New(ix, fc)

	in := EvaluateInput{
		TeamName:       "Network",
		OrganizationID: "org1",
		Subject:        "No internet",
		Description:    "Router blinking red",
		Priority:       "high",
	}
	res, err := a.EvaluateTicket(context.Background(), in)
	if err != nil {
		t.Fatalf("EvaluateTicket: %v", err)
	}
	if res.ArticleID != "art-9" {
		t.Fatalf("article_id = %q", res.ArticleID)
	}

	// Retrieval keys on team, subject, and description.
	if ix.gotQuery != "Network\nNo internet\nRouter blinking red" {
		t.Fatalf("retrieval query = %q", ix.gotQuery)
	}
	if ix.gotOrg != "org1" {
		t.Fatalf("retrieval org = %q", ix.gotOrg)
	}

	if len(fc.gotMessages) != 2 {
		t.Fatalf("prompt has %d messages, want 2", len(fc.gotMessages))
	}
	var payload struct {
		Ticket           EvaluateInput `json:"ticket"`
		RelevantArticles []string      `json:"relevantArticles"`
	}
	if err := json.Unmarshal([]byte(fc.gotMessages[1].Content), &payload); err != nil {
		t.Fatalf("user payload is not JSON: %v", err)
	}
	if payload.Ticket.Subject != "No internet" || payload.Ticket.Priority != "high" {
		t.Fatalf("payload ticket = %+v", payload.Ticket)
	}
	if len(payload.RelevantArticles) != 1 || payload.RelevantArticles[0] != "Router reset steps." {
		t.Fatalf("payload articles = %v", payload.RelevantArticles)
	}
	if !strings.Contains(fc.gotMessages[0].Content, `{"article_id": "ID HERE"}`) {
		t.Fatalf("system prompt missing article shape:\n%s", fc.gotMessages[0].Content)
	}
}
