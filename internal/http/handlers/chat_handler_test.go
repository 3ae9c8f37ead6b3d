package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/autocrm/helpdesk-backend/internal/agent"
	"github.com/autocrm/helpdesk-backend/internal/domain"
)

func employeePrincipal() domain.Principal {
	return domain.Principal{Kind: domain.PrincipalEmployee, UserID: "staff-1", OrganizationID: domain.GlobalOrgID, Role: domain.RoleAgent}
}

func TestChat_ReturnsRawAgentObject(t *testing.T) {
	raw := json.RawMessage(`{"article_id": "art-1"}`)
	triage := &fakeTriage{res: &agent.TriageResult{ArticleID: "art-1", Raw: raw}}
	teams := &fakeTeamSvc{teams: []domain.Team{{Name: "Billing"}, {Name: "Support"}}}
	h := New(nil, nil, teams, nil, triage)
	r := newTestRouter(h, customerPrincipal("user-1"))

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat", gin.H{"query": "invoices?"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != string(raw) {
		t.Fatalf("body = %q, want the agent object verbatim", w.Body.String())
	}
	if triage.gotQuery != "invoices?" || triage.gotOrg != "org1" {
		t.Fatalf("agent called with (%q, %q)", triage.gotQuery, triage.gotOrg)
	}
	if len(triage.gotTeams) != 2 || triage.gotTeams[0] != "Billing" {
		t.Fatalf("team names = %v", triage.gotTeams)
	}
}

func TestChat_AgentNotConfigured(t *testing.T) {
	h := New(nil, nil, nil, nil, nil)
	r := newTestRouter(h, customerPrincipal("user-1"))

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat", gin.H{"query": "hi"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if e := decodeError(t, w); e.Code != ErrCodeAgentUnavailable {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestChat_ProviderErrorSurfaces(t *testing.T) {
	triage := &fakeTriage{err: errors.New("model timed out")}
	h := New(nil, nil, &fakeTeamSvc{}, nil, triage)
	r := newTestRouter(h, customerPrincipal("user-1"))

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat", gin.H{"query": "hi"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	e := decodeError(t, w)
	if e.Code != ErrCodeTriageFailed || e.Message != "model timed out" {
		t.Fatalf("envelope = %+v", e)
	}
}

func TestChat_MissingQuery(t *testing.T) {
	h := New(nil, nil, &fakeTeamSvc{}, nil, &fakeTriage{})
	r := newTestRouter(h, customerPrincipal("user-1"))

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestEvaluate_EmployeesOnly(t *testing.T) {
	h := New(&fakeTicketSvc{}, nil, nil, nil, &fakeTriage{})
	r := newTestRouter(h, customerPrincipal("user-1"))

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat/evaluate", gin.H{"ticket_id": uuid.NewString()})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
}

func TestEvaluate_BuildsInputFromTicket(t *testing.T) {
	tk := &domain.Ticket{
		ID:          uuid.NewString(),
		Subject:     "No internet",
		Description: "Router blinking red",
		Priority:    domain.PriorityHigh,
		Team:        &domain.Team{Name: "Network"},
		Requester:   &domain.User{OrganizationID: "org1"},
	}
	raw := json.RawMessage(`{"response": "needs a human"}`)
	triage := &fakeTriage{res: &agent.TriageResult{Response: "needs a human", Raw: raw}}
	h := New(&fakeTicketSvc{ticket: tk}, nil, nil, nil, triage)
	r := newTestRouter(h, employeePrincipal())

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat/evaluate", gin.H{"ticket_id": tk.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != string(raw) {
		t.Fatalf("body = %q", w.Body.String())
	}
	in := triage.gotIn
	if in.TeamName != "Network" || in.OrganizationID != "org1" || in.Subject != "No internet" || in.Priority != domain.PriorityHigh {
		t.Fatalf("evaluate input = %+v", in)
	}
}

func TestEvaluate_BadTicketID(t *testing.T) {
	h := New(&fakeTicketSvc{}, nil, nil, nil, &fakeTriage{})
	r := newTestRouter(h, employeePrincipal())

	w := doJSON(t, r, http.MethodPost, "/api/v1/chat/evaluate", gin.H{"ticket_id": "nope"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
