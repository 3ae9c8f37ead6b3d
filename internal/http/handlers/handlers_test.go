package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/autocrm/helpdesk-backend/internal/agent"
	"github.com/autocrm/helpdesk-backend/internal/domain"
	"github.com/autocrm/helpdesk-backend/internal/services"
)

//
// Fakes
//

type fakeTicketSvc struct {
	ticket *domain.Ticket
	detail *services.TicketDetail
	list   []domain.Ticket
	msg    *domain.Message
	err    error

	createdIn services.CreateTicketInput
	createdBy string
	updatedID string
	patch     services.UpdateTicketPatch
}

func (f *fakeTicketSvc) Create(_ context.Context, in services.CreateTicketInput, changedBy string) (*domain.Ticket, error) {
	f.createdIn, f.createdBy = in, changedBy
	return f.ticket, f.err
}

func (f *fakeTicketSvc) Update(_ context.Context, id string, patch services.UpdateTicketPatch, _ string) (*domain.Ticket, error) {
	f.updatedID, f.patch = id, patch
	return f.ticket, f.err
}

func (f *fakeTicketSvc) Get(_ context.Context, id string) (*domain.Ticket, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ticket, nil
}

func (f *fakeTicketSvc) GetDetail(_ context.Context, id string, _ domain.Principal) (*services.TicketDetail, error) {
	return f.detail, f.err
}

func (f *fakeTicketSvc) ListPageForUser(_ context.Context, _ string, _, _ int) ([]domain.Ticket, int64, error) {
	return f.list, int64(len(f.list)), f.err
}

func (f *fakeTicketSvc) AddMessage(_ context.Context, _ string, _ domain.Principal, content string, internal bool) (*domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.msg, nil
}

type fakeUserSvc struct {
	user *domain.User
	err  error

	gotID, gotEmail, gotOrg string
}

func (f *fakeUserSvc) Create(_ context.Context, userID, email, orgID string) (*domain.User, error) {
	f.gotID, f.gotEmail, f.gotOrg = userID, email, orgID
	return f.user, f.err
}

func (f *fakeUserSvc) Get(_ context.Context, _ string) (*domain.User, error) {
	return f.user, f.err
}

type fakeTeamSvc struct {
	teams []domain.Team
	err   error
}

func (f *fakeTeamSvc) ListForCaller(_ context.Context, _ domain.Principal) ([]domain.Team, error) {
	return f.teams, f.err
}

func (f *fakeTeamSvc) ListAll(_ context.Context, _ domain.Principal) ([]domain.Team, error) {
	return f.teams, f.err
}

type fakeKBSvc struct {
	grouped services.GroupedArticles
	err     error
}

func (f *fakeKBSvc) ListGrouped(_ context.Context, _ domain.Principal) (services.GroupedArticles, error) {
	return f.grouped, f.err
}

type fakeTriage struct {
	res *agent.TriageResult
	err error

	gotQuery string
	gotOrg   string
	gotTeams []string
	gotIn    agent.EvaluateInput
}

func (f *fakeTriage) HandleChatQuery(_ context.Context, query, orgID string, teamNames []string, _ []agent.Turn) (*agent.TriageResult, error) {
	f.gotQuery, f.gotOrg, f.gotTeams = query, orgID, teamNames
	return f.res, f.err
}

func (f *fakeTriage) EvaluateTicket(_ context.Context, in agent.EvaluateInput) (*agent.TriageResult, error) {
	f.gotIn = in
	return f.res, f.err
}

//
// Harness
//

// asPrincipal injects the principal the auth middleware would have resolved.
func asPrincipal(p domain.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("principal", p)
		c.Next()
	}
}

func newTestRouter(h *Handlers, p domain.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", asPrincipal(p))
	api.POST("/users", h.CreateUser)
	api.GET("/users/:userId", h.GetUser)
	api.GET("/teams", h.ListTeams)
	api.GET("/teams/all", h.ListAllTeams)
	api.GET("/kb", h.ListKB)
	api.GET("/tickets", h.ListTickets)
	api.POST("/tickets", h.CreateTicket)
	api.GET("/tickets/:id", h.GetTicket)
	api.PATCH("/tickets/:id", h.UpdateTicket)
	api.POST("/tickets/:id/messages", h.PostTicketMessage)
	api.POST("/chat", h.Chat)
	api.POST("/chat/evaluate", h.Evaluate)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, w.Body.String())
	}
	return e
}
