package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"agricoop-backend/internal/config"
	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/security"
	"agricoop-backend/internal/service"
)

type contextKey string

const actorKey contextKey = "actor"

// actorFrom returns the authenticated actor placed by the auth middleware.
func actorFrom(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(actorKey).(domain.Actor)
	return actor
}

// Services bundles everything the control surface exposes.
type Services struct {
	Members       service.MemberService
	Seats         service.SeatService
	Approvals     service.ApprovalService
	Audit         service.AuditService
	Notifications service.NotificationService
}

// NewRouter wires the admin control surface. Everything under /api/v1/admin
// requires a valid bearer token; the join-request submission endpoint is
// public by design (it is reached through a shared join link).
func NewRouter(svcs Services, tokens security.TokenManager, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	auth := &AuthHandler{tokens: tokens, cfg: cfg}
	members := &MemberHandler{svc: svcs.Members}
	seats := &SeatHandler{svc: svcs.Seats}
	approvals := &ApprovalHandler{svc: svcs.Approvals}
	audit := &AuditHandler{svc: svcs.Audit}
	notes := &NotificationHandler{svc: svcs.Notifications}

	r.HandleFunc("/api/v1/auth/login", auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/join/{code}", approvals.SubmitJoinRequest).Methods(http.MethodPost)

	admin := r.PathPrefix("/api/v1/admin").Subrouter()
	admin.Use(authMiddleware(tokens))

	admin.HandleFunc("/orgs/{orgID}/members", members.Create).Methods(http.MethodPost)
	admin.HandleFunc("/orgs/{orgID}/members", members.List).Methods(http.MethodGet)
	admin.HandleFunc("/orgs/{orgID}/members/{memberID}", members.Get).Methods(http.MethodGet)
	admin.HandleFunc("/orgs/{orgID}/members/{memberID}", members.Update).Methods(http.MethodPut)
	admin.HandleFunc("/orgs/{orgID}/members/{memberID}/submit", members.Submit).Methods(http.MethodPost)
	admin.HandleFunc("/orgs/{orgID}/members/{memberID}/approve", members.Approve).Methods(http.MethodPost)
	admin.HandleFunc("/orgs/{orgID}/members/{memberID}/reject", members.Reject).Methods(http.MethodPost)
	admin.HandleFunc("/orgs/{orgID}/members/{memberID}/suspend", members.Suspend).Methods(http.MethodPost)

	admin.HandleFunc("/orgs/{orgID}/members/{memberID}/seat", seats.Assign).Methods(http.MethodPut)
	admin.HandleFunc("/orgs/{orgID}/members/{memberID}/seat", seats.Remove).Methods(http.MethodDelete)
	admin.HandleFunc("/orgs/{orgID}/members/{memberID}/seat/pool", seats.AssignFromPool).Methods(http.MethodPost)
	admin.HandleFunc("/orgs/{orgID}/ledger", seats.GetLedger).Methods(http.MethodGet)
	admin.HandleFunc("/orgs/{orgID}/pools", seats.CreatePool).Methods(http.MethodPost)
	admin.HandleFunc("/orgs/{orgID}/pools", seats.ListPools).Methods(http.MethodGet)

	admin.HandleFunc("/orgs/{orgID}/applications", approvals.CreateApplication).Methods(http.MethodPost)
	admin.HandleFunc("/orgs/{orgID}/applications", approvals.ListApplications).Methods(http.MethodGet)
	admin.HandleFunc("/orgs/{orgID}/applications/{applicationID}/approve", approvals.ApproveApplication).Methods(http.MethodPost)
	admin.HandleFunc("/orgs/{orgID}/applications/{applicationID}/reject", approvals.RejectApplication).Methods(http.MethodPost)

	admin.HandleFunc("/orgs/{orgID}/join-codes", approvals.CreateJoinCode).Methods(http.MethodPost)
	admin.HandleFunc("/orgs/{orgID}/join-requests", approvals.ListJoinRequests).Methods(http.MethodGet)
	admin.HandleFunc("/orgs/{orgID}/join-requests/{requestID}/approve", approvals.ApproveJoinRequest).Methods(http.MethodPost)
	admin.HandleFunc("/orgs/{orgID}/join-requests/{requestID}/reject", approvals.RejectJoinRequest).Methods(http.MethodPost)

	admin.HandleFunc("/orgs/{orgID}/members/{memberCode}/history", audit.ListMemberHistory).Methods(http.MethodGet)

	admin.HandleFunc("/users/{userID}/notifications", notes.List).Methods(http.MethodGet)
	admin.HandleFunc("/users/{userID}/notifications/{notificationID}/read", notes.MarkAsRead).Methods(http.MethodPost)

	return r
}

func authMiddleware(tokens security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, security.ErrInvalidToken)
				return
			}
			actor, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
