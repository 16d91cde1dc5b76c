package api

import (
	"net/http"

	"github.com/nestlock/nestlock/internal/api/middleware"
	"github.com/nestlock/nestlock/internal/audit"
	"github.com/nestlock/nestlock/internal/core"
	"github.com/nestlock/nestlock/internal/service"
	"github.com/nestlock/nestlock/internal/tasks"
)

type Server struct {
	recorder    *service.Recorder
	taskManager *tasks.Manager
	auditor     core.Auditor
	grantStore  core.GrantStore
}

func NewServer(
	recorder *service.Recorder,
	taskManager *tasks.Manager,
	auditor core.Auditor,
	grantStore core.GrantStore,
) *Server {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}

	return &Server{
		recorder:    recorder,
		taskManager: taskManager,
		auditor:     auditor,
		grantStore:  grantStore,
	}
}

func (s *Server) Routes(adminSigningKey []byte) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// grant routes
	mux.HandleFunc("POST "+CreateGrantRoute, s.handleCreateGrant)
	mux.HandleFunc("DELETE "+RevokeGrantRoute, s.handleRevokeGrant)

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET "+ListGrantsRoute, s.handleAdminGrants)
	adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudit)
	adminMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
	adminMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
	adminMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)
	mux.Handle(AdminParent, middleware.AdminAuth(adminSigningKey)(adminMux))

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
