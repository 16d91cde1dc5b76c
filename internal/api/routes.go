package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/icanhazpin"

	GrantParent      = "/v1/grants"
	CreateGrantRoute = GrantParent
	RevokeGrantRoute = GrantParent + "/{id}"

	AdminParent     = "/v1/admin/"
	ListGrantsRoute = AdminParent + "grants"
	ListAuditsRoute = AdminParent + "audits"

	TaskParent       = AdminParent + "tasks/"
	ListTasksRoute   = TaskParent
	TriggerTaskRoute = TaskParent + "{name}/trigger"
	LogsForTaskRoute = TaskParent + "{name}/logs"
)
