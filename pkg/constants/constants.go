package constants

type ContextKey string

const (
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	ParamsKey    ContextKey = "params"
	LoggerKey    ContextKey = "logger"
	RequestStart ContextKey = "request-start"

	TenantIDKey    ContextKey = "tenant-id"
	UserKey        ContextKey = "user"
	SystemScopeKey ContextKey = "system-scope"
)
