package service

// ServiceConfig carries the configuration slices the service layer needs.
type ServiceConfig struct {
	User UserServiceConfig
	App  AppServiceConfig
}

// UserServiceConfig user service configuration
type UserServiceConfig struct {
	// RegisterIsEnable whether signup is open
	RegisterIsEnable bool
}

// AppServiceConfig application service configuration
type AppServiceConfig struct {
	// AddChangeMaxRetries bounded retries for a lost append race
	AddChangeMaxRetries int
	// SessionExpiry session lifetime, e.g. "30d"
	SessionExpiry string
	// ShareTokenExpiry share token lifetime, e.g. "30d"
	ShareTokenExpiry string
}
