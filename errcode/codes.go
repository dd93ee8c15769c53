package errcode

import "net/http"

const (
	ModuleGateway  = 10
	ModuleCustomer = 20
)

// Gateway errors
var (
	ErrUnauthorized = Register(New(ModuleGateway, 1, "gateway", "Unauthorized",
		"authentication required", http.StatusUnauthorized))

	ErrServiceUnavailable = Register(New(ModuleGateway, 2, "gateway", "ServiceUnavailable",
		"service is unavailable", http.StatusServiceUnavailable))

	ErrProxy = Register(New(ModuleGateway, 3, "gateway", "ProxyError",
		"failed to reach upstream service", http.StatusInternalServerError))

	ErrRouteNotFound = Register(New(ModuleGateway, 4, "gateway", "NotFound",
		"route not found", http.StatusNotFound))

	ErrTooManyRequests = Register(New(ModuleGateway, 5, "gateway", "TooManyRequests",
		"rate limit exceeded", http.StatusTooManyRequests))
)

// Customer service errors
var (
	ErrInvalidRequest = Register(New(ModuleCustomer, 1, "customer", "InvalidRequest",
		"invalid request", http.StatusBadRequest))

	ErrStorage = Register(New(ModuleCustomer, 2, "customer", "StorageError",
		"failed to persist customer state", http.StatusInternalServerError))

	ErrProfileNotFound = Register(New(ModuleCustomer, 3, "customer", "NotFound",
		"customer profile not found", http.StatusNotFound))
)
