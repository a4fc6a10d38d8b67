// Package handlers contains reusable HTTP building blocks for the REST API.
//
// It holds health aggregation, bearer authentication, request validation
// backed by go-playground/validator, and small generic middleware.
//
// # Health Checks
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0", "postgres")
//	checker.AddCheck("postgres", handlers.NewPingCheck(conn))
//	checker.AddCheck("redis", handlers.NewPingCheck(redisClient))
//
// # Authentication
//
//	bearer := handlers.NewBearerAuth(tokens, onUnauthorized)
//	protected := bearer.Middleware(myHandler)
//	principal, ok := handlers.PrincipalFromContext(r.Context())
package handlers
