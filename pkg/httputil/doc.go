// Package httputil provides the HTTP client used by remote record sources.
//
// # Overview
//
//   - [Client]: JSON GET requests with default headers and status mapping
//   - [Cache]: a typed JSON view over a [cache.Cache] backend
//
// # Caching
//
// [Cache] stores decoded responses under keys derived by the backend's
// keyer, so a file cache on a laptop and a shared redis in a deployment
// behave the same way:
//
//	c := httputil.NewCache(backend, nil, 5*time.Minute).Namespace("okrs")
//	var users []okr.User
//	ok, err := c.Get(ctx, "users", &users)
//
// # Errors
//
// Transport failures and 5xx responses are NETWORK_ERROR, 404 is
// NOT_FOUND, and other non-2xx statuses are NETWORK_ERROR carrying the
// status code. Requests are made once; nothing is retried.
//
// # Observability
//
// Every request fires the HTTP hooks from package observability.
package httputil
