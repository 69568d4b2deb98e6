// Package router decides which console pages a session may open.
//
// A [Table] holds the static route policy: every route may require an
// authenticated session, an administrator, or both, and nested routes
// inherit the requirements of their ancestors. A [Guard] evaluates one
// navigation at a time against a [SessionView]:
//
//  1. an unknown path is NotFound;
//  2. a route with a redirect computes its target at evaluation time and the
//     target is evaluated in its place;
//  3. a route requiring authentication redirects an anonymous session to the
//     login page;
//  4. a route requiring an administrator redirects everyone else to the
//     dashboard;
//  5. anything else is allowed.
//
// The guard never mutates the session. [Middleware] applies the same policy
// to net/http requests.
package router
