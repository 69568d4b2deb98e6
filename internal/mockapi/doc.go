// Package mockapi serves the subset of the management API the console talks
// to: the OAuth2 password token endpoint, a health endpoint and the current
// user. It backs the kiosk example and `goconsole mock-api`; it is not a
// production server.
package mockapi
