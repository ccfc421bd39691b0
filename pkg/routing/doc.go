// Package routing provides content-based routers for conditional edges.
package routing
