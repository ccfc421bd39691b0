/*
Package observability turns engine lifecycle events into Prometheus metrics and
structured log records.

Both are exposed as domain.LifecycleHooks and can be combined with domain.ComposeHooks:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := domain.ComposeHooks(metrics.Hooks(), observability.LogHooks(logger))
*/
package observability
