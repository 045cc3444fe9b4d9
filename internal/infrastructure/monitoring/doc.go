/*
Package monitoring provides Prometheus metrics for the AstraTerm server.

# Overview

Metrics are registered on a private registry owned by each Metrics value,
so independent servers (and tests) never collide on the global default
registry.

# Features

- HTTP request metrics (latency, throughput, size)
- Command executions by outcome and their duration
- Live session gauge
- WebSocket connection and message metrics
- Outbound service call metrics (AI providers, GitHub, security tools)
- Uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	executor.WithMetrics(metrics)
	store.WithObserver(metrics)

	timer := monitoring.NewTimer(metrics, "ai", "grok")
	// ... perform call ...
	timer.Stop("success")
*/
package monitoring
