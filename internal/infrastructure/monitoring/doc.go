/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the browser
gateway, tracking HTTP requests, gateway command outcomes, policy
rejections, browser engine calls and the session state.

# Features

- HTTP request metrics (latency, throughput, size)
- Command outcomes (accepted, rejected, failed) per command
- Policy rejections by reason
- Engine call metrics (duration, errors)
- Session state gauge and browser launch counter
- Auth and second factor results
- Audit write results
- Uptime, Go runtime and process collectors

Every collector owns a private registry, so building several in one
process never panics on duplicate registration.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time engine operations
	timer := monitoring.NewTimer(metrics, "goto")
	err := page.Goto(url, opts)
	timer.Stop(err)

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
