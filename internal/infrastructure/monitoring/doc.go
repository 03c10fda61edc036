/*
Package monitoring provides Prometheus metrics for the terminal server.

# Overview

Metrics implements the observer interfaces of the bus, the command
resolver, the autocomplete orchestrator and the storage services, so a
session wires one Metrics into all of them. Every Metrics owns a private
registry; tests and embedded servers can create as many as they like.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	b := bus.New(bus.WithObserver(metrics))
	resolver.SetObserver(metrics)
*/
package monitoring
