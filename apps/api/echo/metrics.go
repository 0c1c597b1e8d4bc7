package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lophoc",
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lophoc",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if ctx.Path() == "/metrics" {
				return next(ctx)
			}
			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err) // sets the response status
			}

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(ctx.Response().Status)
			httpRequests.WithLabelValues(route, ctx.Request().Method, status).Inc()
			httpDuration.WithLabelValues(route, ctx.Request().Method).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
