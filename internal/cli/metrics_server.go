package cli

import (
	"context"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/ygrebnov/utoolkit/logging"
)

const metricsPath = "/metrics"

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func metricsHandler(reg *prometheus.Registry) fasthttp.RequestHandler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != metricsPath {
			ctx.Error("not found", fasthttp.StatusNotFound)
			return
		}
		h(ctx)
	}
}

// serveMetrics exposes reg on http://addr/metrics until the returned stop func is called.
func serveMetrics(addr string, reg *prometheus.Registry, log *logging.Logger) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &fasthttp.Server{
		Handler:     metricsHandler(reg),
		Name:        "utoolkit",
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.ShutdownWithContext(ctx)
	}, nil
}
