package app

import (
	"context"
	"net/http"

	"chatsync/pkg/api"
	"chatsync/pkg/auth"
	"chatsync/pkg/banner"
	"chatsync/pkg/httpx"
	"chatsync/pkg/store"
	"chatsync/pkg/telemetry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/valyala/fasthttp"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "" && a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.eff, verStr)
}

// setupHTTPHandlers sets up all HTTP handlers on the provided mux.
func (a *App) setupHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", healthzHandler)
	mux.HandleFunc("/readyz", a.readyzHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/docs/", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	mux.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))
	mux.Handle("/", api.Handler())
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{\"status\":\"ok\"}"))
}

// readyzHandler reports whether the store is open and serving.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !store.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("{\"status\":\"not ready\"}"))
		return
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{\"status\":\"ok\",\"version\":\"" + ver + "\"}"))
}

// startHTTP builds the handler, starts the configured server engine in
// a goroutine and returns a channel that will contain any server error.
func (a *App) startHTTP(ctx context.Context) <-chan error {
	mux := http.NewServeMux()
	a.setupHTTPHandlers(mux)

	secCfg := auth.SecConfig{
		AllowedOrigins: append([]string{}, a.eff.Config.Security.CORS.AllowedOrigins...),
		RPS:            a.eff.Config.Security.RateLimit.RPS,
		Burst:          a.eff.Config.Security.RateLimit.Burst,
		IPWhitelist:    append([]string{}, a.eff.Config.Security.IPWhitelist...),
	}

	wrapped := auth.GatewayMiddleware(secCfg)(mux)
	wrapped = telemetry.Middleware(wrapped)

	errCh := make(chan error, 1)

	if a.eff.Config.Server.Engine == "fasthttp" {
		fsrv := &fasthttp.Server{
			Handler: httpx.FastHTTPAdapter(httpx.FromHTTPHandler(wrapped)),
			Name:    "chatsync",
		}
		go func() { errCh <- fsrv.ListenAndServe(a.eff.Addr) }()
		go func() {
			<-ctx.Done()
			_ = fsrv.Shutdown()
		}()
		return errCh
	}

	srv := &http.Server{Addr: a.eff.Addr, Handler: wrapped}
	go func() {
		cert := a.eff.Config.Server.TLS.CertFile
		key := a.eff.Config.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return errCh
}
