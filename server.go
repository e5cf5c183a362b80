package restblog

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Runtime string

const (
	RuntimeLambda Runtime = "lambda"
	RuntimeHTTP   Runtime = "http"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	engine     *gin.Engine
	runtime    Runtime
	basePath   string
	onShutdown []func(context.Context) error
}

// New returns a server with recovery, request ids and
// request logging already installed.
func New() *Server {
	runtime := RuntimeHTTP
	if os.Getenv("LAMBDA_RUNTIME") == "true" {
		runtime = RuntimeLambda
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), RequestLogger())

	return &Server{
		engine:  engine,
		runtime: runtime,
	}
}

// Handler is the http.Handler that should be served. It applies method
// override before gin routing, which middleware registered with Use cannot do.
func (s *Server) Handler() http.Handler {
	return MethodOverride(s.engine)
}

func (s *Server) SetBasePath(path string) {
	s.basePath = path
}

func (s *Server) SetRuntime(runtime Runtime) {
	s.runtime = runtime
}

func (s *Server) WithPoweredBy(name string) *Server {
	s.engine.Use(ResponseHeaders(name))
	return s
}

func (s *Server) WithTrustedProxies(proxies []string) error {
	if len(proxies) == 0 {
		return nil
	}
	return s.engine.SetTrustedProxies(proxies)
}

func (s *Server) WithTemplates(tmpl *template.Template) *Server {
	s.engine.SetHTMLTemplate(tmpl)
	return s
}

func (s *Server) WithStatic(relativePath string, files fs.FS) *Server {
	s.engine.StaticFS(relativePath, http.FS(files))
	return s
}

// OnShutdown registers a hook run after the HTTP server has drained.
// Hooks run in reverse registration order.
func (s *Server) OnShutdown(hook func(context.Context) error) {
	s.onShutdown = append(s.onShutdown, hook)
}

func (s *Server) Start(port int) error {
	if s.runtime == RuntimeLambda {
		return s.startLambda()
	}
	return s.startHTTP(port)
}

func (s *Server) startHTTP(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			s.runShutdownHooks(context.Background())
			return err
		}
		return nil
	case sig := <-quit:
		slog.Info("shutting down server", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	s.runShutdownHooks(ctx)
	return err
}

func (s *Server) runShutdownHooks(ctx context.Context) {
	for i := len(s.onShutdown) - 1; i >= 0; i-- {
		if err := s.onShutdown[i](ctx); err != nil {
			slog.Error("shutdown hook failed", slog.String("error", err.Error()))
		}
	}
}

func (s *Server) startLambda() error {
	adapter := httpadapter.New(s.Handler())

	handler := func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	}

	lambda.Start(handler)
	s.runShutdownHooks(context.Background())
	return nil
}

func (s *Server) WithCORS(config *cors.Config) *Server {
	s.engine.Use(cors.New(*config))
	return s
}

func (s *Server) DefaultCORS() *Server {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	config.MaxAge = 12 * time.Hour
	return s.WithCORS(&config)
}

func (s *Server) CustomCORS(allowOrigins []string, allowMethods []string, allowHeaders []string, maxAge time.Duration) *Server {
	config := cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: allowMethods,
		AllowHeaders: allowHeaders,
		MaxAge:       maxAge,
	}
	return s.WithCORS(&config)
}
