package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/KOMKZ/yogan-market/errcode"
	"github.com/KOMKZ/yogan-market/logger"
	"github.com/KOMKZ/yogan-market/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPServer gin engine plus its http.Server
type HTTPServer struct {
	engine     *gin.Engine
	httpServer *http.Server
	cfg        ServerConfig
	logger     *logger.CtxZapLogger
}

// NewHTTPServer builds the engine with the common middleware chain:
// CORS → TraceID → metrics → request log → recovery
func NewHTTPServer(cfg ServerConfig, mw MiddlewareConfig, metrics *middleware.HTTPMetrics, log *logger.CtxZapLogger) *HTTPServer {
	if log == nil {
		log = logger.GetLogger("http")
	}

	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	if mw.CORS != nil {
		engine.Use(middleware.CORS(*mw.CORS))
	}
	engine.Use(middleware.TraceID(middleware.DefaultTraceConfig()))
	if metrics != nil {
		engine.Use(metrics.Handler())
	}
	if mw.RequestLog.Enable {
		engine.Use(middleware.RequestLog(middleware.RequestLogConfig{
			SkipPaths: mw.RequestLog.SkipPaths,
			Logger:    log,
		}))
	}
	engine.Use(middleware.Recovery(log))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errcode.ErrRouteNotFound.Body())
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "MethodNotAllowed", "message": "method not allowed"})
	})

	return &HTTPServer{engine: engine, cfg: cfg, logger: log}
}

// Engine 获取 Gin 引擎（业务层注册路由）
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// Serve listens and blocks until ctx is done, then shuts down gracefully
func (s *HTTPServer) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("端口 %d 不可用: %w", s.cfg.Port, err)
	}
	return s.serve(ctx, ln)
}

func (s *HTTPServer) serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoCtx(ctx, "🚀 HTTP server started", zap.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP 服务异常退出: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP Server 关闭失败: %w", err)
	}
	s.logger.InfoCtx(shutdownCtx, "✅ HTTP server closed")
	return nil
}
