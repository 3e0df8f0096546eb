// Package server - HTTP-Oberflaeche der Bridge
// Beinhaltet: Server-Struct, Router-Registrierung, Host-Middleware, Server-Start
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tflitebridge/tflite/bridge"
	"github.com/tflitebridge/tflite/envconfig"
	"github.com/tflitebridge/tflite/logutil"
)

var mode string = gin.DebugMode

// Server haelt genau einen Interpreter
type Server struct {
	addr net.Addr
	it   *bridge.Interpreter
}

func init() {
	switch mode {
	case gin.DebugMode:
	case gin.ReleaseMode:
	case gin.TestMode:
	default:
		mode = gin.DebugMode
	}

	gin.SetMode(mode)
}

// New erstellt einen Server fuer it. addr darf nil sein (Tests).
func New(addr net.Addr, it *bridge.Interpreter) *Server {
	return &Server{addr: addr, it: it}
}

// isLocalIP prueft ob die IP-Adresse zu einem lokalen Interface gehoert
func isLocalIP(ip netip.Addr) bool {
	if interfaces, err := net.Interfaces(); err == nil {
		for _, iface := range interfaces {
			addrs, err := iface.Addrs()
			if err != nil {
				continue
			}

			for _, a := range addrs {
				if parsed, _, err := net.ParseCIDR(a.String()); err == nil {
					if parsed.String() == ip.String() {
						return true
					}
				}
			}
		}
	}

	return false
}

// allowedHost prueft ob der Host erlaubt ist
func allowedHost(host string) bool {
	host = strings.ToLower(host)

	if host == "" || host == "localhost" {
		return true
	}

	if hostname, err := os.Hostname(); err == nil && host == strings.ToLower(hostname) {
		return true
	}

	for _, tld := range []string{"localhost", "local", "internal"} {
		if strings.HasSuffix(host, "."+tld) {
			return true
		}
	}

	return false
}

// allowedHostsMiddleware blockiert fremde Hosts solange der Server nur auf Loopback lauscht
func allowedHostsMiddleware(addr net.Addr) gin.HandlerFunc {
	return func(c *gin.Context) {
		if addr == nil {
			c.Next()
			return
		}

		if addr, err := netip.ParseAddrPort(addr.String()); err == nil && !addr.Addr().IsLoopback() {
			c.Next()
			return
		}

		host, _, err := net.SplitHostPort(c.Request.Host)
		if err != nil {
			host = c.Request.Host
		}

		if addr, err := netip.ParseAddr(host); err == nil {
			if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || isLocalIP(addr) {
				c.Next()
				return
			}
		}

		if allowedHost(host) {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}

			c.Next()
			return
		}

		c.AbortWithStatus(http.StatusForbidden)
	}
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
	}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.Use(
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
	)

	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "tflite bridge is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "tflite bridge is running") })

	r.GET("/api/status", s.StatusHandler)
	r.POST("/api/load", s.LoadHandler)

	run := r.Group("/api/run")
	run.POST("/image", s.RunImageHandler)
	run.POST("/frame", s.RunFrameHandler)
	run.POST("/binary", s.RunBinaryHandler)
	run.POST("/pix2pix", s.RunImageToImageHandler)

	return r
}

// Serve startet den HTTP-Server bis SIGINT/SIGTERM
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	it := bridge.New()
	s := New(ln.Addr(), it)

	srvr := &http.Server{
		Handler: s.GenerateRoutes(),
	}

	// Bei Ctrl+C laufende Inferenz abwarten und Engine schliessen
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Shutdown(context.Background())
	}()

	slog.Info(fmt.Sprintf("Listening on %s", ln.Addr()), "backends", it.Backends())
	err := srvr.Serve(ln)
	if cerr := it.Close(); cerr != nil {
		slog.Warn("closing interpreter", "error", cerr)
	}

	// Shutdown liefert ErrServerClosed, das ist kein Fehler
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
