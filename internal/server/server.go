package server

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"smartguard/internal/database"
	"smartguard/internal/hub"
	"smartguard/internal/monitor"
	"smartguard/internal/notify"
)

// Server ties the monitoring session, broadcast hub, history store and
// notification dispatcher together behind the HTTP surface.
type Server struct {
	addr       string
	session    *monitor.MonitoringSession
	hub        *hub.Hub
	history    *database.HistoryStore
	dispatcher *notify.Dispatcher
	mailer     notify.EmailSender
	router     *gin.Engine

	simulatorOn atomic.Bool
}

func NewServer(
	addr string,
	session *monitor.MonitoringSession,
	h *hub.Hub,
	history *database.HistoryStore,
	dispatcher *notify.Dispatcher,
	mailer notify.EmailSender,
) *Server {
	s := &Server{
		addr:       addr,
		session:    session,
		hub:        h,
		history:    history,
		dispatcher: dispatcher,
		mailer:     mailer,
		router:     gin.Default(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "subscribers": s.hub.ClientCount()})
	})

	api := s.router.Group("/api")
	{
		api.POST("/sensor", s.handleSensor)
		api.GET("/latest", s.handleLatest)

		api.GET("/thresholds", s.handleGetThresholds)
		api.PUT("/thresholds", s.handleUpdateThresholds)
		api.POST("/thresholds", s.handleUpdateThresholds)
		api.POST("/thresholds/reset", s.handleResetThresholds)

		api.GET("/simulator/status", s.handleSimulatorStatus)
		api.POST("/simulator/start", s.handleSimulatorStart)
		api.POST("/simulator/stop", s.handleSimulatorStop)

		api.POST("/alarms/save", s.handleSaveAlarm)
		api.GET("/alarms/history/:userId", s.handleAlarmHistory)

		api.POST("/notify/email", s.handleNotifyEmail)

		notification := api.Group("/notification")
		{
			notification.POST("/register-token", s.handleRegisterToken)
			notification.POST("/send", s.handleSend)
			notification.POST("/push", s.handlePush)
			notification.GET("/users", s.handleListUsers)
			notification.GET("/token/:userId", s.handleGetToken)
			notification.DELETE("/token/:userId", s.handleRemoveToken)
		}
	}

	s.router.GET("/ws", s.hub.HandleWS(s.session.Latest))
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run()

	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
	}()

	log.Printf("HTTP server listening on %s", s.addr)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
