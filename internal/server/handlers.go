package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smartguard/internal/models"
	"smartguard/internal/notify"
)

func (s *Server) handleSensor(c *gin.Context) {
	var m models.Measurement
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.session.Ingest(m)
	c.Status(http.StatusOK)
}

func (s *Server) handleLatest(c *gin.Context) {
	snap := s.session.Latest()
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}

func (s *Server) handleGetThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Thresholds().Get())
}

func (s *Server) handleUpdateThresholds(c *gin.Context) {
	var patch models.ThresholdPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.session.Thresholds().Update(patch))
}

func (s *Server) handleResetThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Thresholds().Reset())
}

func (s *Server) handleSimulatorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": s.simulatorOn.Load()})
}

func (s *Server) handleSimulatorStart(c *gin.Context) {
	s.simulatorOn.Store(true)
	c.JSON(http.StatusOK, gin.H{"running": true})
}

func (s *Server) handleSimulatorStop(c *gin.Context) {
	s.simulatorOn.Store(false)
	c.JSON(http.StatusOK, gin.H{"running": false})
}

type saveAlarmRequest struct {
	UserID string            `json:"userId"`
	Alarm  models.AlarmEvent `json:"alarm"`
}

func (s *Server) handleSaveAlarm(c *gin.Context) {
	var req saveAlarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId required"})
		return
	}

	cached, err := s.history.Append(c.Request.Context(), req.UserID, req.Alarm)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cached": cached})
}

func (s *Server) handleAlarmHistory(c *gin.Context) {
	userID := c.Param("userId")
	alarms := s.history.History(c.Request.Context(), userID)
	if alarms == nil {
		alarms = []models.AlarmEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"alarms": alarms})
}

func (s *Server) handleNotifyEmail(c *gin.Context) {
	var req notify.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "valid email address required"})
		return
	}

	if err := s.mailer.SendAlarm(req); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "email sent"})
}

type registerTokenRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

func (s *Server) handleRegisterToken(c *gin.Context) {
	var req registerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.UserID == "" || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "userId and token required"})
		return
	}

	target, err := s.dispatcher.Register(req.UserID, req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "userId": target.UserID, "token": target.Address})
}

type sendRequest struct {
	Data        *models.Snapshot `json:"data"`
	TargetUsers []string         `json:"targetUsers"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
}

func (s *Server) handleSend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "data required"})
		return
	}
	if len(req.TargetUsers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "targetUsers required (at least 1 user)"})
		return
	}

	outcomes := s.dispatcher.Dispatch(c.Request.Context(), *req.Data, req.TargetUsers, req.Title, req.Body)
	sent := 0
	for _, o := range outcomes {
		if o.Status == "sent" {
			sent++
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sent": sent, "outcomes": outcomes})
}

type pushRequest struct {
	Tokens []string    `json:"tokens"`
	Title  string      `json:"title"`
	Body   string      `json:"body"`
	Data   interface{} `json:"data"`
}

func (s *Server) handlePush(c *gin.Context) {
	var req pushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if len(req.Tokens) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "tokens required"})
		return
	}
	if req.Title == "" {
		req.Title = "Notification"
	}
	if req.Body == "" {
		req.Body = "You have a new notification"
	}

	sent, err := s.dispatcher.SendRaw(c.Request.Context(), req.Tokens, req.Title, req.Body, req.Data)
	if err != nil {
		status := http.StatusBadGateway
		if err == notify.ErrInvalidAddress {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sent": sent})
}

func (s *Server) handleListUsers(c *gin.Context) {
	users := s.dispatcher.Users()
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "users": users})
}

func (s *Server) handleGetToken(c *gin.Context) {
	userID := c.Param("userId")
	target, ok := s.dispatcher.Lookup(userID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "token not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "userId": userID, "token": target.Address})
}

func (s *Server) handleRemoveToken(c *gin.Context) {
	userID := c.Param("userId")
	c.JSON(http.StatusOK, gin.H{"success": s.dispatcher.Unregister(userID)})
}
