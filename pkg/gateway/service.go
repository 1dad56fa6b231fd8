package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"skypeconnector/pkg/channel/skype"
	"skypeconnector/pkg/config"
	"skypeconnector/pkg/digester"
	"skypeconnector/pkg/session"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = 3978

	keyErrorMessage = "error_message"
	maxBodyBytes    = 1 << 20
)

// Backend answers canonical requests with a raw backend response.
type Backend interface {
	Send(ctx context.Context, sessionKey string, request digester.CanonicalRequest) ([]byte, error)
}

// Replier delivers one rendered message into the conversation of an inbound activity.
type Replier interface {
	Reply(ctx context.Context, inbound skype.Activity, msg digester.Message) error
}

// Dependencies are the collaborators the gateway wires together.
type Dependencies struct {
	Digester *digester.Digester
	Backend  Backend
	Channel  Replier
	Sessions session.Store
	Lang     digester.Translator
}

type Service struct {
	cfg    *config.Config
	log    *slog.Logger
	deps   Dependencies
	engine *gin.Engine

	mu        sync.RWMutex
	startedAt time.Time
	running   bool
	handled   int64
	failed    int64
}

type statusResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Handled       int64  `json:"handled"`
	Failed        int64  `json:"failed"`
}

func NewService(cfg *config.Config, deps Dependencies, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if deps.Digester == nil || deps.Backend == nil || deps.Channel == nil || deps.Sessions == nil {
		return nil, errors.New("digester, backend, channel and sessions are required")
	}
	if deps.Lang == nil {
		return nil, errors.New("translator is required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		cfg:  cfg,
		log:  log.With("component", "gateway.service"),
		deps: deps,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/api/messages", s.ginMessages)
	engine.GET("/healthz", s.ginHealth)
	engine.GET("/readyz", s.ginReady)
	s.engine = engine

	return s, nil
}

// Handler exposes the HTTP routes, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.engine
}

// Run serves the webhook until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultHost
	}
	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultPort
	}

	addr := host + ":" + strconv.Itoa(port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway listening", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start gateway server: %w", err)
	}
	return nil
}

func (s *Service) ginMessages(c *gin.Context) {
	requestID := uuid.NewString()
	log := s.log.With("request_id", requestID)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil || !json.Valid(body) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	if !digester.IsChannelRequest(body) {
		log.Debug("Ignoring non-message activity")
		c.JSON(http.StatusAccepted, gin.H{"request_id": requestID, "ignored": true})
		return
	}

	activity, err := skype.ParseActivity(body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log = log.With("conversation_key", activity.ConversationKey(), "activity_id", activity.ID)

	ctx := c.Request.Context()
	replies, err := s.handleActivity(ctx, activity, body)
	if err != nil {
		s.recordResult(false)
		log.Error("Failed to handle activity", "error", err, "kind", digester.KindOf(err))
		s.replyFailure(ctx, activity, log)
		c.JSON(http.StatusOK, gin.H{"request_id": requestID, "error": true})
		return
	}

	s.recordResult(true)
	log.Info("Activity handled", "replies", replies)
	c.JSON(http.StatusOK, gin.H{"request_id": requestID, "replies": replies})
}

// handleActivity runs inbound digest, backend call, outbound digest and delivery
// for every canonical request the activity produced. It returns the reply count.
func (s *Service) handleActivity(ctx context.Context, activity skype.Activity, body []byte) (int, error) {
	requests, err := s.deps.Digester.DigestInbound(body)
	if err != nil {
		return 0, fmt.Errorf("digest inbound activity: %w", err)
	}

	key := activity.ConversationKey()
	replies := 0
	for _, request := range requests {
		if question, ok := request.Message(); ok {
			if err := s.deps.Sessions.SetLastQuestion(ctx, key, question); err != nil {
				return replies, err
			}
		}
		lastQuestion, err := s.deps.Sessions.LastQuestion(ctx, key)
		if err != nil {
			return replies, err
		}

		payload, err := s.deps.Backend.Send(ctx, key, request)
		if err != nil {
			return replies, err
		}

		messages, err := s.deps.Digester.DigestOutbound(payload, lastQuestion)
		if err != nil {
			return replies, fmt.Errorf("digest backend response: %w", err)
		}

		for _, msg := range messages {
			if err := s.deps.Channel.Reply(ctx, activity, msg); err != nil {
				return replies, err
			}
			replies++
		}
	}

	return replies, nil
}

func (s *Service) replyFailure(ctx context.Context, activity skype.Activity, log *slog.Logger) {
	msg := digester.TextMessage(s.deps.Lang.Translate(keyErrorMessage))
	if err := s.deps.Channel.Reply(ctx, activity, msg); err != nil {
		log.Error("Failed to deliver failure message", "error", err)
	}
}

func (s *Service) recordResult(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.handled++
		return
	}
	s.failed++
}

func (s *Service) ginHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.currentStatus("ok"))
}

func (s *Service) ginReady(c *gin.Context) {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	if !running {
		c.JSON(http.StatusServiceUnavailable, s.currentStatus("not_ready"))
		return
	}
	c.JSON(http.StatusOK, s.currentStatus("ready"))
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	return statusResponse{
		Status:        status,
		UptimeSeconds: uptime,
		Handled:       s.handled,
		Failed:        s.failed,
	}
}
