// Package api maps HTTP requests onto the ledger and voice stores.
package api

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendlog/internal/ledger"
	"attendlog/internal/metrics"
	"attendlog/internal/voice"
)

// VoiceFilesRoute is where stored audio is mounted for static serving; the
// url field of the voices listing points under it.
const VoiceFilesRoute = "/files/voices"

// DeviceKeyHeader carries the scanner's shared secret.
const DeviceKeyHeader = "x-device-key"

// Pinger reports health of an optional external dependency.
type Pinger interface {
	Healthy(ctx context.Context) bool
}

// Server holds the handlers' dependencies.
type Server struct {
	log       *zap.Logger
	deviceKey string
	ledger    *ledger.Store
	voices    *voice.Store
	redis     Pinger // nil unless the redis limiter backend is configured
}

// New builds a Server. redis may be nil.
func New(log *zap.Logger, deviceKey string, led *ledger.Store, voices *voice.Store, redis Pinger) *Server {
	return &Server{
		log:       log,
		deviceKey: deviceKey,
		ledger:    led,
		voices:    voices,
		redis:     redis,
	}
}

// Register mounts all API routes on r.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/healthz", s.handleHealthz)

	api := r.Group("/api")
	api.POST("/device/event", s.handleDeviceEvent)
	api.POST("/voice/enroll", s.handleVoiceUpload(voice.KindEnroll))
	api.POST("/voice/check", s.handleVoiceUpload(voice.KindCheck))
	api.GET("/voices", s.handleListVoices)
	api.GET("/attendance", s.handleListAttendance)
}

type deviceEvent struct {
	TokenOrPIN string `json:"token_or_pin"`
	Method     string `json:"method"`
	Extras     struct {
		EnteredPIN string `json:"entered_pin"`
	} `json:"extras"`
}

type deviceEventRequest struct {
	DeviceID string        `json:"device_id" binding:"required"`
	Events   []deviceEvent `json:"events" binding:"required"`
}

// handleDeviceEvent ingests a scan batch. Only the first event of the batch
// is persisted; the scanner firmware sends single-event batches and that
// contract is kept as-is rather than silently widened.
func (s *Server) handleDeviceEvent(c *gin.Context) {
	key := c.GetHeader(DeviceKeyHeader)
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.deviceKey)) != 1 {
		metrics.IngestRejected.WithLabelValues("unauthorized").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid device key"})
		return
	}

	var req deviceEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IngestRejected.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Events) == 0 {
		metrics.IngestRejected.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "events must not be empty"})
		return
	}

	evt := req.Events[0]
	rec := ledger.Record{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DeviceID:  req.DeviceID,
		Token:     evt.TokenOrPIN,
		PIN:       evt.Extras.EnteredPIN,
		Method:    evt.Method,
	}
	if err := s.ledger.Append(rec); err != nil {
		s.log.Error("ledger append failed", zap.Error(err), zap.String("device_id", req.DeviceID))
		metrics.IngestRejected.WithLabelValues("persist").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save attendance"})
		return
	}

	metrics.IngestAccepted.Inc()
	c.JSON(http.StatusOK, gin.H{
		"results": []gin.H{{"ok": true, "message": "Attendance saved to Excel"}},
	})
}

// handleVoiceUpload stores one multipart audio blob. The sample kind is fixed
// per route: enroll or check.
func (s *Server) handleVoiceUpload(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, _, err := c.Request.FormFile("audio")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "audio field required"})
			return
		}
		defer file.Close()

		blob, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read audio failed"})
			return
		}

		name, err := s.voices.Save(c.PostForm("student_id"), kind, blob)
		if err != nil {
			s.log.Error("voice save failed", zap.Error(err), zap.String("kind", kind))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store voice sample"})
			return
		}

		metrics.VoiceUploads.WithLabelValues(kind).Inc()
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Voice sample stored", "file": name})
	}
}

type voiceEntry struct {
	StudentID string `json:"student_id"`
	Kind      string `json:"type"`
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	Timestamp *int64 `json:"timestamp"`
}

func (s *Server) handleListVoices(c *gin.Context) {
	samples, err := s.voices.ListAll()
	if err != nil {
		s.log.Error("voice listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list voice samples"})
		return
	}

	out := make([]voiceEntry, 0, len(samples))
	for _, sm := range samples {
		out = append(out, voiceEntry{
			StudentID: sm.StudentID,
			Kind:      sm.Kind,
			Filename:  sm.Filename,
			URL:       VoiceFilesRoute + "/" + sm.Filename,
			Timestamp: sm.Timestamp,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListAttendance(c *gin.Context) {
	records := s.ledger.ListAll()
	if records == nil {
		records = []ledger.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleHealthz(c *gin.Context) {
	body := gin.H{"status": "ok", "records": s.ledger.Len()}
	status := http.StatusOK
	if s.redis != nil {
		healthy := s.redis.Healthy(c.Request.Context())
		body["redis"] = healthy
		if !healthy {
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, body)
}
