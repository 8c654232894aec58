// Package ingress is the producer-side HTTP endpoint: shared-secret
// check, required-field check, forward to the queue. None of the order
// derivation happens here; a 200 only means the intent was enqueued.
package ingress

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"tss/internal/config"
	"tss/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

const maxBodyBytes = 64 << 10

// Publisher enqueues a validated payload and returns its message id.
type Publisher interface {
	Publish(body []byte) (string, error)
}

type Server struct {
	engine    *gin.Engine
	publisher Publisher
	schema    *jsonschema.Schema

	mu     sync.RWMutex
	secret string
}

func NewServer(cfg config.IngressConfig, publisher Publisher) (*Server, error) {
	schema, err := compileIntentSchema()
	if err != nil {
		return nil, err
	}
	s := &Server{
		publisher: publisher,
		schema:    schema,
		secret:    cfg.Secret,
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.POST("/signal", s.handleSignal)
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	s.engine = engine
	return s, nil
}

// SetSecret swaps the shared secret; the config watcher calls this on
// file change so rotation needs no restart.
func (s *Server) SetSecret(secret string) {
	s.mu.Lock()
	s.secret = secret
	s.mu.Unlock()
}

func (s *Server) currentSecret() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secret
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) handleSignal(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 || !gjson.ValidBytes(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON body"})
		return
	}
	parsed := gjson.ParseBytes(raw)

	if parsed.Get("secret").String() != s.currentSecret() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "secret mismatch"})
		return
	}

	required := requiredKeysOpen
	if parsed.Get("order_action").String() == "CLOSE" {
		required = requiredKeysClose
	}
	for _, key := range required {
		if !parsed.Get(key).Exists() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required key: " + key})
			return
		}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON body"})
		return
	}
	if err := s.schema.Validate(doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := stripSecret(raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payload rewrite failed"})
		return
	}
	id, err := s.publisher.Publish(payload)
	if err != nil {
		logger.Errorf("enqueue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message_id": id})
}

// stripSecret removes the shared secret before the payload goes onto the
// queue; consumers never see it.
func stripSecret(raw []byte) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	delete(m, "secret")
	return json.Marshal(m)
}
