package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Team-synvo/jb-ai/internal/platform/config"
	"github.com/Team-synvo/jb-ai/internal/platform/requestctx"
)

type visitorCookie struct {
	ID      string    `json:"id"`
	Counted bool      `json:"counted,omitempty"`
	Issued  time.Time `json:"iat"`
}

// VisitorCookies issues and verifies the signed cookie that identifies a browser across visits.
type VisitorCookies struct {
	name   string
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewVisitorCookies builds the cookie codec. Without a configured signing key a random
// process-local key is generated, so cookies do not survive a restart.
func NewVisitorCookies(cfg config.CookieConfig, logger *zap.Logger) *VisitorCookies {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			logger.Error("visitor cookie: unable to generate signing key", zap.Error(err))
			key = []byte("insecure-dev-key-set-APP_COOKIE_SIGNING_KEY")
		}
		logger.Warn("visitor cookie: using ephemeral signing key; set APP_COOKIE_SIGNING_KEY in production")
	}
	return &VisitorCookies{
		name:   cfg.Name,
		key:    key,
		ttl:    cfg.TTL,
		secure: cfg.Secure,
		now:    time.Now,
	}
}

// Middleware resolves the visitor for every request and stores it with requestctx.WithVisitor.
// New or tampered cookies are replaced with a fresh visitor id.
func (v *VisitorCookies) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitor, ok := v.read(r)
		if !ok {
			visitor = requestctx.Visitor{ID: ulid.Make().String()}
			v.write(w, visitor)
		}
		next.ServeHTTP(w, r.WithContext(requestctx.WithVisitor(r.Context(), visitor)))
	})
}

// MarkCounted rewrites the cookie so later increments from this browser are skipped. It must be
// called before the response body is written.
func (v *VisitorCookies) MarkCounted(w http.ResponseWriter, visitor requestctx.Visitor) {
	visitor.Counted = true
	v.write(w, visitor)
}

func (v *VisitorCookies) read(r *http.Request) (requestctx.Visitor, bool) {
	c, err := r.Cookie(v.name)
	if err != nil || c.Value == "" {
		return requestctx.Visitor{}, false
	}
	payloadPart, sigPart, found := strings.Cut(c.Value, ".")
	if !found {
		return requestctx.Visitor{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return requestctx.Visitor{}, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil || !hmac.Equal(sig, v.sign(payload)) {
		return requestctx.Visitor{}, false
	}

	var data visitorCookie
	if err := json.Unmarshal(payload, &data); err != nil {
		return requestctx.Visitor{}, false
	}
	if _, err := ulid.ParseStrict(data.ID); err != nil {
		return requestctx.Visitor{}, false
	}
	return requestctx.Visitor{ID: data.ID, Returning: true, Counted: data.Counted}, true
}

func (v *VisitorCookies) write(w http.ResponseWriter, visitor requestctx.Visitor) {
	now := v.now().UTC()
	payload, _ := json.Marshal(visitorCookie{ID: visitor.ID, Counted: visitor.Counted, Issued: now})
	value := base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString(v.sign(payload))
	http.SetCookie(w, &http.Cookie{
		Name:     v.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(v.ttl),
		MaxAge:   int(v.ttl / time.Second),
	})
}

func (v *VisitorCookies) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, v.key)
	mac.Write(payload)
	return mac.Sum(nil)
}
