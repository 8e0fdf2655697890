package handler

import (
	"net/http"
	"strings"
	"time"

	"meetroom/backend/internal/config"
	"meetroom/backend/internal/identity"
	"meetroom/backend/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const userIDKey = "user_id"

// TokenIssuer signs and checks session tokens for the local user.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns an HS256 token whose subject is userID.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    config.TokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate checks signature, issuer and expiry and returns the user id.
func (t *TokenIssuer) Validate(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(config.TokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", errors.Wrap(err, "parse token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return c.Query("token")
}

// RequireAuth accepts a token for the currently signed-in user only.
func (h *Handler) RequireAuth(c *gin.Context) {
	user, err := h.authenticate(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.Set(userIDKey, user.ID)
	c.Next()
}

func (h *Handler) authenticate(c *gin.Context) (*models.User, error) {
	raw := bearerToken(c)
	if raw == "" {
		return nil, errors.New("authorization token missing")
	}
	userID, err := h.Tokens.Validate(raw)
	if err != nil {
		return nil, errors.New("invalid or expired token")
	}
	user := h.Identity.Current()
	if user == nil || user.ID != userID {
		return nil, models.ErrNotAuthenticated
	}
	return user, nil
}

func (h *Handler) currentUser(c *gin.Context) (models.User, error) {
	user := h.Identity.Current()
	if user == nil {
		return models.User{}, models.ErrNotAuthenticated
	}
	return *user, nil
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Login signs in or registers the local user and returns a session token.
func (h *Handler) Login(c *gin.Context) {
	var p identity.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.Identity.Login(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		writeError(c, errors.Wrap(err, "issue token"))
		return
	}
	c.JSON(http.StatusOK, authResponse{User: user, Token: token})
}

// Me restores the persisted user. It is how a reloaded shell picks its
// session back up.
func (h *Handler) Me(c *gin.Context) {
	user, err := h.Identity.Restore(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if user == nil {
		writeError(c, models.ErrNotAuthenticated)
		return
	}
	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		writeError(c, errors.Wrap(err, "issue token"))
		return
	}
	c.JSON(http.StatusOK, authResponse{User: user, Token: token})
}

// Logout leaves the current room, then forgets the user.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.Rooms.LeaveRoom(ctx); err != nil {
		writeError(c, err)
		return
	}
	if err := h.Identity.Logout(ctx); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
