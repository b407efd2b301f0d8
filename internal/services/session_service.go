// internal/services/session_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

var (
	ErrSessionInvalid = errors.New("session data is invalid")
	ErrLoginRejected  = errors.New("credential rejected")
)

// CachedProfile is the loosely shaped user blob a client keeps next to its
// credential. Legacy profiles carry Roles instead of AdminType.
type CachedProfile struct {
	ID         string   `json:"id,omitempty"`
	Email      string   `json:"email,omitempty"`
	Name       string   `json:"name,omitempty"`
	Role       string   `json:"role,omitempty"`
	AdminType  string   `json:"adminType,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	IsVerified *bool    `json:"isVerified,omitempty"`
	Status     string   `json:"status,omitempty"`
}

// ReconcileIdentity merges a decoded credential with an optional cached
// profile. The credential owns the id; the profile wins for role, admin
// sub-type and display fields. An admin whose sub-type cannot be recovered
// from any source is returned as an admin with no sub-type.
func ReconcileIdentity(claims *utils.CredentialClaims, profile *CachedProfile) *models.User {
	if claims == nil {
		return nil
	}

	user := &models.User{
		ID:     claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   models.Role(claims.Role),
		Status: models.UserStatusActive,
	}
	adminType, hasAdminType := models.ParseAdminType(claims.AdminType)

	if profile != nil {
		if profile.Role != "" {
			user.Role = models.Role(profile.Role)
		}
		if t, ok := models.ParseAdminType(profile.AdminType); ok {
			adminType, hasAdminType = t, true
		}
		if profile.Email != "" {
			user.Email = profile.Email
		}
		if profile.Name != "" {
			user.Name = profile.Name
		}
		if user.ID == "" {
			user.ID = profile.ID
		}
		if profile.IsVerified != nil {
			user.IsVerified = *profile.IsVerified
		}
		if profile.Status != "" {
			user.Status = models.UserStatus(profile.Status)
		}
	}

	if user.Role == models.RoleAdmin && !hasAdminType {
		var sources [][]string
		if profile != nil {
			sources = append(sources, profile.Roles)
		}
		sources = append(sources, claims.Roles)
		adminType, hasAdminType = firstAdminType(sources...)
	}

	if user.Role == models.RoleAdmin && hasAdminType {
		user.AdminType = adminType
	}
	return user
}

func firstAdminType(sources ...[]string) (models.AdminType, bool) {
	for _, roles := range sources {
		for _, r := range roles {
			if t, ok := models.ParseAdminType(r); ok {
				return t, true
			}
		}
	}
	return "", false
}

// profileWithinCredential strips the role fields of a client supplied
// profile that claim more than the credential grants. A profile role must
// match the credential role, and a profile admin sub-type must match the
// credential's when the credential names one.
func profileWithinCredential(claims *utils.CredentialClaims, profile *CachedProfile) *CachedProfile {
	if claims == nil || profile == nil {
		return profile
	}
	bounded := *profile
	if bounded.Role != "" && bounded.Role != claims.Role {
		bounded.Role = ""
		bounded.AdminType = ""
		bounded.Roles = nil
	}
	if claimed, ok := models.ParseAdminType(claims.AdminType); ok {
		if t, ok := models.ParseAdminType(bounded.AdminType); ok && t != claimed {
			bounded.AdminType = ""
		}
	}
	return &bounded
}

// CredentialDecoder turns a raw bearer credential into claims.
type CredentialDecoder interface {
	Decode(token string) (*utils.CredentialClaims, error)
}

// JWTDecoder verifies HS256 credentials when Secret is set and only decodes
// them otherwise.
type JWTDecoder struct {
	Secret string
}

func (d JWTDecoder) Decode(token string) (*utils.CredentialClaims, error) {
	return utils.DecodeCredential(token, d.Secret)
}

// Session is a live authenticated session.
type Session struct {
	ID    string       `json:"sessionId"`
	User  *models.User `json:"user"`
	Token string       `json:"-"`
}

// SessionState is what gates consume. Loading is set while a login or
// restore for the session is still running.
type SessionState struct {
	Loading bool
	User    *models.User
}

const (
	sessionIdleTTL    = 30 * time.Minute
	sessionSweepEvery = time.Minute
)

type sessionEntry struct {
	loading   bool
	token     string
	user      *models.User
	expiresAt time.Time
	lastSeen  time.Time
}

func (e *sessionEntry) expired(now time.Time) bool {
	return !e.loading && !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func credentialExpiry(claims *utils.CredentialClaims) time.Time {
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func sessionTokenKey(id string) string { return "session:" + id + ":token" }
func sessionUserKey(id string) string  { return "session:" + id + ":user" }

type SessionService struct {
	store   KeyValueStore
	decoder CredentialDecoder
	logger  logrus.FieldLogger
	metrics *Metrics

	mu        sync.RWMutex
	sessions  map[string]*sessionEntry
	lastSweep time.Time
	now       func() time.Time
	onExpire  func(id string)
}

func NewSessionService(store KeyValueStore, decoder CredentialDecoder, logger logrus.FieldLogger, metrics *Metrics) *SessionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SessionService{
		store:     store,
		decoder:   decoder,
		logger:    logger,
		metrics:   metrics,
		sessions:  make(map[string]*sessionEntry),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// OnExpire registers a callback run after a session is ended because its
// credential expired.
func (s *SessionService) OnExpire(fn func(id string)) {
	s.onExpire = fn
}

// Login decodes the credential, reconciles it with the optional profile and
// persists both under a new session id. Profile role fields that disagree
// with the credential are ignored. Storage failures are logged only.
func (s *SessionService) Login(ctx context.Context, token string, profile *CachedProfile) (*Session, error) {
	s.sweep(ctx)
	id := ulid.Make().String()
	s.setEntry(id, &sessionEntry{loading: true})

	claims, err := s.decoder.Decode(token)
	if err != nil {
		s.dropEntry(id)
		s.metrics.ObserveSession("login_rejected")
		s.logger.WithError(err).Warn("Rejected session credential")
		return nil, fmt.Errorf("%w: %v", ErrLoginRejected, err)
	}

	user := ReconcileIdentity(claims, profileWithinCredential(claims, profile))
	if user.Role == models.RoleAdmin && user.AdminType == "" {
		s.logger.WithField("user_id", user.ID).Warn("Admin session without a resolvable admin type")
	}

	s.persist(ctx, id, token, user)
	s.setEntry(id, &sessionEntry{token: token, user: user, expiresAt: credentialExpiry(claims)})
	s.metrics.ObserveSession("login")

	return &Session{ID: id, User: user.Clone(), Token: token}, nil
}

// Restore rebuilds a session from storage. A session with no stored
// credential is anonymous. Undecodable or corrupt data clears every key of
// the session and yields an anonymous state together with ErrSessionInvalid.
func (s *SessionService) Restore(ctx context.Context, id string) (SessionState, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return SessionState{}, nil
	}

	s.setEntry(id, &sessionEntry{loading: true})

	token, ok, err := s.store.Get(ctx, sessionTokenKey(id))
	if err != nil {
		s.dropEntry(id)
		return SessionState{}, fmt.Errorf("failed to load session: %w", err)
	}
	if !ok {
		s.dropEntry(id)
		return SessionState{}, nil
	}

	claims, err := s.decoder.Decode(token)
	if err == nil {
		if exp := credentialExpiry(claims); !exp.IsZero() && !s.now().Before(exp) {
			err = errors.New("credential expired")
		}
	}
	if err != nil {
		s.logger.WithError(err).WithField("session_id", id).Warn("Stored credential could not be decoded, clearing session")
		s.clear(ctx, id)
		s.metrics.ObserveSession("restore_invalid")
		return SessionState{}, ErrSessionInvalid
	}

	var profile *CachedProfile
	raw, ok, err := s.store.Get(ctx, sessionUserKey(id))
	if err != nil {
		s.dropEntry(id)
		return SessionState{}, fmt.Errorf("failed to load session: %w", err)
	}
	if ok {
		profile = &CachedProfile{}
		if err := json.Unmarshal([]byte(raw), profile); err != nil {
			s.logger.WithError(err).WithField("session_id", id).Warn("Cached profile is malformed, clearing session")
			s.clear(ctx, id)
			s.metrics.ObserveSession("restore_invalid")
			return SessionState{}, ErrSessionInvalid
		}
	}

	user := ReconcileIdentity(claims, profileWithinCredential(claims, profile))
	s.setEntry(id, &sessionEntry{token: token, user: user, expiresAt: credentialExpiry(claims)})
	s.metrics.ObserveSession("restore")

	return SessionState{User: user.Clone()}, nil
}

// Resolve returns the in-memory state of a session, restoring it from
// storage when this process has not seen it yet. A session whose credential
// has expired is cleared and reported as ErrSessionInvalid.
func (s *SessionService) Resolve(ctx context.Context, id string) (SessionState, error) {
	if id == "" {
		return SessionState{}, nil
	}

	now := s.now()
	s.mu.Lock()
	entry, known := s.sessions[id]
	expired := known && entry.expired(now)
	if known && !expired {
		entry.lastSeen = now
	}
	s.mu.Unlock()

	if expired {
		s.expire(ctx, id)
		return SessionState{}, ErrSessionInvalid
	}
	s.sweep(ctx)
	if known {
		return s.State(id), nil
	}
	return s.Restore(ctx, id)
}

func (s *SessionService) State(id string) SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	if !ok || entry.expired(s.now()) {
		return SessionState{}
	}
	return SessionState{Loading: entry.loading, User: entry.user.Clone()}
}

// Token returns the raw credential held by a session.
func (s *SessionService) Token(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	if !ok || entry.token == "" || entry.expired(s.now()) {
		return "", false
	}
	return entry.token, true
}

func (s *SessionService) Logout(ctx context.Context, id string) {
	s.clear(ctx, id)
	s.metrics.ObserveSession("logout")
}

// sweep runs at most once a minute. Sessions with an expired credential are
// ended; idle ones are only dropped from memory and restored from storage on
// their next request.
func (s *SessionService) sweep(ctx context.Context) {
	now := s.now()
	var expired []string

	s.mu.Lock()
	if now.Sub(s.lastSweep) < sessionSweepEvery {
		s.mu.Unlock()
		return
	}
	s.lastSweep = now
	for id, entry := range s.sessions {
		switch {
		case entry.loading:
		case entry.expired(now):
			expired = append(expired, id)
		case now.Sub(entry.lastSeen) > sessionIdleTTL:
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.expire(ctx, id)
	}
}

func (s *SessionService) expire(ctx context.Context, id string) {
	s.logger.WithField("session_id", id).Info("Session credential expired")
	s.clear(ctx, id)
	s.metrics.ObserveSession("expired")
	if s.onExpire != nil {
		s.onExpire(id)
	}
}

func (s *SessionService) persist(ctx context.Context, id, token string, user *models.User) {
	if err := s.store.Set(ctx, sessionTokenKey(id), token); err != nil {
		s.logger.WithError(err).WithField("session_id", id).Error("Failed to store session credential")
	}
	payload, err := json.Marshal(user)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode session user")
		return
	}
	if err := s.store.Set(ctx, sessionUserKey(id), string(payload)); err != nil {
		s.logger.WithError(err).WithField("session_id", id).Error("Failed to store session user")
	}
}

func (s *SessionService) clear(ctx context.Context, id string) {
	s.dropEntry(id)
	for _, key := range []string{sessionTokenKey(id), sessionUserKey(id)} {
		if err := s.store.Remove(ctx, key); err != nil {
			s.logger.WithError(err).WithField("key", key).Error("Failed to remove session key")
		}
	}
}

func (s *SessionService) setEntry(id string, entry *sessionEntry) {
	entry.lastSeen = s.now()
	s.mu.Lock()
	s.sessions[id] = entry
	s.mu.Unlock()
}

func (s *SessionService) dropEntry(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
