// internal/services/authorization_service.go
package services

import (
	"path"
	"sort"
	"strings"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

const (
	LoginPath            = "/login"
	NotFoundPath         = "/not-found"
	DefaultAdminHomePath = "/admin"
)

type RouteOutcome string

const (
	RouteAllow             RouteOutcome = "allow"
	RoutePending           RouteOutcome = "pending"
	RouteRedirectLogin     RouteOutcome = "redirect_login"
	RouteRedirectNotFound  RouteOutcome = "redirect_not_found"
	RouteRedirectAdminHome RouteOutcome = "redirect_admin_home"
)

type RouteDecision struct {
	Outcome RouteOutcome `json:"outcome"`
	Target  string       `json:"target,omitempty"`
}

// RouteRule protects a front-end area. AllowedRoles is ignored inside admin
// areas, where being an admin is the only role requirement.
type RouteRule struct {
	AdminArea    bool       `json:"adminArea"`
	AllowedRoles []string   `json:"allowedRoles,omitempty"`
	Permission   Permission `json:"permission,omitempty"`
}

// AdminHome is the landing page for an admin sub-type. Super admins and
// admins without a sub-type land on fallback.
func AdminHome(adminType models.AdminType, fallback string) string {
	switch adminType {
	case models.AdminTypeContent:
		return "/admin/tracks"
	case models.AdminTypeFinancial:
		return "/admin/payments"
	case models.AdminTypeTechnical:
		return "/admin/blockchain"
	}
	if fallback == "" {
		return DefaultAdminHomePath
	}
	return fallback
}

// DecideRoute decides access to a protected area. Anonymous users go to the
// login page; authenticated users lacking the role go to not-found. A
// missing permission sends admins inside an admin area to their landing page.
func DecideRoute(state SessionState, rule RouteRule, adminHome string) RouteDecision {
	if state.Loading {
		return RouteDecision{Outcome: RoutePending}
	}

	user := state.User
	if user == nil {
		return RouteDecision{Outcome: RouteRedirectLogin, Target: LoginPath}
	}

	if rule.AdminArea {
		if !IsAdmin(user) {
			return RouteDecision{Outcome: RouteRedirectNotFound, Target: NotFoundPath}
		}
	} else if len(rule.AllowedRoles) > 0 {
		allowed := false
		for _, role := range rule.AllowedRoles {
			if HasRole(user, role) {
				allowed = true
				break
			}
		}
		if !allowed {
			return RouteDecision{Outcome: RouteRedirectNotFound, Target: NotFoundPath}
		}
	}

	if rule.Permission != "" && !HasPermission(user, rule.Permission) {
		if rule.AdminArea && IsAdmin(user) {
			return RouteDecision{Outcome: RouteRedirectAdminHome, Target: AdminHome(user.AdminType, adminHome)}
		}
		return RouteDecision{Outcome: RouteRedirectNotFound, Target: NotFoundPath}
	}

	return RouteDecision{Outcome: RouteAllow}
}

type PaymentGateOutcome string

const (
	PaymentGateContent         PaymentGateOutcome = "content"
	PaymentGatePending         PaymentGateOutcome = "pending"
	PaymentGateFailed          PaymentGateOutcome = "failed"
	PaymentGatePaymentRequired PaymentGateOutcome = "payment_required"
)

type PaymentGateOptions struct {
	ExcludeArtistVerification bool
	ArtistVerificationPrefix  string
}

type PaymentGateResult struct {
	Outcome PaymentGateOutcome          `json:"outcome"`
	Record  *models.PaymentVerification `json:"record,omitempty"`
	Bypass  bool                        `json:"bypass,omitempty"`
}

// EvaluatePaymentGate reads the ledger and never writes to it. onVerified,
// when set, runs only for a verified record. Artist verification tracks
// skip the gate when the options exclude them.
func EvaluatePaymentGate(ledger PaymentReader, entityID string, entityType models.EntityType, opts PaymentGateOptions, onVerified func(models.PaymentVerification)) PaymentGateResult {
	if opts.ExcludeArtistVerification && entityType == models.EntityTypeTrack &&
		opts.ArtistVerificationPrefix != "" && strings.HasPrefix(entityID, opts.ArtistVerificationPrefix) {
		return PaymentGateResult{Outcome: PaymentGateContent, Bypass: true}
	}

	if ledger == nil {
		return PaymentGateResult{Outcome: PaymentGatePaymentRequired}
	}
	record, ok := ledger.Get(entityID, entityType)
	if !ok {
		return PaymentGateResult{Outcome: PaymentGatePaymentRequired}
	}

	switch record.Status {
	case models.VerificationStatusVerified:
		if onVerified != nil {
			onVerified(record)
		}
		return PaymentGateResult{Outcome: PaymentGateContent, Record: &record}
	case models.VerificationStatusPending:
		return PaymentGateResult{Outcome: PaymentGatePending, Record: &record}
	case models.VerificationStatusRejected:
		return PaymentGateResult{Outcome: PaymentGateFailed, Record: &record}
	}
	return PaymentGateResult{Outcome: PaymentGatePaymentRequired}
}

type routeEntry struct {
	prefix string
	rule   RouteRule
}

// DefaultRoutes is the protected area table of the web front end.
func DefaultRoutes() map[string]RouteRule {
	admin := func(p Permission) RouteRule { return RouteRule{AdminArea: true, Permission: p} }
	artistOnly := []string{string(models.RoleArtist)}

	return map[string]RouteRule{
		"/admin":            {AdminArea: true},
		"/admin/tracks":     admin(PermApproveTracks),
		"/admin/artists":    admin(PermVerifyArtists),
		"/admin/content":    admin(PermManageContent),
		"/admin/payments":   admin(PermViewPayments),
		"/admin/fees":       admin(PermManageFees),
		"/admin/reports":    admin(PermViewFinancialReports),
		"/admin/blockchain": admin(PermManageBlockchain),
		"/admin/publish":    admin(PermPublishCopyrights),
		"/admin/transfers":  admin(PermPublishTransfers),
		"/admin/settings":   admin(PermManageSystemSettings),
		"/admin/users":      admin(PermManageUsers),
		"/admin/admins":     admin(PermManageAdmins),
		"/admin/roles":      admin(PermManageRoles),
		"/admin/audit-logs": admin(PermViewAuditLogs),

		"/artist":              {AllowedRoles: artistOnly},
		"/artist/upload":       {AllowedRoles: artistOnly, Permission: PermUploadTracks},
		"/artist/tracks":       {AllowedRoles: artistOnly, Permission: PermViewOwnTracks},
		"/artist/transfers":    {AllowedRoles: artistOnly, Permission: PermRequestTransfers},
		"/artist/certificates": {AllowedRoles: artistOnly, Permission: PermViewCertificates},

		"/licensee":          {AllowedRoles: []string{string(models.RoleLicensee), string(models.RoleArtist)}},
		"/licensee/browse":   {AllowedRoles: []string{string(models.RoleLicensee), string(models.RoleArtist)}, Permission: PermBrowseTracks},
		"/licensee/licenses": {AllowedRoles: []string{string(models.RoleLicensee), string(models.RoleArtist)}, Permission: PermViewOwnLicenses},
		"/licensee/payments": {AllowedRoles: []string{string(models.RoleLicensee), string(models.RoleArtist)}, Permission: PermPayLicenses},

		"/dashboard": {AllowedRoles: []string{string(models.RoleArtist), string(models.RoleLicensee), string(models.RoleAdmin)}},
	}
}

// AuthorizationService applies the gates against the configured route table
// and the payment ledger.
type AuthorizationService struct {
	routes  []routeEntry
	ledger  PaymentReader
	gate    config.GateConfig
	metrics *Metrics
}

func NewAuthorizationService(ledger PaymentReader, gate config.GateConfig, routes map[string]RouteRule, metrics *Metrics) *AuthorizationService {
	if routes == nil {
		routes = DefaultRoutes()
	}
	entries := make([]routeEntry, 0, len(routes))
	for prefix, rule := range routes {
		entries = append(entries, routeEntry{prefix: strings.TrimSuffix(prefix, "/"), rule: rule})
	}
	// longest prefix first
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].prefix) != len(entries[j].prefix) {
			return len(entries[i].prefix) > len(entries[j].prefix)
		}
		return entries[i].prefix < entries[j].prefix
	})

	return &AuthorizationService{
		routes:  entries,
		ledger:  ledger,
		gate:    gate,
		metrics: metrics,
	}
}

// RuleFor finds the rule of the longest matching prefix, on segment
// boundaries. Unmatched paths are public.
func (s *AuthorizationService) RuleFor(target string) (RouteRule, bool) {
	target = strings.TrimSpace(target)
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	clean := path.Clean("/" + target)
	for _, e := range s.routes {
		if clean == e.prefix || strings.HasPrefix(clean, e.prefix+"/") {
			return e.rule, true
		}
	}
	return RouteRule{}, false
}

func (s *AuthorizationService) DecidePath(state SessionState, target string) RouteDecision {
	rule, ok := s.RuleFor(target)
	if !ok {
		s.metrics.ObserveGate("route", string(RouteAllow))
		return RouteDecision{Outcome: RouteAllow}
	}
	return s.Decide(state, rule)
}

func (s *AuthorizationService) Decide(state SessionState, rule RouteRule) RouteDecision {
	decision := DecideRoute(state, rule, s.gate.DefaultAdminHome)
	s.metrics.ObserveGate("route", string(decision.Outcome))
	return decision
}

func (s *AuthorizationService) AdminHome(user *models.User) string {
	if !IsAdmin(user) {
		return ""
	}
	return AdminHome(user.AdminType, s.gate.DefaultAdminHome)
}

func (s *AuthorizationService) EvaluatePayment(entityID string, entityType models.EntityType, onVerified func(models.PaymentVerification)) PaymentGateResult {
	result := EvaluatePaymentGate(s.ledger, entityID, entityType, PaymentGateOptions{
		ExcludeArtistVerification: s.gate.ExcludeArtistVerification,
		ArtistVerificationPrefix:  s.gate.ArtistVerificationPrefix,
	}, onVerified)
	s.metrics.ObserveGate("payment", string(result.Outcome))
	return result
}
