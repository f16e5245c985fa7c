package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
	"github.com/psyconsult/booking-api/internal/pkg/metrics"
)

// AuthService implements registration, login, session resolution and
// profile management.
type AuthService struct {
	users        ports.UserRepository
	appointments ports.AppointmentRepository
	sessions     ports.SessionStore
	jwtSecret    string
	sessionTTL   time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	appointments ports.AppointmentRepository,
	sessions ports.SessionStore,
	jwtSecret string,
	sessionTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:        users,
		appointments: appointments,
		sessions:     sessions,
		jwtSecret:    jwtSecret,
		sessionTTL:   sessionTTL,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// sessionClaims identifies a session; the session id travels as jti.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Register creates a client account, links earlier anonymous submissions made
// with the same email and opens a session.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.Session, error) {
	email := domain.NormalizeEmail(in.Email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.NewValidationError("email", domain.ErrEmailTaken.Error())
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         domain.RoleClient,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.NewValidationError("email", domain.ErrEmailTaken.Error())
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	linked, err := s.appointments.LinkToUser(ctx, email, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to link existing appointments")
	}

	metrics.RegistrationsTotal.Inc()
	s.logger.Info().Str("user_id", user.ID).Int64("linked_appointments", linked).Msg("user registered")

	return s.openSession(ctx, user)
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")

	return s.openSession(ctx, user)
}

// Logout ends the session named by token. Unknown sessions are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info().Str("user_id", claims.Subject).Msg("user logged out")
	return nil
}

// Authenticate resolves a session token into the current user record, so role
// changes apply to sessions that are already open.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	userID, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if userID != claims.Subject {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, actor domain.Identity) (*domain.User, error) {
	return s.users.FindByID(ctx, actor.UserID)
}

// UpdateProfile changes name, phone and password. A new password requires the
// current one.
func (s *AuthService) UpdateProfile(ctx context.Context, actor domain.Identity, in ports.UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.NewPassword != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
			return nil, domain.NewValidationError("current_password", "current password is incorrect")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("update profile: hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// EnsureAdmin makes sure an admin account exists for email, creating it or
// promoting the existing account.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = domain.NormalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return nil
		}
		existing.Role = domain.RoleAdmin
		existing.UpdatedAt = s.now()
		if err := s.users.Update(ctx, existing); err != nil {
			return fmt.Errorf("ensure admin: promote: %w", err)
		}
		s.logger.Info().Str("user_id", existing.ID).Msg("account promoted to admin")
		return nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ensure admin: hash password: %w", err)
	}
	now := s.now()
	admin := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	s.logger.Info().Str("user_id", admin.ID).Msg("admin account created")
	return nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*ports.Session, error) {
	sessionID := uuid.NewString()
	if err := s.sessions.Create(ctx, sessionID, user.ID, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	now := s.now()
	claims := sessionClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("open session: sign token: %w", err)
	}

	return &ports.Session{Token: token, User: user}, nil
}

func (s *AuthService) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
