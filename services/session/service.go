// Package session owns sign-up, sign-in and the signed-in state of a client.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/apperr"
	"github.com/sahilchouksey/intern-track/utils/auth"
)

// SignUpInput is a new account with its profile
type SignUpInput struct {
	Email       string     `json:"email" validate:"required,email"`
	Password    string     `json:"password" validate:"required,min=6"`
	Name        string     `json:"name" validate:"required,min=2,max=100"`
	Role        model.Role `json:"role" validate:"required,oneof=student faculty college company"`
	CollegeID   *uint      `json:"college_id,omitempty"`
	CollegeName string     `json:"college_name,omitempty"`
	FacultyID   *uint      `json:"faculty_id,omitempty"`
	CompanyName string     `json:"company_name,omitempty"`
}

// AuthService verifies credentials and issues tokens
type AuthService struct {
	db        *gorm.DB
	jwt       *auth.JWTManager
	blacklist *auth.BlacklistService
	logger    *zap.Logger
}

func NewAuthService(db *gorm.DB, jwt *auth.JWTManager, blacklist *auth.BlacklistService, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{db: db, jwt: jwt, blacklist: blacklist, logger: logger}
}

// SignUp creates the account and its profile in one write
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*model.User, *auth.TokenPair, error) {
	role, err := model.ParseRole(string(in.Role))
	if err != nil {
		return nil, nil, apperr.Validation("%v", err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, nil, &apperr.AuthError{Reason: "weak-password", Err: err}
		}
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var existing int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&model.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, nil, &apperr.PersistenceError{Collection: model.CollectionUsers, Err: err}
	}
	if existing > 0 {
		return nil, nil, &apperr.AuthError{Reason: "email-already-in-use"}
	}

	if role == model.RoleStudent {
		college, err := s.lookupCollege(ctx, in.CollegeID)
		if err != nil {
			return nil, nil, err
		}
		in.CollegeName = college.CollegeName
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         role,
		CollegeID:    in.CollegeID,
		CollegeName:  in.CollegeName,
		FacultyID:    in.FacultyID,
		CompanyName:  in.CompanyName,
		Skills:       model.StringList{},
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, nil, &apperr.PersistenceError{Collection: model.CollectionUsers, Err: err}
	}

	tokens, err := s.jwt.IssuePair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	s.logger.Info("user signed up", zap.Uint("user_id", user.ID), zap.String("role", string(role)))
	return user, tokens, nil
}

// lookupCollege resolves the college a student registers under
func (s *AuthService) lookupCollege(ctx context.Context, id *uint) (*model.User, error) {
	if id == nil {
		return nil, apperr.Validation("college ID is required for students")
	}
	var college model.User
	err := s.db.WithContext(ctx).Where("id = ? AND role = ?", *id, model.RoleCollege).First(&college).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Validation("invalid college ID, please ask your college for the correct ID")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up college: %w", err)
	}
	return &college, nil
}

// SignIn checks credentials and returns the user's ID with fresh tokens.
// The profile itself is loaded separately with Profile.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (uint, *auth.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	// Credentials outlive a removed profile
	var user model.User
	err := s.db.WithContext(ctx).Unscoped().Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil, &apperr.AuthError{Reason: "invalid-credential"}
	}
	if err != nil {
		return 0, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return 0, nil, &apperr.AuthError{Reason: "invalid-credential"}
	}

	tokens, err := s.jwt.IssuePair(&user)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return user.ID, tokens, nil
}

// Profile loads the profile document for uid
func (s *AuthService) Profile(ctx context.Context, uid uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Collection: model.CollectionUsers, ID: strconv.FormatUint(uint64(uid), 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &user, nil
}

// Authenticate resolves an access token to its user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, *auth.Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, nil, &apperr.AuthError{Reason: "invalid-token", Err: err}
	}
	if claims.TokenType != auth.TokenTypeAccess {
		return nil, nil, &apperr.AuthError{Reason: "invalid-token-type"}
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, nil, err
	}

	user, err := s.Profile(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, &apperr.AuthError{Reason: "token-invalidated"}
	}
	return user, claims, nil
}

// Refresh exchanges a refresh token for a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, &apperr.AuthError{Reason: "invalid-token", Err: err}
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.Profile(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, &apperr.AuthError{Reason: "token-invalidated"}
	}

	// Rotate: the used refresh token cannot be replayed
	if err := s.blacklist.RevokeToken(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time, auth.ReasonRotated); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return s.jwt.IssuePair(user)
}

// SignOut revokes the presented token. With everywhere set every token of
// the user is invalidated.
func (s *AuthService) SignOut(ctx context.Context, claims *auth.Claims, everywhere bool) error {
	if claims == nil {
		return nil
	}
	if everywhere {
		return s.blacklist.RevokeAllUserTokens(ctx, claims.UserID)
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	return s.blacklist.RevokeToken(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time, auth.ReasonLogout)
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("failed to check token status: %w", err)
	}
	if revoked {
		return &apperr.AuthError{Reason: "token-revoked"}
	}
	return nil
}
