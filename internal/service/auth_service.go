package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/iliyamo/user-directory/internal/cache"
	"github.com/iliyamo/user-directory/internal/model"
	"github.com/iliyamo/user-directory/internal/queue"
	"github.com/iliyamo/user-directory/internal/utils"
)

// Password reset types.
const (
	ResetTypeReset  = "RESET"  // caller proves the old password
	ResetTypeForgot = "FORGOT" // old password skipped; gated by a one-time code when configured
)

// DefaultRole is assigned when registration names no role.
const DefaultRole = "USER"

// ResetCodeTTL bounds how long an issued reset code stays usable.
const ResetCodeTTL = 15 * time.Minute

// AuthServiceArgs contains the mandatory arguments for the AuthService.
type AuthServiceArgs struct {
	Directory *Directory
	Hasher    PasswordHasher
	Tokens    TokenIssuer
	// ResetCodes gates FORGOT resets. Nil means FORGOT needs no code.
	ResetCodes ResetCodeVerifier
	// Cache holds the cached profiles refreshed after a password reset.
	Cache *cache.ProfileCache
	// SelfRegisterRoles lists the roles a registration may ask for. Empty
	// means only DefaultRole.
	SelfRegisterRoles []string
}

// AuthService handles registration, login and password resets.
type AuthService struct {
	dir        *Directory
	hasher     PasswordHasher
	tokens     TokenIssuer
	resetCodes ResetCodeVerifier
	cache      *cache.ProfileCache
	roles      map[string]bool
	opts       options
}

func NewAuthService(args AuthServiceArgs, opts ...Option) *AuthService {
	roles := map[string]bool{}
	for _, r := range args.SelfRegisterRoles {
		if r = strings.TrimSpace(r); r != "" {
			roles[r] = true
		}
	}
	if len(roles) == 0 {
		roles[DefaultRole] = true
	}
	return &AuthService{
		dir:        args.Directory,
		hasher:     args.Hasher,
		tokens:     args.Tokens,
		resetCodes: args.ResetCodes,
		cache:      args.Cache,
		roles:      roles,
		opts:       buildOptions(opts),
	}
}

// RegisterArgs is the registration payload.
type RegisterArgs struct {
	UserName     string
	Email        string
	MobileNumber string
	FullName     string
	Password     string
	Role         string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token   utils.AccessToken
	Profile model.UserProfile
}

// Register creates an active user and issues a token for it. Duplicates of
// email, mobile number or user name yield model.ErrAlreadyExists.
func (s *AuthService) Register(ctx context.Context, args RegisterArgs) (*AuthResult, error) {
	role := args.Role
	if role == "" {
		role = DefaultRole
	}
	if !s.roles[role] {
		return nil, fmt.Errorf("role %q is not open for registration: %w", role, model.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(args.Password)
	if err != nil {
		return nil, fmt.Errorf("error creating password hash: %w", err)
	}
	now := s.opts.now()
	u := &model.User{
		UserName:     args.UserName,
		Email:        args.Email,
		MobileNumber: args.MobileNumber,
		FullName:     args.FullName,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedOn:    now,
		CreatedBy:    args.UserName,
	}
	if err := s.dir.Create(ctx, u); err != nil {
		return nil, err
	}

	tok, err := s.tokens.Issue(u.UserName, u.Role, now)
	if err != nil {
		return nil, err
	}
	s.opts.log.WithField("user", u.UserName).Info("user registered")
	s.opts.emit(ctx, queue.EventRegistered, u.UserName, u.UserName, "")
	return &AuthResult{Token: tok, Profile: u.Profile()}, nil
}

// Login checks the password of userName and issues a token. Unknown users
// yield model.ErrNotFound and wrong passwords model.ErrBadCredentials; the
// HTTP layer reports both the same way.
func (s *AuthService) Login(ctx context.Context, userName, password string) (*AuthResult, error) {
	u, err := s.dir.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.opts.metrics.Login("not_found")
		} else {
			s.opts.metrics.Login("error")
		}
		return nil, err
	}
	if !s.hasher.Matches(password, u.PasswordHash) {
		s.opts.metrics.Login("bad_credentials")
		return nil, model.ErrBadCredentials
	}

	tok, err := s.tokens.Issue(u.UserName, u.Role, s.opts.now())
	if err != nil {
		s.opts.metrics.Login("error")
		return nil, err
	}
	s.opts.metrics.Login("success")
	return &AuthResult{Token: tok, Profile: u.Profile()}, nil
}

// ResetPasswordArgs is the reset payload. OldPassword is read for RESET,
// Code for FORGOT.
type ResetPasswordArgs struct {
	UserName    string
	Type        string
	OldPassword string
	NewPassword string
	Code        string
}

// ResetPassword replaces the user's password. On any failure the stored
// hash is left unchanged.
func (s *AuthService) ResetPassword(ctx context.Context, args ResetPasswordArgs) error {
	u, err := s.dir.FindByUserName(ctx, args.UserName)
	if err != nil {
		return err
	}

	switch strings.ToUpper(args.Type) {
	case ResetTypeReset:
		if !s.hasher.Matches(args.OldPassword, u.PasswordHash) {
			return model.ErrBadCredentials
		}
	case ResetTypeForgot:
		if s.resetCodes != nil {
			ok, err := s.resetCodes.Verify(ctx, u.UserName, args.Code)
			if err != nil {
				return err
			}
			if !ok {
				return model.ErrBadCredentials
			}
		}
	default:
		return fmt.Errorf("unknown reset type %q: %w", args.Type, model.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(args.NewPassword)
	if err != nil {
		return fmt.Errorf("error creating password hash: %w", err)
	}
	updated, err := s.dir.SetPassword(ctx, u.UserName, hash, u.UserName)
	if err != nil {
		return err
	}
	if s.cache != nil {
		// the audit stamps are part of the cached profile
		if err := s.cache.RefreshProfile(ctx, updated.Profile()); err != nil {
			s.opts.log.WithError(err).WithField("user", u.UserName).Error("profile cache not refreshed after password reset")
			return err
		}
	}
	s.opts.log.WithField("user", u.UserName).WithField("type", strings.ToUpper(args.Type)).Info("password reset")
	s.opts.emit(ctx, queue.EventPasswordReset, u.UserName, u.UserName, strings.ToUpper(args.Type))
	return nil
}

// IssueResetCode creates a one-time FORGOT code for an existing user and
// returns it for out-of-band delivery. It fails with model.ErrInvalidInput
// when no code store is configured.
func (s *AuthService) IssueResetCode(ctx context.Context, userName, actor string) (string, error) {
	if s.resetCodes == nil {
		return "", fmt.Errorf("reset codes are disabled: %w", model.ErrInvalidInput)
	}
	if _, err := s.dir.FindByUserName(ctx, userName); err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	if err := s.resetCodes.Store(ctx, userName, code, ResetCodeTTL); err != nil {
		return "", err
	}
	s.opts.log.WithField("user", userName).WithField("actor", actor).Info("password reset code issued")
	return code, nil
}
