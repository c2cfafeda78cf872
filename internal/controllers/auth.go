package controllers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adamanr/worklog_service/internal/access"
	"github.com/adamanr/worklog_service/internal/entity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const TokenSize = 16

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	accessKeyPrefix  = "access_token:"
	refreshKeyPrefix = "refresh_token:"
)

type AuthController struct {
	deps *Dependens
}

func NewAuthController(deps *Dependens) *AuthController {
	return &AuthController{
		deps: deps,
	}
}

// Bootstrap creates the configured administrator when no user exists yet.
func (c *AuthController) Bootstrap(ctx context.Context) error {
	count, err := c.deps.Store.CountUsers(ctx)
	if err != nil {
		return c.deps.storeFailure("count_users", err)
	}
	if count > 0 {
		return nil
	}

	boot := c.deps.Config.Bootstrap
	if boot.AdminEmail == "" || boot.AdminPassword == "" {
		c.deps.Logger.Warn("No users and no bootstrap admin configured")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(boot.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		c.deps.Logger.Error("Error hashing password", slog.String("error", err.Error()))
		return err
	}

	now := c.deps.now()
	user := entity.User{
		ID:           c.deps.newID(),
		Name:         boot.AdminName,
		Email:        normalizeEmail(boot.AdminEmail),
		PasswordHash: string(hash),
		Role:         entity.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.deps.Store.CreateUser(ctx, &user); err != nil {
		return c.deps.storeFailure("create_user", err, slog.String("email", user.Email))
	}

	c.deps.Logger.Info("Bootstrap admin created", slog.String("email", user.Email))
	return nil
}

func (c *AuthController) Register(ctx context.Context, actor entity.Actor, req entity.RegisterRequest) (*entity.User, error) {
	if err := access.Decide(actor, access.UserRegister, access.Any); err != nil {
		return nil, c.deps.denied(actor, err)
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	errs := &entity.ValidationError{}
	switch n := textLength(name); {
	case n == 0:
		errs.Add("Name is required")
	case n < minUserNameLength || n > maxNameLength:
		errs.Add("Name must be between 2 and 50 characters")
	}
	if !validEmail(email) {
		errs.Add("Please provide a valid email")
	}
	if len(req.Password) < minPasswordLength {
		errs.Add("Password must be at least 6 characters")
	}
	role := req.Role
	if role == "" {
		role = entity.RoleEmployee
	}
	if !role.Valid() {
		errs.Add("Role must be admin, manager, or employee")
	}

	var (
		employeeID *string
		emp        *entity.Employee
	)
	if req.EmployeeID != nil && strings.TrimSpace(*req.EmployeeID) != "" {
		id := strings.TrimSpace(*req.EmployeeID)
		found, err := c.deps.Store.GetEmployee(ctx, id)
		if err != nil {
			if !errors.Is(err, entity.ErrNotFound) {
				return nil, c.deps.storeFailure("get_employee", err, slog.String("id", id))
			}
			errs.Add("Employee does not exist")
		}
		employeeID, emp = &id, found
	}

	if err := errs.Err(); err != nil {
		c.deps.Logger.Warn("Invalid registration", slog.String("email", email), slog.String("error", err.Error()))
		return nil, err
	}

	if emp != nil && emp.UserID != nil && *emp.UserID != "" {
		c.deps.Logger.Warn("Employee already has a user", slog.String("employee_id", emp.ID), slog.String("user_id", *emp.UserID))
		return nil, fmt.Errorf("employee %s is linked to user %s: %w", emp.ID, *emp.UserID, entity.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.deps.Logger.Error("Error hashing password", slog.String("error", err.Error()))
		return nil, err
	}

	now := c.deps.now()
	user := entity.User{
		ID:           c.deps.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		EmployeeID:   employeeID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.deps.Store.CreateUser(ctx, &user); err != nil {
		return nil, c.deps.storeFailure("create_user", err, slog.String("email", email))
	}

	if emp != nil {
		emp.UserID = &user.ID
		emp.UpdatedBy = &actor.UserID
		emp.UpdatedAt = now
		if err := c.deps.Store.UpdateEmployee(ctx, emp); err != nil {
			return nil, c.deps.storeFailure("link_employee", err, slog.String("id", emp.ID), slog.String("user_id", user.ID))
		}
	}

	c.deps.Logger.Info("User registered", slog.String("id", user.ID), slog.String("role", string(role)))

	public := user.Public()
	return &public, nil
}

func (c *AuthController) AuthLogin(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, entity.NewValidationError("Email and password are required")
	}

	user, err := c.deps.Store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			c.deps.Logger.Warn("User with this email not found", slog.String("email", email))
			return nil, fmt.Errorf("invalid credentials: %w", entity.ErrUnauthorized)
		}
		return nil, c.deps.storeFailure("get_user_by_email", err, slog.String("email", email))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.deps.Logger.Warn("Invalid password", slog.String("email", email))
		return nil, fmt.Errorf("invalid credentials: %w", entity.ErrUnauthorized)
	}

	accessToken, err := c.issue(ctx, user, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	refreshToken, err := c.issue(ctx, user, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	public := user.Public()
	return &entity.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &public,
	}, nil
}

// Refresh exchanges a whitelisted refresh token for a new access token. The
// user is reloaded so role changes apply to the new token.
func (c *AuthController) Refresh(ctx context.Context, refreshToken string) (*entity.LoginResponse, error) {
	claims, err := c.verify(ctx, refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := c.deps.Store.GetUser(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", claims.ID, entity.ErrUnauthorized)
		}
		return nil, c.deps.storeFailure("get_user", err, slog.String("id", claims.ID))
	}

	accessToken, err := c.issue(ctx, user, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	return &entity.LoginResponse{AccessToken: accessToken}, nil
}

// CheckUserToken validates an Authorization header value and returns its claims.
func (c *AuthController) CheckUserToken(ctx context.Context, authHeader string) (*entity.Claims, error) {
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenStr == authHeader || tokenStr == "" {
		c.deps.Logger.Warn("Invalid bearer token")
		return nil, fmt.Errorf("invalid bearer token: %w", entity.ErrUnauthorized)
	}

	return c.verify(ctx, tokenStr, tokenTypeAccess)
}

// Logout revokes the access token and, when given, the refresh token.
func (c *AuthController) Logout(ctx context.Context, accessToken, refreshToken string) error {
	keys := []string{accessKeyPrefix + accessToken}
	if refreshToken != "" {
		keys = append(keys, refreshKeyPrefix+refreshToken)
	}

	if err := c.deps.Redis.Del(ctx, keys...).Err(); err != nil {
		c.deps.Logger.Error("Error revoking tokens", slog.String("error", err.Error()))
		return fmt.Errorf("revoke tokens: %w", entity.ErrUnavailable)
	}

	return nil
}

func (c *AuthController) Me(ctx context.Context, actor entity.Actor) (*entity.User, error) {
	user, err := c.deps.Store.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, c.deps.storeFailure("get_user", err, slog.String("id", actor.UserID))
	}

	public := user.Public()
	return &public, nil
}

func (c *AuthController) UpdatePassword(ctx context.Context, actor entity.Actor, req entity.UpdatePasswordRequest) error {
	errs := &entity.ValidationError{}
	if req.CurrentPassword == "" {
		errs.Add("Current password is required")
	}
	if len(req.NewPassword) < minPasswordLength {
		errs.Add("New password must be at least 6 characters")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	user, err := c.deps.Store.GetUser(ctx, actor.UserID)
	if err != nil {
		return c.deps.storeFailure("get_user", err, slog.String("id", actor.UserID))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.deps.Logger.Warn("Invalid current password", slog.String("id", user.ID))
		return fmt.Errorf("current password is incorrect: %w", entity.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.deps.Logger.Error("Error hashing password", slog.String("error", err.Error()))
		return err
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = c.deps.now()

	if err := c.deps.Store.UpdateUser(ctx, user); err != nil {
		return c.deps.storeFailure("update_user", err, slog.String("id", user.ID))
	}

	c.deps.Logger.Info("Password updated", slog.String("id", user.ID))
	return nil
}

// issue signs a token of the given type and whitelists it in redis.
func (c *AuthController) issue(ctx context.Context, user *entity.User, tokenType string) (string, error) {
	token, err := c.createToken(user, tokenType)
	if err != nil {
		return "", err
	}

	key, ttl := accessKeyPrefix+token, c.deps.Config.Redis.AccessTokenTTL
	if tokenType == tokenTypeRefresh {
		key, ttl = refreshKeyPrefix+token, c.deps.Config.Redis.RefreshTokenTTL
	}

	if err := c.deps.Redis.Set(ctx, key, "valid", ttl).Err(); err != nil {
		c.deps.Logger.Error("Error setting token", slog.String("type", tokenType), slog.String("error", err.Error()))
		return "", fmt.Errorf("store %s token: %w", tokenType, entity.ErrUnavailable)
	}

	return token, nil
}

func (c *AuthController) createToken(user *entity.User, tokenType string) (string, error) {
	tokenID, err := generateTokenID(c.deps.Logger)
	if err != nil {
		return "", err
	}

	expiresAt := c.deps.Config.Redis.AccessTokenTTL
	if tokenType == tokenTypeRefresh {
		expiresAt = c.deps.Config.Redis.RefreshTokenTTL
	}

	var employeeID string
	if user.EmployeeID != nil {
		employeeID = *user.EmployeeID
	}

	now := c.deps.now()
	claims := entity.Claims{
		ID:         user.ID,
		Email:      user.Email,
		Role:       user.Role,
		EmployeeID: employeeID,
		TokenID:    tokenID,
		TokenType:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresAt)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(c.deps.Config.Server.JWTSecret))
	if err != nil {
		c.deps.Logger.Error("Error signing token", slog.String("error", err.Error()))
		return "", err
	}

	return tokenStr, nil
}

func generateTokenID(logger *slog.Logger) (string, error) {
	b := make([]byte, TokenSize)
	if _, err := rand.Read(b); err != nil {
		logger.Error("Error generating token ID", slog.String("error", err.Error()))
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// verify checks the whitelist entry first, then signature, expiry and type.
func (c *AuthController) verify(ctx context.Context, tokenStr, tokenType string) (*entity.Claims, error) {
	prefix := accessKeyPrefix
	if tokenType == tokenTypeRefresh {
		prefix = refreshKeyPrefix
	}

	if err := c.deps.Redis.Get(ctx, prefix+tokenStr).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			c.deps.Logger.Warn("Token revoked", slog.String("type", tokenType))
			return nil, fmt.Errorf("token revoked: %w", entity.ErrUnauthorized)
		}
		c.deps.Logger.Error("Error checking token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("check token: %w", entity.ErrUnavailable)
	}

	token, err := jwt.ParseWithClaims(tokenStr, &entity.Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(c.deps.Config.Server.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.deps.now))
	if err != nil {
		c.deps.Logger.Warn("Error parsing token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("invalid token: %w", entity.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*entity.Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, fmt.Errorf("invalid token: %w", entity.ErrUnauthorized)
	}

	return claims, nil
}
