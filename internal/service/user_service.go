package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"time"

	"backend/internal/mailer"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/slugify"
	"backend/pkg/uid"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for request validation
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type CreateUserRequest struct {
	Email       string     `json:"email" binding:"required,email"`
	Phone       string     `json:"phone" binding:"required"`
	FullName    string     `json:"full_name" binding:"required"`
	Role        string     `json:"role" binding:"required"`
	Department  string     `json:"department"`
	Designation string     `json:"designation"`
	JoinDate    *time.Time `json:"join_date"`
}

type UpdateUserRequest struct {
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type DeleteUserRequest struct {
	DeleteCode string `json:"delete_code" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse never exposes the password hash or the profile delete code.
type UserResponse struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	FullName            string    `json:"full_name"`
	Slug                string    `json:"slug"`
	Role                string    `json:"role"`
	Hotel               string    `json:"hotel,omitempty"`
	IsSuperuser         bool      `json:"is_superuser"`
	IsActive            bool      `json:"is_active"`
	IsEmailVerified     bool      `json:"is_email_verified"`
	ForcePasswordChange bool      `json:"force_password_change"`
	DateJoined          time.Time `json:"date_joined"`
}

type LoginResponse struct {
	User   UserResponse `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	VerifyEmail(ctx context.Context, slug string) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest, ip, userAgent string) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, actor Actor, req ChangePasswordRequest) error

	CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error)
	GetUser(ctx context.Context, slug string) (*UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actor Actor, slug string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor Actor, slug string, req DeleteUserRequest) error
}

type userService struct {
	repo     repository.UserRepository
	rbacRepo repository.RBACRepository
	tx       repository.TransactionManager
	audit    AuditService
	mail     mailer.Mailer
}

func NewUserService(repo repository.UserRepository, rbacRepo repository.RBACRepository, tx repository.TransactionManager, audit AuditService, mail mailer.Mailer) UserService {
	return &userService{repo: repo, rbacRepo: rbacRepo, tx: tx, audit: audit, mail: mail}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}
	return []byte(secret)
}

func (s *userService) issueAccessToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":          user.ID.String(),
		"email":        user.Email,
		"full_name":    user.FullName,
		"is_superuser": user.IsSuperuser,
		"exp":          time.Now().Add(time.Hour).Unix(),
		"iat":          time.Now().Unix(),
	}
	if user.Role != nil {
		claims["role"] = user.Role.Name
	}
	if user.HotelID != nil {
		claims["hotel"] = user.HotelID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret())
	if err != nil {
		return "", errors.New("failed to generate token")
	}
	return signed, nil
}

func (s *userService) issueRefreshToken(ctx context.Context, user *model.User) (string, error) {
	rt := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString() + shortuuid.New(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.repo.CreateRefreshToken(ctx, rt); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rt.Token, nil
}

func mapUserResponse(user *model.User) *UserResponse {
	res := &UserResponse{
		ID:                  user.ID,
		Email:               user.Email,
		Phone:               user.Phone,
		FullName:            user.FullName,
		Slug:                user.Slug,
		IsSuperuser:         user.IsSuperuser,
		IsActive:            user.IsActive,
		IsEmailVerified:     user.IsEmailVerified,
		ForcePasswordChange: user.ForcePasswordChange,
		DateJoined:          user.CreatedAt,
	}
	if user.Role != nil {
		res.Role = user.Role.Name
	}
	if user.Hotel != nil {
		res.Hotel = user.Hotel.Name
	}
	return res
}

// Register creates a self-service customer account. The account stays
// inactive until the email address is verified.
func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if !emailRegex.MatchString(req.Email) {
		return nil, validationErr("email", "Invalid email format.")
	}
	if s.repo.EmailExists(ctx, req.Email) {
		return nil, validationErr("email", "A user with this email already exists.")
	}
	if s.repo.PhoneExists(ctx, req.Phone) {
		return nil, validationErr("phone", "A user with this phone number already exists.")
	}

	role, err := s.rbacRepo.FindRoleByName(ctx, "Customer")
	if err != nil {
		return nil, fmt.Errorf("customer role is not seeded: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Email:    req.Email,
		Phone:    req.Phone,
		FullName: req.FullName,
		Slug:     slugify.Unique(req.FullName, func(slug string) bool { return s.repo.SlugExists(ctx, slug) }),
		Password: string(hashed),
		RoleID:   &role.ID,
		IsActive: false,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	verifyURL := os.Getenv("FRONTEND_URL") + "/verify-email/" + user.Slug
	if err := s.mail.SendVerification(user.Email, user.FullName, verifyURL); err != nil {
		log.Printf("verification mail failed: %v", err)
	}

	user.Role = role
	return mapUserResponse(user), nil
}

func (s *userService) VerifyEmail(ctx context.Context, slug string) (*UserResponse, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.IsEmailVerified {
		return mapUserResponse(user), nil
	}
	user.IsEmailVerified = true
	user.IsActive = true
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}
	return mapUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest, ip, userAgent string) (*LoginResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, validationErr("email", "Invalid email or password.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, validationErr("email", "Invalid email or password.")
	}
	if !user.IsActive {
		return nil, validationErr("email", "This account is inactive.")
	}

	access, err := s.issueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issueRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	actor := ActorFromUser(user)
	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionLogin, ModelName: "User",
		ObjectID: user.Slug, Details: user.Email + " logged in",
		IPAddress: ip, UserAgent: userAgent,
	}); err != nil {
		return nil, err
	}

	return &LoginResponse{
		User:   *mapUserResponse(user),
		Tokens: TokenPair{AccessToken: access, RefreshToken: refresh},
	}, nil
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	rt, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, validationErr("refresh_token", "Invalid refresh token.")
	}
	if time.Now().After(rt.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, refreshToken)
		return nil, validationErr("refresh_token", "Refresh token has expired.")
	}

	user, err := s.repo.GetByID(ctx, rt.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// Rotate: the presented token is single use.
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	access, err := s.issueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issueRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) ChangePassword(ctx context.Context, actor Actor, req ChangePasswordRequest) error {
	user, err := s.repo.GetByID(ctx, actor.ID)
	if err != nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return validationErr("old_password", "Old password is incorrect.")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}
	user.Password = string(hashed)
	user.ForcePasswordChange = false
	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	// All existing sessions are invalidated on password change.
	return s.repo.DeleteRefreshTokensForUser(ctx, user.ID)
}

// CreateUser is the admin path: a temporary password is generated and
// emailed, the user must change it on first login, and an HR profile with a
// deletion code is created in the same transaction.
// resolveRole accepts a role slug or, as a fallback, a role name.
func (s *userService) resolveRole(ctx context.Context, slugOrName string) (*model.Role, error) {
	role, err := s.rbacRepo.FindRoleBySlug(ctx, slugOrName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role, err = s.rbacRepo.FindRoleByName(ctx, slugOrName)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationErr("role", "Role '%s' does not exist.", slugOrName)
		}
		return nil, err
	}
	return role, nil
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error) {
	if !actor.IsSuperuser && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, validationErr("email", "Invalid email format.")
	}
	if s.repo.EmailExists(ctx, req.Email) {
		return nil, validationErr("email", "A user with this email already exists.")
	}
	if s.repo.PhoneExists(ctx, req.Phone) {
		return nil, validationErr("phone", "A user with this phone number already exists.")
	}

	role, err := s.resolveRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}

	tempPassword := shortuuid.New()[:10]
	hashed, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Email:               req.Email,
		Phone:               req.Phone,
		FullName:            req.FullName,
		Password:            string(hashed),
		RoleID:              &role.ID,
		IsActive:            true,
		IsEmailVerified:     true,
		ForcePasswordChange: true,
		CreatedByID:         &actor.ID,
	}
	// Hotel admins always create users inside their own hotel.
	if !actor.IsSuperuser {
		user.HotelID = actor.HotelID
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		user.Slug = slugify.Unique(req.FullName, func(slug string) bool { return s.repo.SlugExists(txCtx, slug) })
		if err := s.repo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		profile := &model.Profile{
			UserID:      user.ID,
			FullName:    req.FullName,
			Phone:       req.Phone,
			Department:  req.Department,
			Designation: req.Designation,
			JoinDate:    req.JoinDate,
			Slug:        slugify.Unique(req.FullName+"-profile", func(slug string) bool { return s.repo.ProfileSlugExists(txCtx, slug) }),
			DeleteCode:  uid.New("D"),
		}
		if err := s.repo.CreateProfile(txCtx, profile); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		_, err := s.audit.Record(txCtx, AuditEntry{
			Actor: &actor, Action: model.ActionCreate, ModelName: "User",
			ObjectID: user.Slug, Details: "Created user " + user.Email, NewData: user,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.mail.SendCredentials(user.Email, user.FullName, tempPassword); err != nil {
		log.Printf("credentials mail failed: %v", err)
	}

	user.Role = role
	return mapUserResponse(user), nil
}

func (s *userService) GetUser(ctx context.Context, slug string) (*UserResponse, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return mapUserResponse(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return mapUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapUserResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor Actor, slug string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !actor.IsSuperuser && !actor.IsAdmin() && actor.ID != user.ID {
		return nil, ErrForbidden
	}

	old := *user
	if req.Phone != "" && req.Phone != user.Phone {
		if s.repo.PhoneExists(ctx, req.Phone) {
			return nil, validationErr("phone", "A user with this phone number already exists.")
		}
		user.Phone = req.Phone
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Role != "" {
		if !actor.IsSuperuser && !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		role, err := s.resolveRole(ctx, req.Role)
		if err != nil {
			return nil, err
		}
		user.RoleID = &role.ID
		user.Role = role
	}
	if req.IsActive != nil {
		if !actor.IsSuperuser && !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionUpdate, ModelName: "User",
		ObjectID: user.Slug, Details: "Updated user " + user.Email, OldData: old, NewData: user,
	}); err != nil {
		return nil, err
	}
	return mapUserResponse(user), nil
}

// DeleteUser requires the deletion code printed on the user's profile. The
// code acts as a second factor against accidental removals.
func (s *userService) DeleteUser(ctx context.Context, actor Actor, slug string, req DeleteUserRequest) error {
	if !actor.IsSuperuser && !actor.IsAdmin() {
		return ErrForbidden
	}
	user, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	profile, err := s.repo.GetProfileByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationErr("delete_code", "This user has no profile and cannot be deleted this way.")
		}
		return err
	}
	if profile.DeleteCode != req.DeleteCode {
		return validationErr("delete_code", "Invalid delete code.")
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteRefreshTokensForUser(txCtx, user.ID); err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, user.ID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		_, err := s.audit.Record(txCtx, AuditEntry{
			Actor: &actor, Action: model.ActionDelete, ModelName: "User",
			ObjectID: user.Slug, Details: "Deleted user " + user.Email, OldData: user,
		})
		return err
	})
}

// ActorFromUser builds the request actor from a loaded account row.
func ActorFromUser(user *model.User) Actor {
	actor := Actor{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		HotelID:     user.HotelID,
		IsSuperuser: user.IsSuperuser,
	}
	if user.Role != nil {
		actor.RoleName = user.Role.Name
	}
	return actor
}
