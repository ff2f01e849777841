package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/redeemly/redeemly-backend/pkg/config"
	"github.com/redeemly/redeemly-backend/pkg/db"
	"github.com/redeemly/redeemly-backend/pkg/db/models"
	"github.com/redeemly/redeemly-backend/pkg/enums"
	pkgerrors "github.com/redeemly/redeemly-backend/pkg/errors"
	"github.com/redeemly/redeemly-backend/pkg/pagination"
	"github.com/redeemly/redeemly-backend/pkg/security"
)

// Service defines the user identity operations exposed to controllers.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserDTO, error)
	Get(ctx context.Context, input GetInput) (*UserDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Update(ctx context.Context, input UpdateInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, input ChangePasswordInput) error
	SetActive(ctx context.Context, input SetActiveInput) (*UserDTO, error)
	Delete(ctx context.Context, input DeleteInput) error
}

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, query ListQuery) ([]models.User, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        userRepository
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo           userRepository
	PasswordConfig config.PasswordConfig
}

// NewService constructs a users service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	return &service{
		repo:        params.Repo,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// RegisterInput captures a public self-registration request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
}

// GetInput identifies the requested user plus the acting caller.
type GetInput struct {
	UserID      uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

// ListInput configures user listing filters and pagination.
type ListInput struct {
	ActorRole enums.UserRole
	Role      *enums.UserRole
	Search    string
	Limit     int
	Cursor    string
}

// ListResult returns one page of users plus the next cursor.
type ListResult struct {
	Items  []UserDTO `json:"items"`
	Cursor string    `json:"cursor"`
}

// UpdateInput carries a profile update for the target user.
type UpdateInput struct {
	UserID      uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
	Fields      UpdateUserDTO
}

// ChangePasswordInput carries a credential rotation request.
type ChangePasswordInput struct {
	UserID          uuid.UUID
	ActorUserID     uuid.UUID
	ActorRole       enums.UserRole
	CurrentPassword string
	NewPassword     string
}

// SetActiveInput activates or deactivates the target account.
type SetActiveInput struct {
	UserID      uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
	Active      bool
}

// DeleteInput identifies the account an admin wants removed.
type DeleteInput struct {
	UserID      uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        input.Phone,
		Role:         enums.UserRoleUser,
		Status:       enums.UserStatusActive,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a user with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return FromModel(user), nil
}

func (s *service) Get(ctx context.Context, input GetInput) (*UserDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.findUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	// Non-admin callers only see themselves and active accounts.
	if input.ActorRole != enums.UserRoleAdmin && input.ActorUserID != user.ID && !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	limit := pagination.NormalizeLimit(input.Limit)

	query := ListQuery{
		OnlyActive: input.ActorRole != enums.UserRoleAdmin,
		Role:       input.Role,
		Search:     input.Search,
		Limit:      pagination.LimitWithBuffer(input.Limit),
	}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	nextCursor := ""
	if len(rows) > limit {
		next := rows[limit]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
		rows = rows[:limit]
	}

	items := make([]UserDTO, len(rows))
	for i := range rows {
		items[i] = *FromModel(&rows[i])
	}

	return &ListResult{Items: items, Cursor: nextCursor}, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*UserDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.ActorRole != enums.UserRoleAdmin && input.ActorUserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot update another user's profile")
	}

	if _, err := s.findUser(ctx, input.UserID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Fields.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*input.Fields.FirstName)
	}
	if input.Fields.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*input.Fields.LastName)
	}
	if input.Fields.Phone != nil {
		fields["phone"] = *input.Fields.Phone
	}
	if input.Fields.Role != nil {
		if input.ActorRole != enums.UserRoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may change roles")
		}
		if !input.Fields.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		fields["role"] = *input.Fields.Role
	}
	if input.Fields.Status != nil {
		if input.ActorRole != enums.UserRoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may change account status")
		}
		if !input.Fields.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		fields["status"] = *input.Fields.Status
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, input.UserID, fields); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
		}
	}

	user, err := s.findUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.NewPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	selfChange := input.ActorUserID == input.UserID
	if !selfChange && input.ActorRole != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot change another user's password")
	}

	user, err := s.findUser(ctx, input.UserID)
	if err != nil {
		return err
	}

	// Admins resetting someone else's credential skip the current-password check.
	if selfChange {
		ok, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect")
		}
	}

	hash, err := security.HashPassword(input.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePassword(ctx, input.UserID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *service) SetActive(ctx context.Context, input SetActiveInput) (*UserDTO, error) {
	if input.ActorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins may change account activation")
	}
	if input.UserID == input.ActorUserID && !input.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot deactivate your own account")
	}

	if _, err := s.findUser(ctx, input.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, input.UserID, input.Active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set active")
	}

	user, err := s.findUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	if input.ActorRole != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins may delete users")
	}
	if input.UserID == input.ActorUserID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot delete your own account")
	}

	if _, err := s.findUser(ctx, input.UserID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, input.UserID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func (s *service) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
