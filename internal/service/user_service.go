package service

//go:generate mockgen -source=user_service.go -destination=mocks/mock_user_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/psds-microservice/inquiry-service/internal/auth"
	"github.com/psds-microservice/inquiry-service/internal/errs"
	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/psds-microservice/inquiry-service/internal/workflow"
	"gorm.io/gorm"
)

type UserServicer interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, userID, password string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*model.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error)
}

type RegisterInput struct {
	UserID   string
	Name     string
	Role     string
	Email    *string
	Password string
}

// ProfileInput carries optional replacements; nil leaves a field unchanged.
type ProfileInput struct {
	Name     *string
	Password *string
}

// SeedUser is one of the sample operator accounts created by `seed`.
type SeedUser struct {
	UserID string
	Name   string
	Role   model.Role
}

var SeedUsers = []SeedUser{
	{UserID: "prod001", Name: "Ahmad Produksi", Role: model.RoleProduksi},
	{UserID: "qc001", Name: "Sari QC", Role: model.RoleQC},
	{UserID: "fin001", Name: "Lita Finance", Role: model.RoleFinance},
	{UserID: "help001", Name: "Lisa Helpdesk", Role: model.RoleHelpdesk},
	{UserID: "admin001", Name: "Admin", Role: model.RoleAdmin},
}

type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	userID := strings.TrimSpace(in.UserID)
	name := strings.TrimSpace(in.Name)
	if userID == "" {
		return nil, workflow.Invalid("user_id", "user_id is required")
	}
	if name == "" {
		return nil, workflow.Invalid("name", "name is required")
	}
	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, workflow.Invalid("role", err.Error())
	}
	hash, err := auth.HashPassword(in.Password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return nil, workflow.Invalid("password", err.Error())
	}
	if err != nil {
		return nil, err
	}
	var email *string
	if in.Email != nil {
		if e := strings.ToLower(strings.TrimSpace(*in.Email)); e != "" {
			email = &e
		}
	}

	var n int64
	q := s.db.WithContext(ctx).Model(&model.User{}).Where("user_id = ?", userID)
	if email != nil {
		q = q.Or("email = ?", *email)
	}
	if err := q.Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, errs.ErrUserExists
	}

	u := model.User{
		UserID:       userID,
		Name:         name,
		Role:         role,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// Login checks credentials and records the login time. Unknown user and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, userID, password string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, errs.ErrUserInactive
	}
	now := s.now()
	if err := s.db.WithContext(ctx).Model(&u).UpdateColumn("last_login", now).Error; err != nil {
		return nil, err
	}
	u.LastLogin = &now
	return &u, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*model.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changes := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, workflow.Invalid("name", "name cannot be empty")
		}
		changes["name"] = name
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, workflow.Invalid("password", err.Error())
		}
		if err != nil {
			return nil, err
		}
		changes["password_hash"] = hash
	}
	if len(changes) == 0 {
		return u, nil
	}
	if err := s.db.WithContext(ctx).Model(u).Updates(changes).Error; err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("is_active", active).Error; err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Seed creates the sample operators that do not exist yet and returns the
// ones it created.
func (s *UserService) Seed(ctx context.Context, password string) ([]model.User, error) {
	var created []model.User
	for _, su := range SeedUsers {
		u, err := s.Register(ctx, RegisterInput{
			UserID:   su.UserID,
			Name:     su.Name,
			Role:     string(su.Role),
			Password: password,
		})
		if errors.Is(err, errs.ErrUserExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", su.UserID, err)
		}
		created = append(created, *u)
	}
	return created, nil
}
