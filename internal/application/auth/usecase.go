package auth

import (
	"context"
	"strings"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/climatecoin/carbon-api/internal/application/dto"
	"github.com/climatecoin/carbon-api/internal/domain"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
	"github.com/climatecoin/carbon-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: registro y login.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg}
}

// RegisterUser crea un desarrollador: valida la wallet Algorand, hashea password con bcrypt y persiste.
// Devuelve ErrEmailAlreadyExists si el email ya existe.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	if _, err := types.DecodeAddress(in.PublicAddress); err != nil {
		return nil, domain.ErrInvalidAddress
	}
	return uc.create(ctx, in.Email, in.Password, in.Name, entity.RoleDeveloper, in.PublicAddress)
}

// CreateAdmin crea un administrador (sin wallet). Lo usa el comando de seed.
func (uc *AuthUseCase) CreateAdmin(ctx context.Context, email, password, name string) (*dto.UserResponse, error) {
	return uc.create(ctx, email, password, name, entity.RoleAdmin, "")
}

func (uc *AuthUseCase) create(ctx context.Context, email, password, name, role, address string) (*dto.UserResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := uc.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:            uuid.New().String(),
		Email:         email,
		PasswordHash:  string(hash),
		Name:          name,
		Role:          role,
		PublicAddress: address,
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != "active" {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Email, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

// Me devuelve el usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return toUserResponse(user), nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		PublicAddress: u.PublicAddress,
		Status:        u.Status,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
