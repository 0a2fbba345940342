package services

import (
	"log"
	"net/http"

	"github.com/bookswapng/bookswap/config"
	"github.com/bookswapng/bookswap/db"
	apiError "github.com/bookswapng/bookswap/errors"
	"github.com/bookswapng/bookswap/models"
	"github.com/bookswapng/bookswap/services/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the opaque identity provider: it yields stable user ids and
// display attributes. Nothing in the core reads identity from ambient state;
// the resolved actor id is passed into every operation explicitly.
type AuthService interface {
	SignupUser(user *models.User) (*models.User, error)
	LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error)
	RegisterDeviceToken(userID string, token string) error
}

type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
}

func NewAuthService(authRepo db.AuthRepository, conf *config.Config) AuthService {
	return &authService{
		Config:   conf,
		authRepo: authRepo,
	}
}

func (s *authService) SignupUser(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, apiError.NewValidationError("user is nil")
	}
	if err := user.Normalize(); err != nil {
		log.Printf("SignupUser error normalizing input: %v", err)
		return nil, apiError.ErrInternalServer
	}
	if user.Email == "" {
		return nil, apiError.NewValidationError("email is empty")
	}
	if err := models.ValidatePassword(user.Password); err != nil {
		return nil, err
	}
	if err := s.authRepo.IsEmailExist(user.Email); err != nil {
		log.Printf("SignupUser error: %v", err)
		return nil, apiError.New("email already in use", http.StatusConflict)
	}

	if err := user.HashPassword(); err != nil {
		log.Printf("SignupUser error hashing password: %v", err)
		return nil, apiError.ErrInternalServer
	}
	user.ID = uuid.NewString()

	created, err := s.authRepo.CreateUser(user)
	if err != nil {
		log.Printf("SignupUser error: %v", err)
		return nil, apiError.ErrInternalServer
	}
	return created, nil
}

func (s *authService) LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error) {
	user, err := s.authRepo.FindUserByEmail(loginRequest.Email)
	if err != nil {
		return nil, apiError.New("invalid email or password", http.StatusUnauthorized)
	}
	if !user.IsActive {
		return nil, apiError.InActiveUserError
	}
	if err := user.VerifyPassword(loginRequest.Password); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return nil, apiError.New("invalid email or password", http.StatusUnauthorized)
		}
		return nil, apiError.ErrInternalServer
	}

	accessToken, err := jwt.GenerateToken(user.ID, s.Config.JWTSecret)
	if err != nil {
		log.Printf("LoginUser token error: %v", err)
		return nil, apiError.ErrInternalServer
	}
	return &models.LoginResponse{
		AccessToken: accessToken,
		User:        *user,
	}, nil
}

func (s *authService) RegisterDeviceToken(userID string, token string) error {
	return s.authRepo.UpdateDeviceToken(userID, token)
}
