package services

import (
	"gorm.io/gorm"

	"github.com/modernhardware/api/app/models"
	"github.com/modernhardware/api/app/repositories"
	"github.com/modernhardware/api/pkg/auth"
	"github.com/modernhardware/api/pkg/orm"
)

// AuthService covers registration, login and profile management.
type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{users: repositories.NewUserRepository(db)}
}

// RegisterInput is the validated payload for Register.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// Register creates a customer account and returns it with a session token.
func (s *AuthService) Register(in RegisterInput) (models.User, string, error) {
	if _, err := s.users.FindByEmail(in.Email); err == nil {
		return models.User{}, "", ErrEmailTaken
	} else if !orm.IsNotFound(err) {
		return models.User{}, "", err
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, "", err
	}

	user := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hashed,
		Phone:    in.Phone,
		Address:  in.Address,
		Role:     models.RoleCustomer,
	}
	if err := s.users.Create(&user); err != nil {
		return models.User{}, "", err
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Login verifies the credentials and returns the user with a fresh token.
func (s *AuthService) Login(email, password string) (models.User, string, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if orm.IsNotFound(err) {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", err
	}

	if !auth.CheckPassword(user.Password, password) {
		return models.User{}, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Profile returns the account for the authenticated user.
func (s *AuthService) Profile(userID uint) (models.User, error) {
	user, err := s.users.FindByID(userID)
	if orm.IsNotFound(err) {
		return models.User{}, ErrNotFound
	}
	return user, err
}

// UpdateProfileInput carries optional profile changes. Empty fields are
// left untouched.
type UpdateProfileInput struct {
	Name     string
	Phone    string
	Address  string
	Password string
}

// UpdateProfile applies the non-empty fields to the user's account.
func (s *AuthService) UpdateProfile(userID uint, in UpdateProfileInput) (models.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if orm.IsNotFound(err) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if in.Address != "" {
		user.Address = in.Address
	}
	if in.Password != "" {
		hashed, err := auth.HashPassword(in.Password)
		if err != nil {
			return models.User{}, err
		}
		user.Password = hashed
	}

	if err := s.users.Update(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Users returns one page of accounts, for the admin listing.
func (s *AuthService) Users(page, limit int) ([]models.User, orm.Pagination, error) {
	return s.users.All(page, limit)
}
