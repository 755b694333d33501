package controllers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/modernhardware/api/app/services"
	"github.com/modernhardware/api/pkg/bind"
	"github.com/modernhardware/api/pkg/middleware"
	"github.com/modernhardware/api/pkg/response"
)

// AuthController serves registration, login and account endpoints.
type AuthController struct {
	service *services.AuthService
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{service: services.NewAuthService(db)}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=255"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone"    validate:"nullable,min=9,max=15"`
	Address  string `json:"address"  validate:"nullable,max=500"`
}

// Register creates a customer account.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	user, token, err := c.service.Register(services.RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Phone:    body.Phone,
		Address:  body.Address,
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	response.Created(w, map[string]interface{}{"user": user, "token": token})
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges credentials for a token.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	user, token, err := c.service.Login(body.Email, body.Password)
	if err != nil {
		fail(w, r, err)
		return
	}

	response.Success(w, map[string]interface{}{"user": user, "token": token})
}

// Profile returns the authenticated user's account.
func (c *AuthController) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	user, err := c.service.Profile(userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, user)
}

type updateProfileRequest struct {
	Name     string `json:"name"     validate:"nullable,min=2,max=255"`
	Phone    string `json:"phone"    validate:"nullable,min=9,max=15"`
	Address  string `json:"address"  validate:"nullable,max=500"`
	Password string `json:"password" validate:"nullable,min=8"`
}

// UpdateProfile applies partial changes to the authenticated account.
func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var body updateProfileRequest
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.service.UpdateProfile(userID, services.UpdateProfileInput{
		Name:     body.Name,
		Phone:    body.Phone,
		Address:  body.Address,
		Password: body.Password,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, user)
}

// Users lists accounts for the admin panel.
func (c *AuthController) Users(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	users, pagination, err := c.service.Users(page, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, map[string]interface{}{"users": users, "pagination": pagination})
}
