package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernhardware/api/app/models"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	user, token, err := svc.Register(RegisterInput{
		Name:     "Wanjiku",
		Email:    "wanjiku@example.com",
		Password: "hunter2secret",
		Phone:    "0712345678",
		Address:  "Kimathi Street, Nyeri",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, "Kimathi Street, Nyeri", user.Address)
	assert.NotEqual(t, "hunter2secret", user.Password, "password must be stored hashed")

	got, token2, err := svc.Login("wanjiku@example.com", "hunter2secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token2)
	assert.Equal(t, user.ID, got.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	_, _, err := svc.Register(RegisterInput{
		Name: "A", Email: "a@example.com", Password: "correct-pass",
	})
	require.NoError(t, err)

	_, _, err = svc.Login("a@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email must look like a bad password")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	_, _, err := svc.Register(RegisterInput{Name: "A", Email: "dup@example.com", Password: "password1"})
	require.NoError(t, err)

	_, _, err = svc.Register(RegisterInput{Name: "B", Email: "dup@example.com", Password: "password2"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	user, _, err := svc.Register(RegisterInput{Name: "Old", Email: "p@example.com", Password: "first-pass"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(user.ID, UpdateProfileInput{
		Name: "New", Address: "Luthuli Avenue, Nairobi", Password: "second-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "Luthuli Avenue, Nairobi", updated.Address)
	assert.Equal(t, "p@example.com", updated.Email, "email is immutable")

	_, _, err = svc.Login("p@example.com", "second-pass")
	assert.NoError(t, err)
	_, _, err = svc.Login("p@example.com", "first-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
