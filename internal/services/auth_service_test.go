package services

import (
	"testing"

	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/reliefhub/reliefhub/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(
		repository.NewUserRepository(db),
		repository.NewOrganizationRepository(db),
	)
}

func TestSignupAndLogin(t *testing.T) {
	db := setupTestDB(t)
	org := createTestOrg(t, db, "Red Umbrella")
	svc := newAuthService(db)

	user, err := svc.Signup(SignupInput{
		Username:       "maria",
		Email:          "maria@example.org",
		Password:       "supersecret",
		OrganizationID: org.ID,
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.NotEqual(t, "supersecret", user.PasswordHash)

	// Signup enrolls the user in the organization
	var member models.OrganizationMember
	require.NoError(t, db.Where("organization_id = ? AND user_id = ?", org.ID, user.ID).
		First(&member).Error)

	logged, err := svc.Login(LoginInput{Username: "maria", Password: "supersecret"})
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)

	_, err = svc.Login(LoginInput{Username: "maria", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(LoginInput{Username: "nobody", Password: "supersecret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignupValidation(t *testing.T) {
	db := setupTestDB(t)
	org := createTestOrg(t, db, "Red Umbrella")
	svc := newAuthService(db)

	_, err := svc.Signup(SignupInput{Username: "  ", Password: "supersecret", OrganizationID: org.ID})
	require.ErrorIs(t, err, ErrUsernameRequired)

	_, err = svc.Signup(SignupInput{Username: "maria", Password: "short", OrganizationID: org.ID})
	require.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Signup(SignupInput{Username: "maria", Password: "supersecret", OrganizationID: org.ID + 99})
	require.ErrorIs(t, err, ErrOrganizationNotFound)

	_, err = svc.Signup(SignupInput{
		Username:       "maria",
		Email:          "maria@example.org",
		Password:       "supersecret",
		OrganizationID: org.ID,
	})
	require.NoError(t, err)

	_, err = svc.Signup(SignupInput{
		Username:       "maria",
		Email:          "other@example.org",
		Password:       "supersecret",
		OrganizationID: org.ID,
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestGetUser(t *testing.T) {
	db := setupTestDB(t)
	org := createTestOrg(t, db, "Red Umbrella")
	svc := newAuthService(db)

	user, err := svc.Signup(SignupInput{
		Username:       "maria",
		Email:          "maria@example.org",
		Password:       "supersecret",
		OrganizationID: org.ID,
	})
	require.NoError(t, err)

	found, err := svc.GetUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, "maria", found.Username)

	_, err = svc.GetUser(user.ID + 99)
	require.ErrorIs(t, err, ErrUserNotFound)
}
