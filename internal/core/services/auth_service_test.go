package services

import (
	"context"
	"testing"
	"time"

	"agrofresh-gh/internal/adapters/persistence/models"
	"agrofresh-gh/internal/config"
	"agrofresh-gh/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*models.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmailAndRole(ctx context.Context, email, role string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email && user.Role == role {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetAllByEmail(ctx context.Context, email string) ([]*models.User, error) {
	var out []*models.User
	for _, user := range r.users {
		if user.Email == email {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	for _, user := range r.users {
		if user.VerificationToken == token && token != "" {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var out []*models.User
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ExistsByEmailAndRole(ctx context.Context, email, role string) (bool, error) {
	_, err := r.GetByEmailAndRole(ctx, email, role)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	for _, user := range r.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

type fakeRefreshTokenRepo struct {
	tokens map[uint]*models.RefreshToken
	nextID uint
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: map[uint]*models.RefreshToken{}, nextID: 1}
}

func (r *fakeRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	token.ID = r.nextID
	r.nextID++
	r.tokens[token.ID] = token
	return nil
}

func (r *fakeRefreshTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash {
			return token, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRefreshTokenRepo) Revoke(ctx context.Context, id uint) error {
	if token, ok := r.tokens[id]; ok && token.RevokedAt == nil {
		now := time.Now()
		token.RevokedAt = &now
	}
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	token, err := r.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil
	}
	return r.Revoke(ctx, token.ID)
}

func (r *fakeRefreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID uint) error {
	for _, token := range r.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			now := time.Now()
			token.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(ctx context.Context) error {
	for id, token := range r.tokens {
		if token.IsExpired() {
			delete(r.tokens, id)
		}
	}
	return nil
}

func newAuthServiceForTest() (*AuthService, *fakeUserRepo, *fakeRefreshTokenRepo) {
	userRepo := newFakeUserRepo()
	tokenRepo := newFakeRefreshTokenRepo()
	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:           "access-secret",
			RefreshSecret:    "refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
	return NewAuthService(userRepo, tokenRepo, cfg), userRepo, tokenRepo
}

func TestRegisterNormalizesVendorRole(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()

	result, err := svc.Register(context.Background(), &RegisterInput{
		Name:     "Platform Op",
		Email:    "ops@agrofresh-gh.com",
		Password: "super-secret-1",
		Role:     "vendor",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, result.User.Role)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()

	_, err := svc.Register(context.Background(), &RegisterInput{
		Name:     "Ama",
		Email:    "ama@example.com",
		Password: "super-secret-1",
		Role:     "wholesaler",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRegisterSameEmailDifferentRoles(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()

	_, err := svc.Register(context.Background(), &RegisterInput{
		Name: "Ama", Email: "ama@example.com", Password: "super-secret-1", Role: "farmer",
	})
	require.NoError(t, err)

	// Same email under a different role is a separate account
	_, err = svc.Register(context.Background(), &RegisterInput{
		Name: "Ama", Email: "ama@example.com", Password: "other-secret-2", Role: "buyer",
	})
	require.NoError(t, err)

	// But the same (email, role) pair conflicts
	_, err = svc.Register(context.Background(), &RegisterInput{
		Name: "Ama", Email: "ama@example.com", Password: "super-secret-1", Role: "farmer",
	})
	assert.ErrorIs(t, err, ErrEmailRoleTaken)
}

func TestLoginWithExplicitRole(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()

	_, err := svc.Register(context.Background(), &RegisterInput{
		Name: "Ama", Email: "ama@example.com", Password: "farmer-pass-1", Role: "farmer",
	})
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), &LoginInput{
		Email: "ama@example.com", Password: "farmer-pass-1", Role: "farmer",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleFarmer, result.User.Role)
	assert.NotNil(t, result.User.LastLogin)

	_, err = svc.Login(context.Background(), &LoginInput{
		Email: "ama@example.com", Password: "wrong", Role: "farmer",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWithoutRoleTriesAllAccounts(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()

	_, err := svc.Register(context.Background(), &RegisterInput{
		Name: "Ama", Email: "ama@example.com", Password: "farmer-pass-1", Role: "farmer",
	})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), &RegisterInput{
		Name: "Ama", Email: "ama@example.com", Password: "buyer-pass-22", Role: "buyer",
	})
	require.NoError(t, err)

	// No role given: the password decides which account logs in
	result, err := svc.Login(context.Background(), &LoginInput{
		Email: "ama@example.com", Password: "buyer-pass-22",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleBuyer, result.User.Role)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, userRepo, _ := newAuthServiceForTest()

	hashed, err := password.Hash("secret-pass-1")
	require.NoError(t, err)
	require.NoError(t, userRepo.Create(context.Background(), &models.User{
		Name: "Kofi", Email: "kofi@example.com", Password: hashed,
		Role: models.RoleBuyer, Status: models.UserStatusInactive,
	}))

	_, err = svc.Login(context.Background(), &LoginInput{
		Email: "kofi@example.com", Password: "secret-pass-1", Role: "buyer",
	})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestRefreshTokenRotation(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()

	registered, err := svc.Register(context.Background(), &RegisterInput{
		Name: "Ama", Email: "ama@example.com", Password: "super-secret-1", Role: "farmer",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	// The old token was rotated out and can no longer be used
	_, err = svc.RefreshToken(context.Background(), registered.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()

	registered, err := svc.Register(context.Background(), &RegisterInput{
		Name: "Ama", Email: "ama@example.com", Password: "super-secret-1", Role: "farmer",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), registered.RefreshToken))

	_, err = svc.RefreshToken(context.Background(), registered.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
