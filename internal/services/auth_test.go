package services

import (
	"context"
	"testing"
	"time"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/cache"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload, err := f.svc.Auth.Register(ctx, RegisterInput{
		Name: " Lê Minh ", Email: " Minh@Example.COM ", Password: "matkhau123", Phone: "090 123 4567",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, payload.Token)
	assert.Equal(t, "minh@example.com", payload.User.Email)
	assert.Equal(t, "Lê Minh", payload.User.Name)
	assert.Equal(t, models.RoleCustomer, payload.User.Role)
	assert.Equal(t, []string{"minh@example.com"}, f.mailer.welcomes)

	_, err = f.svc.Auth.Register(ctx, RegisterInput{Name: "Autre", Email: "minh@example.com", Password: "matkhau123"})
	assert.ErrorIs(t, err, errs.ErrEmailAlreadyUsed)

	_, err = f.svc.Auth.Register(ctx, RegisterInput{Name: "Court", Email: "court@example.com", Password: "12345"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	logged, err := f.svc.Auth.Login(ctx, "MINH@example.com", "matkhau123")
	require.NoError(t, err)
	assert.Equal(t, payload.User.ID, logged.User.ID)

	_, err = f.svc.Auth.Login(ctx, "minh@example.com", "mauvais")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	_, err = f.svc.Auth.Login(ctx, "inconnu@example.com", "matkhau123")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)

	viewer, err := f.svc.Auth.ViewerFromToken(ctx, logged.Token)
	require.NoError(t, err)
	assert.Equal(t, payload.User.ID, viewer.UserID)
	assert.Equal(t, models.RoleCustomer, viewer.Role)

	_, err = f.svc.Auth.ViewerFromToken(ctx, logged.Token+"x")
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	me, err := f.svc.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Nil(t, me)

	me, err = f.svc.Auth.Me(f.user(models.RoleManager))
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.Equal(t, models.RoleManager, me.Role)
}

func TestUpdateUserRoleIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	target := &models.User{ID: models.NewID(), Email: "staff@example.com", Role: models.RoleCustomer}
	require.NoError(t, f.store.Users.Create(context.Background(), target))

	_, err := f.svc.Auth.UpdateUserRole(f.user(models.RoleManager), target.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	admin := &models.User{ID: models.NewID(), Email: "boss@example.com", Role: models.RoleAdmin}
	require.NoError(t, f.store.Users.Create(context.Background(), admin))
	ctx := f.as(admin)

	updated, err := f.svc.Auth.UpdateUserRole(ctx, target.ID, models.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, updated.Role)

	_, err = f.svc.Auth.UpdateUserRole(ctx, target.ID, "superuser")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = f.svc.Auth.UpdateUserRole(ctx, admin.ID, models.RoleCustomer)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestDemotedStaffTokenLosesRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Auth.Register(ctx, RegisterInput{Name: "Quản lý", Email: "ql@example.com", Password: "matkhau123"})
	require.NoError(t, err)
	user, err := f.store.Users.GetByEmail(ctx, "ql@example.com")
	require.NoError(t, err)
	require.NoError(t, f.store.Users.UpdateRole(ctx, user.ID, models.RoleManager))

	logged, err := f.svc.Auth.Login(ctx, "ql@example.com", "matkhau123")
	require.NoError(t, err)
	viewer, err := f.svc.Auth.ViewerFromToken(ctx, logged.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, viewer.Role)

	// rétrogradé, le token encore valide ne donne plus accès au back-office
	require.NoError(t, f.store.Users.UpdateRole(ctx, user.ID, models.RoleCustomer))
	viewer, err = f.svc.Auth.ViewerFromToken(ctx, logged.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, viewer.Role)
	_, err = f.svc.Catalog.CreateCategory(auth.WithViewer(ctx, viewer), CategoryInput{Name: ptr("Tablette")})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	ghost, err := f.svc.Auth.payload(&models.User{ID: models.NewID(), Email: "fantome@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = f.svc.Auth.ViewerFromToken(ctx, ghost.Token)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestLoginBlockedAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Auth.Register(ctx, RegisterInput{Name: "Lan", Email: "lan@example.com", Password: "matkhau123"})
	require.NoError(t, err)

	for i := 0; i < LoginMaxAttempts; i++ {
		_, err = f.svc.Auth.Login(ctx, "lan@example.com", "mauvais")
		assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	}

	// bon mot de passe mais email bloqué
	_, err = f.svc.Auth.Login(ctx, " LAN@example.com", "matkhau123")
	assert.ErrorIs(t, err, errs.ErrRateLimited)

	// un autre email n'est pas concerné
	_, err = f.svc.Auth.Login(ctx, "autre@example.com", "matkhau123")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Auth.Register(ctx, RegisterInput{Name: "Huy", Email: "huy@example.com", Password: "matkhau123"})
	require.NoError(t, err)

	for i := 0; i < LoginMaxAttempts-1; i++ {
		_, err = f.svc.Auth.Login(ctx, "huy@example.com", "mauvais")
		assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	}
	_, err = f.svc.Auth.Login(ctx, "huy@example.com", "matkhau123")
	require.NoError(t, err)

	_, err = f.svc.Auth.Login(ctx, "huy@example.com", "mauvais")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestLoginCooldownInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t)
	f.svc.Auth.deps.Attempts = cache.NewRedisAttempts(client)
	ctx := context.Background()
	_, err := f.svc.Auth.Register(ctx, RegisterInput{Name: "Mai", Email: "mai@example.com", Password: "matkhau123"})
	require.NoError(t, err)

	for i := 0; i < LoginMaxAttempts; i++ {
		_, err = f.svc.Auth.Login(ctx, "mai@example.com", "mauvais")
		assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	}
	assert.True(t, mr.Exists("login_cooldown:mai@example.com"))
	assert.False(t, mr.Exists("login_attempts:mai@example.com"))

	_, err = f.svc.Auth.Login(ctx, "mai@example.com", "matkhau123")
	require.ErrorIs(t, err, errs.ErrRateLimited)
	assert.Contains(t, err.Error(), "15 minutes")

	mr.FastForward(LoginCooldown + time.Second)
	_, err = f.svc.Auth.Login(ctx, "mai@example.com", "matkhau123")
	require.NoError(t, err)
}

func TestRegisterLimitedPerIP(t *testing.T) {
	f := newFixture(t)
	ctx := auth.WithClientIP(context.Background(), "203.0.113.7")

	for i := 0; i < RegisterMaxAttempts; i++ {
		_, err := f.svc.Auth.Register(ctx, RegisterInput{
			Name: "Client", Email: models.NewID().String() + "@example.com", Password: "matkhau123",
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Auth.Register(ctx, RegisterInput{Name: "Client", Email: "encore@example.com", Password: "matkhau123"})
	assert.ErrorIs(t, err, errs.ErrRateLimited)

	other := auth.WithClientIP(context.Background(), "198.51.100.2")
	_, err = f.svc.Auth.Register(other, RegisterInput{Name: "Client", Email: "encore@example.com", Password: "matkhau123"})
	assert.NoError(t, err)
}
