package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/suteetoe/tenantguard/internal/model"
	"github.com/suteetoe/tenantguard/internal/tenantscope"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		TranslateError:         true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.Use(&tenantscope.Plugin{}))
	return db, mock
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

func TestFindByEmailPreloadsTenant(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
		WithArgs("ana@acme.test", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "password", "role", "tenant_id"}).
			AddRow("u1", "ana@acme.test", "Ana", "$2a$12$hash", "OWNER", "t1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tenants" WHERE "tenants"."id" = $1`)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "subdomain", "plan", "deleted_at"}).
			AddRow("t1", "Acme", "acme", "PRO", nil))

	user, err := repo.FindByEmail(context.Background(), "ana@acme.test")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, model.RoleOwner, user.Role)
	require.NotNil(t, user.Password)
	require.NotNil(t, user.Tenant)
	assert.Equal(t, "acme", user.Tenant.Subdomain)
	assert.True(t, user.Tenant.Active())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByEmail(context.Background(), "nobody@acme.test")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "users"`)).WillReturnError(uniqueViolation())

	err := repo.Create(context.Background(), &model.User{Email: "ana@acme.test", Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTeamRequiresTenant(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewUserRepository(db)

	_, err := repo.ListTeam(context.Background())
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestListTeamIsScoped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."tenant_id" = $1 ORDER BY created_at`)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "tenant_id"}).
			AddRow("u1", "ana@acme.test", "t1").
			AddRow("u2", "bo@acme.test", "t1"))

	users, err := repo.ListTeam(tenantscope.WithTenant(context.Background(), "t1"))
	require.NoError(t, err)
	assert.Len(t, users, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileOutsideTenantMatchesNothing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET`) + `.*` +
		regexp.QuoteMeta(`WHERE id = `) + `.*` + regexp.QuoteMeta(`AND "users"."tenant_id" = `)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateProfile(tenantscope.WithTenant(context.Background(), "t2"), "u1", "Ana", "")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkAccountCreatesWhenMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE "accounts"."provider" = $1 AND "accounts"."provider_account_id" = $2`)).
		WithArgs("google", "g-123", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "accounts"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	account := &model.Account{UserID: "u1", Provider: "google", ProviderAccountID: "g-123"}
	require.NoError(t, repo.LinkAccount(context.Background(), account))
	assert.NotEmpty(t, account.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubdomainExists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTenantRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "tenants" WHERE subdomain = $1`)).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	taken, err := repo.SubdomainExists(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTenantKeepsDeletedAt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTenantRepository(db)

	deleted := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tenants" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "subdomain", "deleted_at"}).AddRow("t1", "acme", deleted))

	tenant, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, tenant.Active())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithOwnerRunsInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTenantRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tenants"`)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "users"`)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tenant := &model.Tenant{Name: "Acme", Subdomain: "acme", Plan: model.PlanFree}
	owner := &model.User{Email: "ana@acme.test", Name: "Ana"}
	require.NoError(t, repo.CreateWithOwner(context.Background(), tenant, owner))

	require.NotNil(t, owner.TenantID)
	assert.Equal(t, tenant.ID, *owner.TenantID)
	assert.Equal(t, model.RoleOwner, owner.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithOwnerRollsBackOnTakenSubdomain(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTenantRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tenants"`)).WillReturnError(uniqueViolation())
	mock.ExpectRollback()

	owner := &model.User{Email: "ana@acme.test"}
	err := repo.CreateWithOwner(context.Background(), &model.Tenant{Subdomain: "acme"}, owner)
	assert.ErrorIs(t, err, ErrSubdomainTaken)
	assert.Nil(t, owner.TenantID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionForUserPromotesOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTenantRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tenants"`)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user := &model.User{Base: model.Base{ID: "u1"}, Email: "ana@acme.test", Role: model.RoleUser}
	tenant := &model.Tenant{Name: "Ana", Subdomain: "ana", Plan: model.PlanFree}
	require.NoError(t, repo.ProvisionForUser(context.Background(), tenant, user))

	assert.Equal(t, model.RoleOwner, user.Role)
	require.NotNil(t, user.TenantID)
	assert.Equal(t, tenant.ID, *user.TenantID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionForUserRollsBackWhenUserAlreadyBound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTenantRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tenants"`)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	user := &model.User{Base: model.Base{ID: "u1"}, Role: model.RoleUser}
	err := repo.ProvisionForUser(context.Background(), &model.Tenant{Subdomain: "ana"}, user)
	require.Error(t, err)
	assert.Nil(t, user.TenantID)
	assert.Equal(t, model.RoleUser, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}
