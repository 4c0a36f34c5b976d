package services

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/cardledger/backend/internal/models"
)

func TestHashPassword(t *testing.T) {
	t.Run("verifies its own output", func(t *testing.T) {
		hashed, err := HashPassword("correct horse battery staple")
		assert.NoError(t, err)
		assert.Contains(t, hashed, "$")
		assert.True(t, VerifyPassword("correct horse battery staple", hashed))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		hashed, err := HashPassword("password1")
		assert.NoError(t, err)
		assert.False(t, VerifyPassword("password2", hashed))
	})

	t.Run("salts differ between calls", func(t *testing.T) {
		a, err := HashPassword("same password")
		assert.NoError(t, err)
		b, err := HashPassword("same password")
		assert.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("malformed stored hash fails closed", func(t *testing.T) {
		assert.False(t, VerifyPassword("anything", "no-separator"))
		assert.False(t, VerifyPassword("anything", "!!!$"+strings.Repeat("A", 8)))
	})
}

func TestUserService_Register(t *testing.T) {
	t.Run("creates an enabled unlocked account", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewUserService(db)

		mock.ExpectQuery("INSERT INTO users").
			WithArgs("ivan", sqlmock.AnyArg(), models.RoleUser).
			WillReturnRows(userRow(3, "ivan", "salted$hash", models.RoleUser))

		user, err := service.Register(context.Background(), " ivan ", "password123", models.RoleUser)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), user.ID)
		assert.True(t, user.AccountEnabled)
		assert.False(t, user.AccountLocked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewUserService(db)

		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505"})

		_, err = service.Register(context.Background(), "ivan", "password123", models.RoleUser)
		assert.ErrorIs(t, err, models.ErrUserDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserService_FindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewUserService(db)

	t.Run("existing user", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
			WithArgs("ivan").
			WillReturnRows(userRow(3, "ivan", "salted$hash", models.RoleUser))

		user, err := service.FindByUsername(context.Background(), "ivan")
		assert.NoError(t, err)
		assert.Equal(t, models.RoleUser, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(userCols))

		_, err := service.FindByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserService_ExistsByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewUserService(db)

	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM users WHERE username = \\$1\\)").
		WithArgs("ivan").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := service.ExistsByUsername(context.Background(), "ivan")
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
