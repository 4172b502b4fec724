package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"creatorhub/internal/models"
	"creatorhub/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		expectedUser *models.User
		notFound     bool
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).
					AddRow(1, "testuser", "test@example.com")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Username: "testuser", Email: "test@example.com"},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			notFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)
			if tt.notFound {
				assert.True(t, IsNotFound(err))
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedUser.Username, user.Username)
				assert.Equal(t, tt.expectedUser.Email, user.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByID_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(boom)

	_, err := repo.GetByID(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsNotFound(err))
}

func TestUserRepository_Integration(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "Alice", Email: "alice@example.com", Password: "h", IsActive: true}
	require.NoError(t, repo.Create(ctx, alice))
	createUser(t, db, "alfred")
	createUser(t, db, "bob")

	dup := &models.User{Username: "Alice", Email: "other@example.com", Password: "h"}
	err := repo.Create(ctx, dup)
	assert.True(t, IsDuplicate(err))

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byEmail, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, IsNotFound(err))

	found, err := repo.FindByUsernames(ctx, []string{"BOB", "ghost"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bob", found[0].Username)

	suggestions, err := repo.MentionSuggestions(ctx, "al", alice.ID, 5)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "alfred", suggestions[0].Username)

	require.NoError(t, repo.UpdateFields(ctx, alice.ID, map[string]any{"bio": "Painter of skies"}))
	hits, err := repo.Search(ctx, "SKIES", 0, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, alice.ID, hits[0].ID)

	err = repo.UpdateFields(ctx, 9999, map[string]any{"bio": "x"})
	assert.True(t, IsNotFound(err))
}
