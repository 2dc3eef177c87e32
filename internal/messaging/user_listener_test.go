package messaging

import (
	"context"
	"errors"
	"testing"

	"herald/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepository struct {
	saveFn func(ctx context.Context, user *models.User) error
}

func (s *stubUserRepository) Save(ctx context.Context, user *models.User) error {
	return s.saveFn(ctx, user)
}

func (s *stubUserRepository) FetchUser(context.Context, uuid.UUID) (*models.User, error) {
	return nil, nil
}

func TestUserEventsListener_ProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the registered user", func(t *testing.T) {
		var saved *models.User
		listener := &UserEventsListener{
			users: &stubUserRepository{
				saveFn: func(_ context.Context, u *models.User) error {
					saved = u
					return nil
				},
			},
		}

		id := uuid.New()
		err := listener.ProcessMessage(ctx, []byte(`{"id":"`+id.String()+`","nickname":"annie","name":"Ann","surname":"Ouncer"}`))
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, id, saved.ID)
		assert.Equal(t, "annie", saved.Nickname)
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		listener := &UserEventsListener{
			users: &stubUserRepository{
				saveFn: func(_ context.Context, _ *models.User) error {
					t.Fatal("save must not be called for a malformed event")
					return nil
				},
			},
		}

		err := listener.ProcessMessage(ctx, []byte("not json"))
		assert.Error(t, err)
	})

	t.Run("save failure surfaces", func(t *testing.T) {
		saveErr := errors.New("projection store down")
		listener := &UserEventsListener{
			users: &stubUserRepository{
				saveFn: func(_ context.Context, _ *models.User) error {
					return saveErr
				},
			},
		}

		err := listener.ProcessMessage(ctx, []byte(`{"id":"`+uuid.NewString()+`","nickname":"annie"}`))
		assert.ErrorIs(t, err, saveErr)
	})
}
