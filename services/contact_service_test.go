package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyeyeon57/portfolio-backoffice/errs"
	"github.com/hyeyeon57/portfolio-backoffice/models"
)

type notifierFunc func(ctx context.Context, c models.Contact) error

func (f notifierFunc) NotifyContact(ctx context.Context, c models.Contact) error { return f(ctx, c) }

func TestContactCreateDefaultsAndNotifies(t *testing.T) {
	var notified []models.Contact
	svc := NewContactService(newTestStore(t), notifierFunc(func(_ context.Context, c models.Contact) error {
		notified = append(notified, c)
		return nil
	}))

	c, err := svc.Create(context.Background(), ContactInput{Name: " Kim ", Email: "kim@example.com", Message: "hello"})
	require.NoError(t, err)
	require.False(t, c.Read)
	require.Equal(t, "Kim", c.Name)
	svc.Wait()
	require.Len(t, notified, 1)
	require.Equal(t, c.ID, notified[0].ID)
}

func TestContactNotificationFailureIsNotFatal(t *testing.T) {
	svc := NewContactService(newTestStore(t), notifierFunc(func(context.Context, models.Contact) error {
		return errors.New("smtp down")
	}))

	_, err := svc.Create(context.Background(), ContactInput{Name: "a", Email: "a@example.com", Message: "m"})
	require.NoError(t, err)
	svc.Wait()
}

func TestContactCreateDoesNotWaitForNotification(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	svc := NewContactService(newTestStore(t), notifierFunc(func(ctx context.Context, _ models.Contact) error {
		defer close(done)
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))

	reqCtx, cancel := context.WithCancel(context.Background())
	_, err := svc.Create(reqCtx, ContactInput{Name: "a", Email: "a@example.com", Message: "m"})
	require.NoError(t, err)
	cancel()

	select {
	case <-done:
		t.Fatal("notification should outlive the request context")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	svc.Wait()
}

func TestContactCreateNamesMissingFields(t *testing.T) {
	svc := NewContactService(newTestStore(t), nil)

	_, err := svc.Create(context.Background(), ContactInput{Name: "a"})
	require.True(t, errs.IsMissingRequiredFieldError(err))
	require.Contains(t, err.Error(), "email, message")
}

func TestContactMarkReadAndDelete(t *testing.T) {
	svc := NewContactService(newTestStore(t), nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, ContactInput{Name: "a", Email: "a@example.com", Message: "m"})
	require.NoError(t, err)

	read, err := svc.MarkRead(ctx, c.ID.String())
	require.NoError(t, err)
	require.True(t, read.Read)

	page, err := svc.List(ctx, NewPage(1, 10))
	require.NoError(t, err)
	require.True(t, page.Items[0].Read)

	require.NoError(t, svc.Delete(ctx, c.ID.String()))
	require.True(t, errs.IsNotFound(svc.Delete(ctx, c.ID.String())))
}

func TestContactMalformedIDIsNotFound(t *testing.T) {
	svc := NewContactService(newTestStore(t), nil)

	_, err := svc.MarkRead(context.Background(), "not-a-uuid")
	require.True(t, errs.IsNotFound(err))
}

func TestContactServiceFailsFastWhenDisconnected(t *testing.T) {
	svc := NewContactService(downStore{}, nil)

	_, err := svc.Create(context.Background(), ContactInput{Name: "a", Email: "b", Message: "c"})
	require.True(t, errs.IsServiceUnavailableError(err))
}
