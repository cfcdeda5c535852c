package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hyeyeon57/portfolio-backoffice/database"
	"github.com/hyeyeon57/portfolio-backoffice/errs"
	"github.com/hyeyeon57/portfolio-backoffice/models"
)

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Read    *bool  `json:"read"`
}

// ContactNotifier is told about every stored contact message.
type ContactNotifier interface {
	NotifyContact(ctx context.Context, contact models.Contact) error
}

const notifyTimeout = 10 * time.Second

type ContactService struct {
	store    Store
	notifier ContactNotifier
	logger   zerolog.Logger
	pending  sync.WaitGroup
}

// NewContactService takes an optional notifier; nil disables notifications.
func NewContactService(store Store, notifier ContactNotifier) *ContactService {
	return &ContactService{
		store:    store,
		notifier: notifier,
		logger:   log.With().Str("service", "contacts").Logger(),
	}
}

// Create stores a message. A failed notification is logged and never fails
// the submission.
func (s *ContactService) Create(ctx context.Context, in ContactInput) (*models.Contact, error) {
	db, err := connected(s.store)
	if err != nil {
		return nil, err
	}

	contact := &models.Contact{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Message: in.Message,
	}
	if in.Read != nil {
		contact.Read = *in.Read
	}
	if err := contact.Validate(); err != nil {
		return nil, validationError(err)
	}

	if err := db.ContactRepo().Add(ctx, contact); err != nil {
		return nil, databaseError(s.store, "create", "contact", err)
	}

	if s.notifier != nil {
		s.notify(context.WithoutCancel(ctx), *contact)
	}
	return contact, nil
}

// notify sends the notification in the background so a slow mail provider
// never holds up the submission.
func (s *ContactService) notify(ctx context.Context, contact models.Contact) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()

		err := s.notifier.NotifyContact(nctx, contact)
		switch {
		case err == nil:
		case errs.IsServiceUnreachableError(err):
			s.logger.Warn().Err(err).Str("contact", contact.ID.String()).Msg("mail provider unreachable, contact not notified")
		default:
			s.logger.Error().Err(err).Str("contact", contact.ID.String()).Msg("contact notification failed")
		}
	}()
}

// Wait blocks until every in-flight notification has finished.
func (s *ContactService) Wait() {
	s.pending.Wait()
}

func (s *ContactService) List(ctx context.Context, page Page) (PageOf[models.Contact], error) {
	db, err := connected(s.store)
	if err != nil {
		return PageOf[models.Contact]{}, err
	}

	items, total, err := db.ContactRepo().List(ctx, page.Offset(), page.Limit)
	if err != nil {
		return PageOf[models.Contact]{}, databaseError(s.store, "list", "contacts", err)
	}
	return PageOf[models.Contact]{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// MarkRead sets read to true.
func (s *ContactService) MarkRead(ctx context.Context, id string) (*models.Contact, error) {
	db, err := connected(s.store)
	if err != nil {
		return nil, err
	}

	contact, err := s.find(ctx, db, id)
	if err != nil {
		return nil, err
	}
	contact.Read = true
	if err := db.ContactRepo().Update(ctx, contact); err != nil {
		return nil, databaseError(s.store, "update", "contact", err)
	}
	return contact, nil
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	db, err := connected(s.store)
	if err != nil {
		return err
	}

	contact, err := s.find(ctx, db, id)
	if err != nil {
		return err
	}
	if _, err := db.ContactRepo().Delete(ctx, contact.ID); err != nil {
		return databaseError(s.store, "delete", "contact", err)
	}
	return nil
}

// find treats a malformed id like an unknown one.
func (s *ContactService) find(ctx context.Context, db database.Database, id string) (*models.Contact, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, errs.NewNotFoundError("Contact not found")
	}
	contact, err := db.ContactRepo().FindByID(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewNotFoundError("Contact not found")
	}
	if err != nil {
		return nil, databaseError(s.store, "find", "contact", err)
	}
	return contact, nil
}
