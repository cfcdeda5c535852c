package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/database"
	"github.com/hyeyeon57/portfolio-backoffice/errs"
	"github.com/hyeyeon57/portfolio-backoffice/models"
	"github.com/hyeyeon57/portfolio-backoffice/storage"
)

// MaxProjectImages bounds the files accepted by one create or update.
const MaxProjectImages = 9

// Upload is one file received with a create or update.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ProjectFile describes a stored file referenced by a project.
type ProjectFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

type ProjectService struct {
	store         Store
	files         storage.Storage
	publicBaseURL string
	now           func() time.Time
	logger        zerolog.Logger
}

func NewProjectService(store Store, files storage.Storage, publicBaseURL string) *ProjectService {
	return &ProjectService{
		store:         store,
		files:         files,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
		logger:        log.With().Str("service", "projects").Logger(),
	}
}

func (s *ProjectService) List(ctx context.Context, page Page) (PageOf[models.Project], error) {
	db, err := connected(s.store)
	if err != nil {
		return PageOf[models.Project]{}, err
	}

	items, total, err := db.ProjectRepo().List(ctx, page.Offset(), page.Limit)
	if err != nil {
		return PageOf[models.Project]{}, databaseError(s.store, "list", "projects", err)
	}
	return PageOf[models.Project]{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// Get resolves key as an internal id, then as an external id.
func (s *ProjectService) Get(ctx context.Context, key string) (*models.Project, error) {
	db, err := connected(s.store)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, db, key)
}

func (s *ProjectService) resolve(ctx context.Context, db database.Database, key string) (*models.Project, error) {
	lookup, err := db.ProjectRepo().Resolve(ctx, key)
	if err != nil {
		return nil, databaseError(s.store, "find", "project", err)
	}
	if !lookup.Found() {
		return nil, errs.NewNotFoundError("Project not found")
	}
	s.logger.Debug().Str("key", key).Stringer("outcome", lookup.Outcome).Msg("project resolved")
	return lookup.Project, nil
}

// Create stores a new project. Uploaded files replace any images in the
// payload; a missing external id is derived from the current time.
func (s *ProjectService) Create(ctx context.Context, in ProjectInput, uploads []Upload) (*models.Project, error) {
	db, err := connected(s.store)
	if err != nil {
		return nil, err
	}
	if len(uploads) > MaxProjectImages {
		return nil, errs.NewTooManyFilesError("images", MaxProjectImages)
	}

	project := in.newProject()
	if strings.TrimSpace(project.ExternalID) == "" {
		project.ExternalID = strconv.FormatInt(s.now().UnixMilli(), 10)
	}
	project.Normalize()
	if err := project.Validate(); err != nil {
		return nil, validationError(err)
	}

	exists, err := db.ProjectRepo().ExistsByExternalID(ctx, project.ExternalID)
	if err != nil {
		return nil, databaseError(s.store, "find", "project", err)
	}
	if exists {
		return nil, duplicateExternalID(project.ExternalID)
	}

	if len(uploads) > 0 {
		stored, err := s.storeUploads(ctx, uploads)
		if err != nil {
			return nil, err
		}
		project.Images = stored
	}

	if err := db.ProjectRepo().Add(ctx, project); err != nil {
		s.discard(project.Images)
		return nil, s.writeError("create", project.ExternalID, err)
	}

	s.logger.Info().Str("id", project.ExternalID).Int("images", len(project.Images)).Msg("project created")
	return project, nil
}

// Update applies the supplied fields to an existing project. The external id
// is never changed and uploaded files are appended to the existing images.
func (s *ProjectService) Update(ctx context.Context, key string, in ProjectInput, uploads []Upload) (*models.Project, error) {
	db, err := connected(s.store)
	if err != nil {
		return nil, err
	}
	if len(uploads) > MaxProjectImages {
		return nil, errs.NewTooManyFilesError("images", MaxProjectImages)
	}

	project, err := s.resolve(ctx, db, key)
	if err != nil {
		return nil, err
	}

	in.applyContent(project)
	project.Normalize()
	if err := project.Validate(); err != nil {
		return nil, validationError(err)
	}

	var added []string
	if len(uploads) > 0 {
		if added, err = s.storeUploads(ctx, uploads); err != nil {
			return nil, err
		}
		project.Images = append(project.Images, added...)
	}

	if err := db.ProjectRepo().Update(ctx, project); err != nil {
		s.discard(added)
		return nil, s.writeError("update", project.ExternalID, err)
	}

	s.logger.Info().Str("id", project.ExternalID).Int("added_images", len(added)).Msg("project updated")
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, key string) error {
	db, err := connected(s.store)
	if err != nil {
		return err
	}

	project, err := s.resolve(ctx, db, key)
	if err != nil {
		return err
	}

	deleted, err := db.ProjectRepo().Delete(ctx, project.ID)
	if err != nil {
		return databaseError(s.store, "delete", "project", err)
	}
	if !deleted {
		return errs.NewNotFoundError("Project not found")
	}

	s.logger.Info().Str("id", project.ExternalID).Msg("project deleted")
	return nil
}

// Files lists the cover image followed by each distinct gallery image.
func (s *ProjectService) Files(ctx context.Context, key string) ([]ProjectFile, error) {
	project, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	files := []ProjectFile{}
	seen := map[string]bool{}
	for _, p := range append([]string{project.Image}, project.Images...) {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		files = append(files, ProjectFile{Name: path.Base(p), Path: p, URL: s.publicURL(p)})
	}
	return files, nil
}

// OpenFile returns the stored file of a project whose path contains name.
func (s *ProjectService) OpenFile(ctx context.Context, key, name string) (io.ReadCloser, string, error) {
	files, err := s.Files(ctx, key)
	if err != nil {
		return nil, "", err
	}

	name = path.Base(name)
	for _, f := range files {
		if !strings.Contains(f.Path, name) {
			continue
		}
		rc, err := s.files.Open(ctx, f.Path)
		if errors.Is(err, storage.ErrNotExist) {
			return nil, "", errs.NewNotFoundError("File not found")
		}
		if err != nil {
			return nil, "", errs.NewStorageError("open", f.Name, err)
		}
		return rc, f.Name, nil
	}
	return nil, "", errs.NewNotFoundError("File not found")
}

func (s *ProjectService) publicURL(p string) string {
	if strings.Contains(p, "://") {
		return p
	}
	return s.publicBaseURL + p
}

func (s *ProjectService) storeUploads(ctx context.Context, uploads []Upload) ([]string, error) {
	stored := make([]string, 0, len(uploads))
	at := s.now()
	for i, u := range uploads {
		name := storage.UploadName(u.Filename, at, i)
		p, err := s.files.Save(ctx, name, u.Body, u.ContentType)
		if err != nil {
			s.discard(stored)
			return nil, errs.NewStorageError("save", u.Filename, err)
		}
		stored = append(stored, p)
	}
	return stored, nil
}

// discard removes files stored for a write that did not persist.
func (s *ProjectService) discard(paths []string) {
	for _, p := range paths {
		if err := s.files.Delete(context.Background(), p); err != nil {
			s.logger.Warn().Err(err).Str("path", p).Msg("failed to remove orphaned upload")
		}
	}
}

func (s *ProjectService) writeError(op, externalID string, err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return validationError(verr)
	}
	dbErr := databaseError(s.store, op, "project", err)
	if errs.IsUniqueConstraintViolationError(dbErr) {
		return duplicateExternalID(externalID)
	}
	return dbErr
}

func duplicateExternalID(externalID string) error {
	return errs.NewInvalidFieldError("id", fmt.Sprintf("a project with id %q already exists", externalID))
}

// validationError converts a model validation failure into a 400.
func validationError(err error) error {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	if len(verr.Missing) > 0 {
		return errs.NewMissingRequiredFieldsError(verr.Missing)
	}
	for field, reason := range verr.Invalid {
		return errs.NewInvalidFieldError(field, reason)
	}
	return errs.NewBadRequestError(verr.Error())
}
