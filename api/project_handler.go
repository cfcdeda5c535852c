package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/errs"
	"github.com/hyeyeon57/portfolio-backoffice/services"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling file parts to disk.
const multipartMemory = 32 << 20

var projectMediaTypes = []string{"application/json", "multipart/form-data", "application/x-www-form-urlencoded"}

type projectHandler struct {
	responder      Responder
	logger         zerolog.Logger
	projects       *services.ProjectService
	maxUploadBytes int64
}

func newProjectHandler(projects *services.ProjectService, maxUploadBytes int64) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		projects:       projects,
		maxUploadBytes: maxUploadBytes,
	}
}

// getAllProjects lists projects newest first
// @Summary List projects
// @Tags Projects
// @Produce json
// @Param page query int false "Page, 1-based"
// @Param limit query int false "Page size"
// @Router /api/projects [get]
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pageFromQuery(r)
		result, err := h.projects.List(r.Context(), page)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, result.Items, envelope{
			"total": result.Total,
			"page":  result.Page,
			"limit": result.Limit,
		})
	}
}

// getProject returns one project by internal or external id
// @Router /api/projects/{projectID} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.projects.Get(r.Context(), chi.URLParam(r, "projectID"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, project, nil)
	}
}

// createProject stores a project and its uploaded images
// @Summary Create project
// @Tags Projects
// @Accept multipart/form-data,json
// @Router /api/projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, uploads, cleanup, err := h.readProjectRequest(w, r)
		defer cleanup()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Create(r.Context(), in, uploads)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("projectID", project.ExternalID).Int("uploads", len(uploads)).Msg("project created")
		h.responder.WriteSuccessStatus(w, http.StatusCreated, project, nil)
	}
}

// updateProject edits a project; uploaded images are appended
// @Router /api/projects/{projectID} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, uploads, cleanup, err := h.readProjectRequest(w, r)
		defer cleanup()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Update(r.Context(), chi.URLParam(r, "projectID"), in, uploads)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, project, nil)
	}
}

// deleteProject removes a project
// @Router /api/projects/{projectID} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.projects.Delete(r.Context(), chi.URLParam(r, "projectID")); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, nil, envelope{"message": "Project deleted"})
	}
}

// listProjectFiles returns the stored files a project references
// @Router /api/projects/{projectID}/files [get]
func (h projectHandler) listProjectFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := h.projects.Files(r.Context(), chi.URLParam(r, "projectID"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, files, nil)
	}
}

// downloadProjectFile streams one referenced file as an attachment
// @Router /api/projects/{projectID}/files/{filename} [get]
func (h projectHandler) downloadProjectFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, name, err := h.projects.OpenFile(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "filename"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		if _, err := io.Copy(w, rc); err != nil {
			h.logger.Warn().Err(err).Str("file", name).Msg("download interrupted")
		}
	}
}

// readProjectRequest decodes a JSON body or a multipart form. The returned
// cleanup must always be called.
func (h projectHandler) readProjectRequest(w http.ResponseWriter, r *http.Request) (services.ProjectInput, []services.Upload, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data", "application/x-www-form-urlencoded":
	case "", "application/json":
		in, err := services.DecodeProjectInput(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
		if err != nil {
			return in, nil, noop, bodyError(err, h.maxUploadBytes)
		}
		return in, nil, noop, nil
	default:
		return services.ProjectInput{}, nil, noop, errs.NewUnsupportedMediaTypeError(mediaType, projectMediaTypes)
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return services.ProjectInput{}, nil, noop, bodyError(err, h.maxUploadBytes)
	}

	if r.MultipartForm == nil {
		in, err := projectInputFromForm(r.PostForm)
		return in, nil, noop, err
	}

	cleanup := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn().Err(err).Msg("failed to remove multipart temp files")
		}
	}
	in, err := projectInputFromForm(r.PostForm)
	if err != nil {
		return in, nil, cleanup, err
	}
	uploads, closeFiles, err := openUploads(r.MultipartForm.File["images"])
	if err != nil {
		return in, nil, cleanup, err
	}
	return in, uploads, func() { closeFiles(); cleanup() }, nil
}

func openUploads(headers []*multipart.FileHeader) ([]services.Upload, func(), error) {
	if len(headers) > services.MaxProjectImages {
		return nil, func() {}, errs.NewTooManyFilesError("images", services.MaxProjectImages)
	}

	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, errs.NewMalformedPayloadError("multipart", err)
		}
		files = append(files, f)
		uploads = append(uploads, services.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}

// projectInputFromForm reads either a JSON document in the "project" field or
// one form field per project attribute.
func projectInputFromForm(form url.Values) (services.ProjectInput, error) {
	if raw := form.Get("project"); raw != "" {
		in, err := services.DecodeProjectInput(strings.NewReader(raw))
		if err != nil {
			return in, errs.NewInvalidJSONError(err)
		}
		return in, nil
	}

	var in services.ProjectInput
	if _, ok := form["id"]; ok {
		id := services.FlexString(form.Get("id"))
		in.ExternalID = &id
	}
	strField := func(key string) *string {
		if _, ok := form[key]; !ok {
			return nil
		}
		v := form.Get(key)
		return &v
	}
	in.Title = strField("title")
	in.Subtitle = strField("subtitle")
	in.Description = strField("description")
	in.FullDescription = strField("fullDescription")
	in.Image = strField("image")
	in.Category = strField("category")
	in.Date = strField("date")
	in.Role = strField("role")
	in.Duration = strField("duration")
	in.Team = strField("team")
	in.Link = strField("link")

	var err error
	if in.Tags, err = listField(form, "tags"); err != nil {
		return in, err
	}
	if in.Achievements, err = listField(form, "achievements"); err != nil {
		return in, err
	}
	if in.Images, err = listField(form, "images"); err != nil {
		return in, err
	}

	if _, ok := form["featured"]; ok {
		featured, err := strconv.ParseBool(form.Get("featured"))
		if err != nil {
			return in, errs.NewInvalidFieldError("featured", "must be true or false")
		}
		in.Featured = &featured
	}
	return in, nil
}

// listField accepts a JSON array, a comma-separated value, or repeated keys.
func listField(form url.Values, key string) (*[]string, error) {
	values, ok := form[key]
	if !ok {
		return nil, nil
	}

	list := []string{}
	if len(values) == 1 {
		raw := strings.TrimSpace(values[0])
		if strings.HasPrefix(raw, "[") {
			if err := json.Unmarshal([]byte(raw), &list); err != nil {
				return nil, errs.NewInvalidFieldError(key, "must be a JSON array of strings")
			}
			return &list, nil
		}
		values = strings.Split(raw, ",")
	}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return &list, nil
}

// bodyError maps body read failures to client errors.
func bodyError(err error, limit int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return errs.NewMaxBodySizeExceededError(limit)
	}
	if errors.Is(err, io.EOF) {
		return errs.NewMalformedPayloadError("empty", err)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return errs.NewInvalidJSONError(err)
	}
	return errs.NewMalformedPayloadError("request", err)
}

// pageFromQuery reads ?page= and ?limit=, leaving defaults to the services.
func pageFromQuery(r *http.Request) services.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return services.NewPage(page, limit)
}
