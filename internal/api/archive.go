package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/sunr3d/explorer/internal/config"
	"github.com/sunr3d/explorer/internal/format"
	"github.com/sunr3d/explorer/internal/fsutil"
	"github.com/sunr3d/explorer/internal/infra/sink"
	"github.com/sunr3d/explorer/internal/interfaces/infra"
	"github.com/sunr3d/explorer/internal/interfaces/services"
	"github.com/sunr3d/explorer/internal/middleware"
	"github.com/sunr3d/explorer/models"
)

const archiveInfo = "The archive is being created"

var errEmptySelection = errors.New("не выбрано ни одного файла или директории")

type ArchiveAPI struct {
	service services.ArchiveService
	stat    infra.StatReporter
	format  *format.Responder
	logger  *zap.Logger
	cfg     *config.Config
}

func New(service services.ArchiveService, stat infra.StatReporter, responder *format.Responder, logger *zap.Logger, cfg *config.Config) *ArchiveAPI {
	return &ArchiveAPI{
		service: service,
		stat:    stat,
		format:  responder,
		logger:  logger,
		cfg:     cfg,
	}
}

// POST /archive
func (h *ArchiveAPI) CreateArchive(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "Требуется аутентификация", http.StatusUnauthorized)
		return
	}

	req, err := decodeCreateArchive(r)
	if err != nil {
		h.logger.Error("ошибка парсинга запроса", zap.Error(err))
		http.Error(w, "Некорректный запрос: не удалось разобрать тело", http.StatusBadRequest)
		return
	}

	archiveReq, err := h.buildRequest(user, req)
	if err != nil {
		http.Error(w, fmt.Sprintf("Некорректный запрос: %v", err), http.StatusBadRequest)
		return
	}

	if !req.Background {
		archiveReq.Sink = sink.NewResponseSink(w)
		job := h.service.Create(r.Context(), archiveReq, user)
		// the sink is the response: the handler must outlive the job
		outcome := job.Outcome()
		if !outcome.Success() {
			h.logger.Error("ошибка создания архива",
				zap.String("job_id", outcome.JobID),
				zap.Error(outcome.Err),
			)
		}
		return
	}

	archiveReq.Temp = filepath.Join(user.Archive, archiveReq.Filename())
	archiveReq.Sink = sink.NewFileSink(archiveReq.Temp)
	job := h.service.Create(r.Context(), archiveReq, user)

	h.format.Handle(w, r, "back", format.Locals{
		"info":   archiveInfo,
		"job_id": job.ID(),
	}, http.StatusAccepted)
}

func (h *ArchiveAPI) buildRequest(user *models.User, req createArchiveReq) (*models.ArchiveRequest, error) {
	if len(req.Paths) == 0 && len(req.Directories) == 0 {
		return nil, errEmptySelection
	}

	root, err := fsutil.ResolveWithinRoot(user.Home, req.Dir)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = filepath.Base(root)
	}

	out := &models.ArchiveRequest{
		Name:        fsutil.SanitizeBaseName(name),
		Root:        root,
		Paths:       make([]string, 0, len(req.Paths)),
		Directories: make([]string, 0, len(req.Directories)),
		Options:     map[string]any{"dir": fsutil.CleanRelPath(req.Dir)},
	}

	for _, p := range req.Paths {
		abs, err := fsutil.ResolveWithinRoot(root, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out.Paths = append(out.Paths, abs)
	}
	for _, d := range req.Directories {
		abs, err := fsutil.ResolveWithinRoot(root, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d, err)
		}
		out.Directories = append(out.Directories, abs)
	}

	return out, nil
}

func decodeCreateArchive(r *http.Request) (createArchiveReq, error) {
	var req createArchiveReq

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return req, err
	}

	req.Name = r.FormValue("name")
	req.Dir = r.FormValue("dir")
	req.Paths = r.Form["paths"]
	req.Directories = r.Form["directories"]
	if v := r.FormValue("background"); v != "" {
		bg, err := strconv.ParseBool(v)
		if err != nil {
			return req, err
		}
		req.Background = bg
	}
	return req, nil
}
