package web

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"ai-stylist/internal/imagedata"
	"ai-stylist/internal/session"
	"ai-stylist/internal/stylist"
)

//go:embed static/*
var staticFS embed.FS

// DownloadFilename is the name offered for the styled image whatever its
// actual encoding.
const DownloadFilename = "ai-styled-look.png"

const (
	defaultMaxUploadBytes = 20 << 20
	multipartOverhead     = 1 << 20
	maxJSONBody           = 64 << 10
)

const (
	noticeNotImage = "The selected file is not an image. Please choose a photo."
	noticeNoFile   = "No image selected."
)

type Options struct {
	Store          *session.Store
	Logger         *slog.Logger
	MaxUploadBytes int64
}

type Server struct {
	store     *session.Store
	logger    *slog.Logger
	maxUpload int64
	validate  *validator.Validate
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Server{
		store:     opts.Store,
		logger:    logger,
		maxUpload: maxUpload,
		validate:  newValidator(),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(withRequestID)
	r.Use(withLogging(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/styles", s.stylesHandler)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSessionHandler)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Use(s.sessionCtxMiddleware)

				r.Get("/", s.getSessionHandler)
				r.Delete("/", s.resetSessionHandler)
				r.Put("/images/{slot}", s.uploadImageHandler)
				r.Delete("/images/{slot}", s.removeImageHandler)
				r.Put("/preferences", s.preferencesHandler)
				r.Post("/generate", s.generateHandler)
				r.Post("/refine", s.refineHandler)
				r.Get("/download", s.downloadHandler)
			})
		})
	})

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/*", http.FileServer(http.FS(staticSub)))

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) stylesHandler(w http.ResponseWriter, r *http.Request) {
	opts := stylist.StyleCategories()
	out := make([]styleView, 0, len(opts))
	for _, opt := range opts {
		out = append(out, styleView{Key: opt.Key, Name: opt.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	orch := s.store.Create()
	sess := orch.Snapshot()
	s.logger.Info("session created", "session", sess.ID, "request_id", requestID(r.Context()))
	writeJSON(w, http.StatusCreated, newSessionView(sess))
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionView(orchestratorFromCtx(r).Snapshot()))
}

func (s *Server) resetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := orchestratorFromCtx(r).Reset()
	if err != nil {
		s.writeSessionError(w, sess, err, "")
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) uploadImageHandler(w http.ResponseWriter, r *http.Request) {
	slot, ok := session.ParseSlot(chi.URLParam(r, "slot"))
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "Unknown image slot.", Kind: stylist.KindValidation})
		return
	}
	orch := orchestratorFromCtx(r)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeSessionError(w, orch.Snapshot(), imagedata.ErrTooLarge, "")
			return
		}
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form", Kind: stylist.KindValidation})
		return
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		s.clearWithNotice(w, orch, slot, noticeNoFile)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to read image", Kind: stylist.KindValidation})
		return
	}
	defer file.Close()

	img, err := imagedata.Ingest(file, header.Header.Get("Content-Type"), s.maxUpload)
	switch {
	case errors.Is(err, imagedata.ErrNotImage):
		s.clearWithNotice(w, orch, slot, noticeNotImage)
		return
	case err != nil:
		s.writeSessionError(w, orch.Snapshot(), err, "")
		return
	}

	sess, err := orch.SetImage(slot, img)
	if err != nil {
		s.writeSessionError(w, sess, err, "")
		return
	}

	if info, err := imagedata.Probe(img); err == nil {
		s.logger.Info("image uploaded", "session", sess.ID, "slot", slot, "format", info.Format, "width", info.Width, "height", info.Height)
	} else {
		s.logger.Info("image uploaded", "session", sess.ID, "slot", slot, "mime", img.MimeType(), "probe_err", err)
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) removeImageHandler(w http.ResponseWriter, r *http.Request) {
	slot, ok := session.ParseSlot(chi.URLParam(r, "slot"))
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "Unknown image slot.", Kind: stylist.KindValidation})
		return
	}
	sess, err := orchestratorFromCtx(r).ClearImage(slot)
	if err != nil {
		s.writeSessionError(w, sess, err, "")
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) preferencesHandler(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	style, _ := stylist.LookupStyle(req.Style)

	sess, err := orchestratorFromCtx(r).SetPreferences(req.Occasion, style)
	if err != nil {
		s.writeSessionError(w, sess, err, "")
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := orchestratorFromCtx(r).Generate(r.Context())
	if err != nil {
		s.writeSessionError(w, sess, err, stylist.FallbackGenerateMessage)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) refineHandler(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	sess, err := orchestratorFromCtx(r).Refine(r.Context(), req.Instruction)
	if err != nil {
		s.writeSessionError(w, sess, err, stylist.FallbackRefineMessage)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	sess := orchestratorFromCtx(r).Snapshot()
	if sess.StyledImage.IsZero() {
		writeJSON(w, http.StatusNotFound, apiError{Error: "There is no styled image to download yet."})
		return
	}
	mimeType, raw, err := sess.StyledImage.Decode()
	if err != nil {
		s.logger.Error("decode styled image", "session", sess.ID, "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to decode styled image"})
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.Header().Set("Content-Disposition", `attachment; filename="`+DownloadFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) clearWithNotice(w http.ResponseWriter, orch *session.Orchestrator, slot session.Slot, notice string) {
	sess, err := orch.ClearImage(slot)
	if err != nil {
		s.writeSessionError(w, sess, err, "")
		return
	}
	view := newSessionView(sess)
	view.Notice = notice
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body", Kind: stylist.KindValidation})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: validationMessage(err), Kind: stylist.KindValidation})
		return false
	}
	return true
}

// writeSessionError reports err together with the session as it stands
// after the failed operation.
func (s *Server) writeSessionError(w http.ResponseWriter, sess session.Session, err error, fallback string) {
	view := newSessionView(sess)
	body := apiError{Session: &view}

	switch {
	case errors.Is(err, session.ErrBusy):
		body.Error = "Please wait for the current request to finish."
		writeJSON(w, http.StatusConflict, body)
		return
	case errors.Is(err, imagedata.ErrTooLarge):
		body.Error = "The selected image is too large."
		body.Kind = stylist.KindValidation
		writeJSON(w, http.StatusRequestEntityTooLarge, body)
		return
	}

	body.Kind = stylist.KindOf(err)
	body.Error = stylist.UserMessage(err, fallback)
	if body.Kind == stylist.KindValidation {
		writeJSON(w, http.StatusBadRequest, body)
		return
	}
	writeJSON(w, http.StatusBadGateway, body)
}
