package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chaos-io/logokit/logo"
	"github.com/chaos-io/logokit/store"
)

const uploadField = "image"

type Server struct {
	processor *logo.Processor
	store     *store.Store
	router    *gin.Engine
	log       zerolog.Logger
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l.With().Str("component", "server").Logger() }
}

func New(p *logo.Processor, st *store.Store, opts ...Option) *Server {
	s := &Server{processor: p, store: st, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog(), cors())
	// 一次上传可以带多张图
	r.MaxMultipartMemory = 4 * p.Validator().MaxFileSize()

	v1 := r.Group("/v1")
	v1.GET("/formats", s.formats)
	v1.POST("/logos", s.upload)
	v1.GET("/logos", s.list)
	v1.DELETE("/logos", s.clear)
	v1.GET("/logos/:id", s.get)
	v1.GET("/logos/:id/:variant", s.download)
	v1.DELETE("/logos/:id", s.delete)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 阻塞直到 ctx 结束，然后优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type variantLink struct {
	Name string `json:"name"`
	File string `json:"file"`
	URL  string `json:"url"`
}

type logoView struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Format   string        `json:"format"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	HadAlpha bool          `json:"had_alpha"`
	Created  time.Time     `json:"created"`
	Variants []variantLink `json:"variants"`
}

type uploadResult struct {
	Name  string    `json:"name"`
	Logo  *logoView `json:"logo,omitempty"`
	Error string    `json:"error,omitempty"`
}

func (s *Server) view(e *store.Entry) *logoView {
	v := &logoView{
		ID:       e.ID,
		Name:     e.Output.Name,
		Format:   e.Output.Format,
		Width:    e.Output.Width,
		Height:   e.Output.Height,
		HadAlpha: e.Output.HadAlpha,
		Created:  e.Created,
	}
	for _, name := range s.processor.Variants() {
		if _, ok := e.Output.Variants[name]; !ok {
			continue
		}
		v.Variants = append(v.Variants, variantLink{
			Name: string(name),
			File: logo.FileName(e.Output.Name, name),
			URL:  fmt.Sprintf("/v1/logos/%s/%s", e.ID, name),
		})
	}
	return v
}

func (s *Server) formats(c *gin.Context) {
	v := s.processor.Validator()
	c.JSON(http.StatusOK, gin.H{
		"formats":       v.SupportedFormats(),
		"max_file_size": v.MaxFileSize(),
		"variants":      s.processor.Variants(),
	})
}

func (s *Server) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form expected"})
		return
	}
	files := form.File[uploadField]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Picture is missing"})
		return
	}

	inputs := make([]logo.Input, 0, len(files))
	for _, fh := range files {
		data, err := s.readUpload(fh)
		if err != nil {
			s.log.Warn().Err(err).Str("name", fh.Filename).Msg("read upload")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		inputs = append(inputs, logo.Input{Name: fh.Filename, Data: data})
	}

	results := s.processor.ProcessBatch(c.Request.Context(), inputs)

	resp := make([]uploadResult, len(results))
	var firstErr error
	succeeded := 0
	for i, r := range results {
		resp[i].Name = r.Name
		if r.Err != nil {
			resp[i].Error = r.Err.Error()
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		succeeded++
		resp[i].Logo = s.view(s.store.Put(r.Output))
	}

	status := http.StatusCreated
	if succeeded == 0 {
		status = statusOf(firstErr)
	}
	c.JSON(status, gin.H{"results": resp})
}

// readUpload 最多读 MaxFileSize+1 字节，超出部分交给校验器报错
func (s *Server) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.processor.Validator().MaxFileSize()+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

func (s *Server) list(c *gin.Context) {
	entries := s.store.List()
	views := make([]*logoView, 0, len(entries))
	for _, e := range entries {
		views = append(views, s.view(e))
	}
	c.JSON(http.StatusOK, gin.H{"logos": views})
}

func (s *Server) get(c *gin.Context) {
	e, err := s.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view(e))
}

func (s *Server) download(c *gin.Context) {
	e, err := s.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	variant := logo.Variant(c.Param("variant"))
	data, ok := e.Output.Variants[variant]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown variant %q", variant)})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, logo.FileName(e.Output.Name, variant)))
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) delete(c *gin.Context) {
	if err := s.store.Delete(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clear(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"deleted": s.store.Clear()})
}

func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, logo.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, logo.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, logo.ErrEmptyFile), errors.Is(err, logo.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusOf(err), gin.H{"error": err.Error()})
}
