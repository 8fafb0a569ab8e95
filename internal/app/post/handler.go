package post

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onchan/internal/app/auth"
	"onchan/internal/config"
)

type Handler interface {
	GetThreadIndex(c *gin.Context)
	GetThread(c *gin.Context)
	CreateThread(c *gin.Context)
	CreateReply(c *gin.Context)
	Delete(c *gin.Context)
}

type handler struct {
	service Service
	authSvc auth.Service
	cfg     *config.Config
	logger  *zap.SugaredLogger
}

func NewHandler(service Service, authSvc auth.Service, cfg *config.Config, logger *zap.Logger) Handler {
	return &handler{
		service: service,
		authSvc: authSvc,
		cfg:     cfg,
		logger:  logger.Sugar(),
	}
}

// @Summary Get thread index
// @Description Get one page of a board's visible thread index in bump order
// @Tags Post
// @Produce json
// @Param path path string true "Board path without slashes"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} ThreadIndexResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/boards/{path}/threads [get]
func (h *handler) GetThreadIndex(c *gin.Context) {
	boardPath := "/" + c.Param("path") + "/"
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	threads, err := h.service.GetThreadIndex(c.Request.Context(), boardPath, page)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "board not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch threads"})
		return
	}
	c.JSON(http.StatusOK, ThreadIndexResponse{Threads: threads, Page: page})
}

// @Summary Get thread
// @Description Get a thread OP with all its replies in chronological order
// @Tags Post
// @Produce json
// @Param path path string true "Board path without slashes"
// @Param id path int true "Thread id"
// @Success 200 {object} Content
// @Failure 404 {object} ErrorResponse
// @Router /api/boards/{path}/threads/{id} [get]
func (h *handler) GetThread(c *gin.Context) {
	boardPath := "/" + c.Param("path") + "/"
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid thread id"})
		return
	}

	thread, err := h.service.GetThread(c.Request.Context(), boardPath, id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "thread not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch thread"})
		return
	}
	c.JSON(http.StatusOK, thread)
}

// @Summary Create thread
// @Description Post a new thread (multipart form: name, subject, options, comment, file)
// @Tags Post
// @Accept multipart/form-data
// @Produce json
// @Param path path string true "Board path without slashes"
// @Success 201 {object} PostResult
// @Failure 400 {object} PostResult
// @Failure 404 {object} ErrorResponse
// @Router /api/boards/{path}/threads [post]
func (h *handler) CreateThread(c *gin.Context) {
	boardPath := "/" + c.Param("path") + "/"

	file, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read upload"})
		return
	}

	passwordHash, minted := h.credential(c)

	result, err := h.service.CreateThread(
		c.Request.Context(),
		boardPath,
		c.PostForm("name"),
		c.PostForm("subject"),
		c.PostForm("options"),
		c.PostForm("comment"),
		file,
		passwordHash,
	)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "board not found"})
		return
	}
	if errors.Is(err, ErrCapacityExceeded) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "board is full"})
		return
	}
	if err != nil {
		h.logger.Errorw("Create thread failed", "board", boardPath, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create thread"})
		return
	}
	if !result.OK {
		c.JSON(http.StatusBadRequest, result)
		return
	}

	if minted {
		h.setCredentialCookie(c, passwordHash)
	}
	c.JSON(http.StatusCreated, result)
}

// @Summary Create reply
// @Description Post a reply to a thread (multipart form: name, options, comment, file)
// @Tags Post
// @Accept multipart/form-data
// @Produce json
// @Param path path string true "Board path without slashes"
// @Param id path int true "Thread id"
// @Success 201 {object} PostResult
// @Failure 400 {object} PostResult
// @Failure 404 {object} ErrorResponse
// @Router /api/boards/{path}/threads/{id}/replies [post]
func (h *handler) CreateReply(c *gin.Context) {
	boardPath := "/" + c.Param("path") + "/"
	threadID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid thread id"})
		return
	}

	file, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read upload"})
		return
	}

	passwordHash, minted := h.credential(c)

	result, err := h.service.CreateReply(
		c.Request.Context(),
		boardPath,
		threadID,
		c.PostForm("name"),
		c.PostForm("options"),
		c.PostForm("comment"),
		file,
		passwordHash,
	)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "thread not found"})
		return
	}
	if errors.Is(err, ErrImageLimitExceeded) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "image limit reached for this thread"})
		return
	}
	if err != nil {
		h.logger.Errorw("Create reply failed", "board", boardPath, "thread_id", threadID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create reply"})
		return
	}
	if !result.OK {
		c.JSON(http.StatusBadRequest, result)
		return
	}

	if minted {
		h.setCredentialCookie(c, passwordHash)
	}
	c.JSON(http.StatusCreated, result)
}

// @Summary Delete posts
// @Description Delete posts (or only their images) authorized by the credential cookie or the deletion password
// @Tags Post
// @Accept json
// @Produce json
// @Param path path string true "Board path without slashes"
// @Param request body DeleteRequest true "Delete request"
// @Success 200 {object} DeleteResponse
// @Router /api/boards/{path}/posts/delete [post]
func (h *handler) Delete(c *gin.Context) {
	boardPath := "/" + c.Param("path") + "/"

	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	// The credential cookie authorizes directly; without it, a plain
	// password in the body can still resolve to a stored hash. Neither
	// present means nothing can be authorized: a silent no-op, not an error.
	passwordHash, err := c.Cookie(h.cfg.CookieName)
	if err != nil {
		passwordHash, err = h.authSvc.ResolveHash(req.IDs, req.Password)
		if err != nil {
			h.logger.Errorw("Delete authorization failed", "board", boardPath, "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete"})
			return
		}
	}
	if passwordHash == "" {
		c.JSON(http.StatusOK, DeleteResponse{Deleted: 0})
		return
	}

	var count int64
	if req.ImagesOnly {
		count, err = h.service.DeleteImagesOnly(c.Request.Context(), boardPath, req.IDs, passwordHash)
	} else {
		count, err = h.service.DeleteContent(c.Request.Context(), boardPath, req.IDs, passwordHash)
	}
	if err != nil {
		h.logger.Errorw("Delete failed", "board", boardPath, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete"})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{Deleted: count})
}

// credential returns the deletion credential hash for this client, minting a
// fresh one on the first post of a session.
func (h *handler) credential(c *gin.Context) (hash string, minted bool) {
	if existing, err := c.Cookie(h.cfg.CookieName); err == nil && existing != "" {
		return existing, false
	}
	cred, err := h.authSvc.MintCredential()
	if err != nil {
		h.logger.Errorw("Failed to mint credential", "error", err)
		return "", false
	}
	return cred.Hash, true
}

func (h *handler) setCredentialCookie(c *gin.Context, hash string) {
	secure := c.GetHeader("X-Forwarded-Proto") == "https"
	c.SetCookie(h.cfg.CookieName, hash, h.cfg.CookieMaxAge, "/", "", secure, true)
}

func (h *handler) readUpload(c *gin.Context) (*UploadedFile, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// No file attached is fine; validation decides whether one was
		// required.
		return nil, nil
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// One byte past the ceiling is enough for validation to reject.
	data, err := io.ReadAll(io.LimitReader(src, h.cfg.MaxFileSize+1))
	if err != nil {
		return nil, err
	}

	return &UploadedFile{Filename: fileHeader.Filename, Data: data}, nil
}
