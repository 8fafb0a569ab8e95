package board

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	GetAllBoards(c *gin.Context)
	GetBoardByPath(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// @Summary Get all boards
// @Description Get a list of all configured boards
// @Tags Board
// @Accept json
// @Produce json
// @Success 200 {object} BoardListResponse
// @Router /api/boards [get]
func (h *handler) GetAllBoards(c *gin.Context) {
	boards, err := h.service.GetAllBoards()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch boards"})
		return
	}
	c.JSON(http.StatusOK, BoardListResponse{Boards: boards})
}

// @Summary Get board by path
// @Description Get a specific board by its short path, e.g. "b" for /b/
// @Tags Board
// @Accept json
// @Produce json
// @Param path path string true "Board path without slashes"
// @Success 200 {object} Board
// @Failure 404 {object} ErrorResponse
// @Router /api/boards/{path} [get]
func (h *handler) GetBoardByPath(c *gin.Context) {
	path := "/" + c.Param("path") + "/"
	board, err := h.service.GetBoardByPath(path)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "board not found"})
		return
	}
	c.JSON(http.StatusOK, board)
}
