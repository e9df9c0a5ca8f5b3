package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github/itish2003/docsearch/config"
	"github/itish2003/docsearch/models"
	"github/itish2003/docsearch/services"
)

// ChatController exposes both chat flows over HTTP. Each request runs against
// one session looked up from the path.
type ChatController struct {
	sessions      *services.SessionStore
	documents     services.DocumentService
	search        services.WebSearchService
	configProblem func() error
	renderDelay   time.Duration
}

func NewChatController(
	sessions *services.SessionStore,
	documents services.DocumentService,
	search services.WebSearchService,
	configProblem func() error,
	renderDelay time.Duration,
) *ChatController {
	if configProblem == nil {
		configProblem = func() error { return nil }
	}
	return &ChatController{
		sessions:      sessions,
		documents:     documents,
		search:        search,
		configProblem: configProblem,
		renderDelay:   renderDelay,
	}
}

// Health is the handler for GET /health.
func (c *ChatController) Health(ctx *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"service":  "docsearch",
		"sessions": c.sessions.Count(),
	}
	if err := c.configProblem(); err != nil {
		body["status"] = "degraded"
		body["config_error"] = err.Error()
	}
	ctx.JSON(http.StatusOK, body)
}

// CreateSession is the handler for POST /api/v1/sessions.
func (c *ChatController) CreateSession(ctx *gin.Context) {
	session := c.sessions.Create()
	resp := models.SessionResponse{SessionID: session.ID}
	if err := c.configProblem(); err != nil {
		resp.Warnings = append(resp.Warnings, err.Error())
	}
	ctx.JSON(http.StatusCreated, resp)
}

// EndSession is the handler for DELETE /api/v1/sessions/:id.
func (c *ChatController) EndSession(ctx *gin.Context) {
	if err := c.sessions.Delete(ctx.Param("id")); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// UploadDocument is the handler for POST /api/v1/sessions/:id/document.
func (c *ChatController) UploadDocument(ctx *gin.Context) {
	session, ok := c.session(ctx)
	if !ok {
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing multipart field 'file': " + err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload: " + err.Error()})
		return
	}
	defer file.Close()

	info, err := c.documents.LoadDocument(ctx.Request.Context(), session, fileHeader.Filename, file)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, models.UploadResponse{Message: "Uploaded successfully!", Document: *info})
}

// Ask is the handler for POST /api/v1/sessions/:id/ask.
func (c *ChatController) Ask(ctx *gin.Context) {
	session, ok := c.session(ctx)
	if !ok {
		return
	}

	var req models.AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	turn, docs, err := c.documents.Ask(ctx.Request.Context(), session, req.Question)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if wantsStream(ctx) {
		c.streamTurn(ctx, *turn)
		return
	}
	ctx.JSON(http.StatusOK, models.AskResponse{Turn: *turn, SourceDocs: docs, SessionID: session.ID})
}

// Search is the handler for POST /api/v1/sessions/:id/search.
func (c *ChatController) Search(ctx *gin.Context) {
	session, ok := c.session(ctx)
	if !ok {
		return
	}

	var req models.SearchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	turn, err := c.search.Search(ctx.Request.Context(), session, req.Query)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if wantsStream(ctx) {
		c.streamTurn(ctx, *turn)
		return
	}
	ctx.JSON(http.StatusOK, models.SearchResponse{Turn: *turn, SessionID: session.ID})
}

// History is the handler for GET /api/v1/sessions/:id/history.
func (c *ChatController) History(ctx *gin.Context) {
	session, ok := c.session(ctx)
	if !ok {
		return
	}

	mode, valid := models.ParseMode(ctx.DefaultQuery("mode", string(models.ModePDF)))
	if !valid {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "mode must be 'pdf' or 'search'"})
		return
	}
	turns := session.Log(mode).Turns()
	ctx.JSON(http.StatusOK, models.HistoryResponse{Mode: mode, Count: len(turns), Turns: turns, SessionID: session.ID})
}

func (c *ChatController) session(ctx *gin.Context) (*services.Session, bool) {
	session, err := c.sessions.Get(ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return nil, false
	}
	return session, true
}

// streamTurn replays the finished response as SSE "prefix" events, then sends
// the whole turn as "done".
func (c *ChatController) streamTurn(ctx *gin.Context, turn models.Turn) {
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	for prefix := range services.Progressive(turn.Response, c.renderDelay) {
		if ctx.Request.Context().Err() != nil {
			return
		}
		ctx.SSEvent("prefix", prefix)
		ctx.Writer.Flush()
	}
	ctx.SSEvent("done", turn)
	ctx.Writer.Flush()
}

func wantsStream(ctx *gin.Context) bool {
	return ctx.Query("stream") == "true"
}

func writeError(ctx *gin.Context, err error) {
	var missing *config.MissingCredentialsError
	switch {
	case errors.As(err, &missing):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSessionNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoDocument):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmptyInput):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnsupportedFile), errors.Is(err, services.ErrNoText), errors.Is(err, services.ErrExtraction):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		// Embedding and indexing failures during an upload.
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
