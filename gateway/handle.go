package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"doc_retrieval/resource"
	"doc_retrieval/retrieval"

	"github.com/gin-gonic/gin"
)

const rootMessage = "10-K Q&A API is running."

// Answerer runs the retrieval for one question.
type Answerer interface {
	Answer(ctx context.Context, question string, topK int) ([]retrieval.Chunk, error)
}

// StatusReporter reports which shared handles are initialized.
type StatusReporter interface {
	Ready() resource.Status
}

// QueryRequest is the body of POST /query. Question is a pointer so a missing
// field can be told apart from an empty string.
type QueryRequest struct {
	Question *string     `json:"question" binding:"required"`
	TopK     OptionalInt `json:"top_k"`
}

var errNullTopK = errors.New("top_k must not be null")

// OptionalInt is an integer field that may be omitted but not sent as null.
type OptionalInt struct {
	Value int
	Set   bool
}

func (o *OptionalInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return errNullTopK
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

type QueryResponse struct {
	RetrievedChunks []retrieval.Chunk `json:"retrieved_chunks"`
}

type Handler struct {
	answerer    Answerer
	status      StatusReporter
	defaultTopK int
	maxTopK     int
}

func NewHandler(answerer Answerer, status StatusReporter, defaultTopK, maxTopK int) *Handler {
	return &Handler{
		answerer:    answerer,
		status:      status,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
	}
}

// Root is the liveness check. It never touches the model or the store.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": rootMessage})
}

// Ready reports handle initialization without triggering it.
func (h *Handler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Ready())
}

func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := bindJSON(c, &req); err != nil {
		slog.Debug("fail to parse query request", "error", err)
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	topK := h.defaultTopK
	if req.TopK.Set {
		if req.TopK.Value <= 0 {
			writeError(c, http.StatusBadRequest, "top_k must be positive")
			return
		}
		topK = req.TopK.Value
	}
	if h.maxTopK > 0 && topK > h.maxTopK {
		writeError(c, http.StatusBadRequest, fmt.Sprintf("top_k must be at most %d", h.maxTopK))
		return
	}

	chunks, err := h.answerer.Answer(c.Request.Context(), *req.Question, topK)
	if err != nil {
		if errors.Is(err, retrieval.ErrInvalidTopK) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("fail to answer query", "error", err, "request_id", requestIDFrom(c))
		writeError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	if chunks == nil {
		chunks = []retrieval.Chunk{}
	}
	c.JSON(http.StatusOK, QueryResponse{RetrievedChunks: chunks})
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
