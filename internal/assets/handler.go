package assets

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drivestudy/annotator/pkg/queue"
	"github.com/drivestudy/annotator/pkg/response"
	"github.com/drivestudy/annotator/pkg/storage"
)

// Uploader stores raw footage; *storage.S3 implements it.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Handler exposes the asset catalog over HTTP.
type Handler struct {
	repo     *Repository
	jobQueue *queue.Queue
	uploader Uploader // nil when footage is stored on the local data dir
	dataDir  string
	log      *zap.Logger
}

// NewHandler creates an assets handler. uploader may be nil.
func NewHandler(repo *Repository, jobQueue *queue.Queue, uploader Uploader, dataDir string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{repo: repo, jobQueue: jobQueue, uploader: uploader, dataDir: dataDir, log: log}
}

// List handles GET /storage/video. An empty catalog is a valid state and
// returns an empty list.
func (h *Handler) List(c *gin.Context) {
	videos, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.log.Error("list videos", zap.Error(err))
		response.Internal(c, "failed to list videos")
		return
	}
	response.OK(c, videos)
}

// Rescan handles PUT /storage/video: enqueue a data directory rescan for
// the background worker.
func (h *Handler) Rescan(c *gin.Context) {
	if err := h.jobQueue.EnqueueAssetScan(c.Request.Context(), queue.AssetScanPayload{Root: h.dataDir}); err != nil {
		h.log.Error("enqueue asset scan", zap.Error(err))
		response.Internal(c, "failed to enqueue rescan")
		return
	}
	response.Accepted(c, gin.H{"queued": true})
}

// Upload handles POST /storage/video: accept a footage file into the data
// directory (or S3 when configured) and enqueue a rescan.
func (h *Handler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file field")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxUploadSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateVideoFileType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}

	name := filepath.Base(header.Filename)
	if h.uploader != nil {
		if _, err := h.uploader.Upload(c.Request.Context(), storage.AssetKey(name), contentType, file); err != nil {
			h.log.Error("upload asset", zap.Error(err), zap.String("file", name))
			response.Internal(c, "failed to store file")
			return
		}
	} else {
		dst := filepath.Join(h.dataDir, name)
		out, err := os.Create(dst)
		if err != nil {
			h.log.Error("create asset file", zap.Error(err), zap.String("path", dst))
			response.Internal(c, "failed to store file")
			return
		}
		defer out.Close()
		if _, err := io.Copy(out, file); err != nil {
			h.log.Error("write asset file", zap.Error(err), zap.String("path", dst))
			response.Internal(c, "failed to store file")
			return
		}
	}

	if err := h.jobQueue.EnqueueAssetScan(c.Request.Context(), queue.AssetScanPayload{Root: h.dataDir}); err != nil {
		h.log.Warn("enqueue rescan after upload", zap.Error(err))
	}
	response.Created(c, gin.H{"file_name": name})
}
