package adminapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/aquahimiya/catalogd/internal/webserver"
	"github.com/aquahimiya/catalogd/pkg/common"
)

// ProductImagesURL is the public prefix of stored product images.
const ProductImagesURL = "/uploads/products/"

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// uploadResult reports one file: either its public URL or why it was refused.
type uploadResult struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

func registerUploadRoutes() {
	webserver.ApiPOST("/upload", uploadImages, requireAdmin)
}

func uploadImages(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No file uploaded", err.Error())
	}
	var files []*multipart.FileHeader
	for _, field := range []string{"images", "images[]", "image"} {
		files = append(files, form.File[field]...)
	}
	if len(files) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No file uploaded", nil)
	}

	appCtx := GetAppContext(c)
	dir := appCtx.Config().GetProductImagesDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to prepare upload directory", nil)
	}
	maxBytes := appCtx.Config().UploadMaxBytes()

	results := make([]uploadResult, len(files))
	var wg sync.WaitGroup
	for i, fh := range files {
		i, fh := i, fh
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = saveImage(fh, dir, maxBytes)
		}
		if err := appCtx.WorkerPool().Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	return ok(c, results)
}

// saveImage stores one uploaded image under a generated name. The content
// type is sniffed from the file itself, not taken from the client.
func saveImage(fh *multipart.FileHeader, dir string, maxBytes int64) uploadResult {
	if fh.Size > maxBytes {
		return uploadResult{Error: "Too large"}
	}
	src, err := fh.Open()
	if err != nil {
		return uploadResult{Error: fmt.Sprintf("Upload error: %v", err)}
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return uploadResult{Error: "Upload error: unreadable file"}
	}
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return uploadResult{Error: "Invalid type: " + mtype.String()}
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return uploadResult{Error: "Failed to save"}
	}

	name := "img_" + common.UUIDBase36() + mtype.Extension()
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		zap.L().Error("create upload file failed", zap.String("namespace", "adminapi"), zap.Error(err))
		return uploadResult{Error: "Failed to save"}
	}
	written, err := io.Copy(dst, io.LimitReader(src, maxBytes+1))
	closeErr := dst.Close()
	if err != nil || closeErr != nil || written > maxBytes {
		_ = os.Remove(filepath.Join(dir, name))
		if written > maxBytes {
			return uploadResult{Error: "Too large"}
		}
		return uploadResult{Error: "Failed to save"}
	}
	zap.L().Info("image uploaded",
		zap.String("namespace", "adminapi"),
		zap.String("file", name),
		zap.String("type", mtype.String()),
		zap.Int64("size", written))
	return uploadResult{URL: ProductImagesURL + name}
}
