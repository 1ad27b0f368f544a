package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	applog "medimart/internal/log"
	"medimart/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	Dir      string
	MaxBytes int
}

// POST /api/upload
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file uploaded")
	}
	if h.MaxBytes > 0 && fh.Size > int64(h.MaxBytes) {
		applog.Security(c, "upload.too_large", map[string]any{"size": fh.Size})
		return badRequest(c, "File too large")
	}
	base, ok := validate.FileName(fh.Filename)
	if !ok {
		return badRequest(c, "Invalid file name")
	}
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return fail(c, "upload.mkdir", err, "Upload failed")
	}
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), base)
	if err := c.SaveFile(fh, filepath.Join(h.Dir, name)); err != nil {
		return fail(c, "upload.save", err, "Upload failed")
	}
	applog.Info(c, "upload.saved", map[string]any{"file": name, "size": fh.Size})
	return c.JSON(fiber.Map{"url": "/uploads/" + name})
}
