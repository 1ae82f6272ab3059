package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/config"
	"tableserve-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

type hostResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
}

// POST /api/uploads/image (admin) — validates the multipart image and
// forwards it to the configured image host, returning the hosted URL.
func ImageHandler(cfg *config.Config) fiber.Handler {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			return apperr.Validation("validation failed",
				apperr.FieldError{Field: "image", Message: "is required"})
		}
		if fileHeader.Size > cfg.MaxUploadSize {
			return apperr.Validation("validation failed",
				apperr.FieldError{Field: "image", Message: fmt.Sprintf("must be at most %d bytes", cfg.MaxUploadSize)})
		}

		file, err := fileHeader.Open()
		if err != nil {
			return apperr.Internal("failed to open upload", err)
		}
		defer file.Close()

		head := make([]byte, 512)
		n, _ := io.ReadFull(file, head)
		contentType := http.DetectContentType(head[:n])
		if _, ok := allowedTypes[contentType]; !ok {
			return apperr.Validation("validation failed",
				apperr.FieldError{Field: "image", Message: "must be a jpeg, png or webp image"})
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return apperr.Internal("failed to rewind upload", err)
		}

		url, err := forward(client, cfg, fileHeader.Filename, file)
		if err != nil {
			return apperr.Internal("image host upload failed", err)
		}

		return httpx.Success(c, fiber.StatusCreated, fiber.Map{"url": url})
	}
}

func forward(client *http.Client, cfg *config.Config, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.WriteField("key", cfg.ImageHostKey); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, cfg.ImageHostURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("image host returned %d: %s", resp.StatusCode, body)
	}

	var hostRes hostResponse
	if err := json.NewDecoder(resp.Body).Decode(&hostRes); err != nil {
		return "", err
	}
	if !hostRes.Success || hostRes.Data.URL == "" {
		return "", fmt.Errorf("image host rejected the upload")
	}
	return hostRes.Data.URL, nil
}
