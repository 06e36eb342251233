package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/diskstore/internal/cache"
	"github.com/any-hub/diskstore/internal/logging"
)

// CacheHandler 将 /cache/<key> 上的 HTTP 方法映射到 Store 操作。
type CacheHandler struct {
	store  cache.Store
	logger *logrus.Logger
}

// NewCacheHandler 构造处理器，logger 为空时使用标准 logger。
func NewCacheHandler(store cache.Store, logger *logrus.Logger) *CacheHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CacheHandler{store: store, logger: logger}
}

// Handle 是注册到 /cache/* 的统一入口。
func (h *CacheHandler) Handle(c fiber.Ctx) error {
	started := time.Now()
	key, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return h.writeError(c, fiber.StatusBadRequest, "invalid_key")
	}

	var hit bool
	switch c.Method() {
	case http.MethodGet:
		hit, err = h.read(c, key)
	case http.MethodHead:
		hit, err = h.head(c, key)
	case http.MethodPut:
		err = h.write(c, key)
	case http.MethodPost:
		hit, err = h.fetch(c, key)
	case http.MethodDelete:
		err = h.delete(c, key)
	default:
		c.Set(fiber.HeaderAllow, "GET, HEAD, PUT, POST, DELETE")
		err = h.writeError(c, fiber.StatusMethodNotAllowed, "method_not_allowed")
	}

	h.logResult(c, key, hit, started, err)
	return err
}

func (h *CacheHandler) read(c fiber.Ctx, key string) (bool, error) {
	result, err := h.store.Read(key, checksumFrom(c))
	if err != nil {
		return false, h.writeStoreError(c, err)
	}
	return true, h.stream(c, fiber.StatusOK, result)
}

func (h *CacheHandler) head(c fiber.Ctx, key string) (bool, error) {
	if !h.store.Exists(key) {
		return false, c.SendStatus(fiber.StatusNotFound)
	}
	return true, c.SendStatus(fiber.StatusOK)
}

func (h *CacheHandler) write(c fiber.Ctx, key string) error {
	result, err := h.store.Write(key, bytes.NewReader(c.Body()), checksumFrom(c))
	if err != nil {
		return h.writeStoreError(c, err)
	}
	result.Reader.Close()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"key":  key,
		"size": result.Entry.SizeBytes,
	})
}

// fetch 以请求体作为 producer；命中时请求体被忽略。
func (h *CacheHandler) fetch(c fiber.Ctx, key string) (bool, error) {
	hit := h.store.Exists(key)
	body := c.Body()
	result, err := h.store.Fetch(key, checksumFrom(c), func() (io.Reader, error) {
		return bytes.NewReader(body), nil
	})
	if err != nil {
		return hit, h.writeStoreError(c, err)
	}
	c.Set("X-Diskstore-Cache-Hit", strconv.FormatBool(hit))
	return hit, h.stream(c, fiber.StatusOK, result)
}

func (h *CacheHandler) delete(c fiber.Ctx, key string) error {
	if _, err := h.store.Delete(key); err != nil {
		return h.writeStoreError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CacheHandler) stream(c fiber.Ctx, status int, result *cache.ReadResult) error {
	defer result.Reader.Close()

	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	c.Response().Header.SetContentLength(int(result.Entry.SizeBytes))
	c.Set(fiber.HeaderLastModified, result.Entry.ModTime.UTC().Format(http.TimeFormat))
	c.Status(status)

	if _, err := io.Copy(c.Response().BodyWriter(), result.Reader); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "read cache failed: "+err.Error())
	}
	return nil
}

func (h *CacheHandler) writeStoreError(c fiber.Ctx, err error) error {
	var mismatch *cache.ChecksumMismatchError
	switch {
	case errors.Is(err, cache.ErrNotFound):
		return h.writeError(c, fiber.StatusNotFound, "not_found")
	case errors.As(err, &mismatch):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":    "checksum_mismatch",
			"expected": mismatch.Expected,
			"actual":   mismatch.Actual,
		})
	case errors.Is(err, cache.ErrInvalidChecksum):
		return h.writeError(c, fiber.StatusBadRequest, "invalid_checksum")
	default:
		h.logger.WithError(err).WithField("request_id", RequestID(c)).Error("cache_store_failed")
		return h.writeError(c, fiber.StatusInternalServerError, "store_failed")
	}
}

func (h *CacheHandler) writeError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func (h *CacheHandler) logResult(c fiber.Ctx, key string, hit bool, started time.Time, err error) {
	fields := logging.RequestFields(RequestID(c), c.Method(), key, hit)
	fields["action"] = "cache_request"
	fields["status"] = c.Response().StatusCode()
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	entry := h.logger.WithFields(fields)
	if err != nil {
		entry.WithError(err).Warn("cache request failed")
		return
	}
	entry.Info("cache request completed")
}

// checksumFrom 优先读取 X-Checksum 头，其次是 checksum 查询参数。
func checksumFrom(c fiber.Ctx) string {
	if value := c.Request().Header.Peek("X-Checksum"); len(value) > 0 {
		return string(value)
	}
	return string(c.Request().URI().QueryArgs().Peek("checksum"))
}
