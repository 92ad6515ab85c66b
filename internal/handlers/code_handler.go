package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/arzan03/codedrop/internal/middleware"
	"github.com/arzan03/codedrop/internal/models"
	"github.com/arzan03/codedrop/internal/ratelimit"
	"github.com/arzan03/codedrop/internal/services"
	"github.com/gofiber/fiber/v2"
)

var (
	codeService    *services.CodeService
	authService    *services.AuthService
	errorLimiter   *ratelimit.IPLimiter
	uploadLimiter  *ratelimit.IPLimiter
	errorThreshold int
	uploadEnabled  bool
	fileSizeLimit  int64
)

// InitCodeHandler wires the share/redeem handlers to their collaborators.
func InitCodeHandler(svc *services.CodeService, auth *services.AuthService,
	errLim, upLim *ratelimit.IPLimiter, errThreshold int, enableUpload bool, sizeLimit int64) {
	codeService = svc
	authService = auth
	errorLimiter = errLim
	uploadLimiter = upLim
	errorThreshold = errThreshold
	uploadEnabled = enableUpload
	fileSizeLimit = sizeLimit
}

// ShareHandler accepts a text or file payload plus a style/value expiry policy
// and returns the pickup code.
func ShareHandler(c *fiber.Ctx) error {
	ip := middleware.ClientIP(c)
	if uploadLimiter.IsBanned(ip) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many uploads, try again later"})
	}
	// With site-wide uploads disabled only the admin may share.
	if !uploadEnabled && !authService.VerifyPassword(c.Get("pwd")) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Uploads are disabled on this site"})
	}

	policy := services.SharePolicy{Style: c.FormValue("style")}
	if v := c.FormValue("value"); v != "" {
		value, err := strconv.Atoi(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid policy value"})
		}
		policy.Value = value
	} else {
		policy.Value = 1
	}

	var (
		rec *models.Code
		err error
	)
	if fileHeader, ferr := c.FormFile("file"); ferr == nil {
		if fileHeader.Size > fileSizeLimit {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "File too large"})
		}
		f, oerr := fileHeader.Open()
		if oerr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to open file"})
		}
		data, rerr := io.ReadAll(f)
		f.Close()
		if rerr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to read file"})
		}
		rec, err = codeService.ShareFile(c.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, policy)
	} else {
		text := c.FormValue("text")
		if text == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Nothing to share"})
		}
		rec, err = codeService.ShareText(c.Context(), text, policy)
	}

	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidSharePolicy):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, models.ErrPayloadTooLarge):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payload too large"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create share"})
		}
	}

	uploadLimiter.Add(ip)
	return c.JSON(fiber.Map{
		"message": "Share created",
		"data": fiber.Map{
			"code": rec.Code,
			"key":  rec.Key,
			"name": rec.Name,
		},
	})
}

// RedeemHandler exchanges a pickup code for its payload descriptor, consuming
// one use. Failed lookups count toward the origin's error limit.
func RedeemHandler(c *fiber.Ctx) error {
	ip := middleware.ClientIP(c)
	if errorLimiter.IsBanned(ip) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts, try again later"})
	}

	code := c.FormValue("code")
	if code == "" {
		code = c.Query("code")
	}
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing code"})
	}

	payload, err := codeService.Redeem(c.Context(), code)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"message": "Redeemed, download promptly before the code expires",
			"data":    payload,
		})
	case errors.Is(err, models.ErrCodeNotFound):
		remaining := errorThreshold - errorLimiter.Add(ip)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("Wrong code, %d attempts left before a temporary ban", remaining),
		})
	case errors.Is(err, models.ErrCodeExpired):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Code no longer valid, contact the sender"})
	case errors.Is(err, models.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage unavailable, try again later"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to redeem code"})
	}
}

// FetchHandler serves a share's content without consuming a use: text inline,
// files as a redirect to the blob URL.
func FetchHandler(c *fiber.Ctx) error {
	ip := middleware.ClientIP(c)
	if errorLimiter.IsBanned(ip) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts, try again later"})
	}

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing code"})
	}

	payload, err := codeService.Fetch(c.Context(), code)
	switch {
	case err == nil:
		if payload.Type == models.TypeText {
			return c.JSON(fiber.Map{"data": payload.Text})
		}
		return c.Redirect(payload.Text, fiber.StatusFound)
	case errors.Is(err, models.ErrCodeNotFound):
		errorLimiter.Add(ip)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Code does not exist"})
	case errors.Is(err, models.ErrCodeExpired):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Code no longer valid, contact the sender"})
	case errors.Is(err, models.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage unavailable, try again later"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch content"})
	}
}
