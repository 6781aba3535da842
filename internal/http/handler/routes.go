package handler

import (
	"context"
	"database/sql"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"compliancehub/internal/auth"
	"compliancehub/internal/http/middleware"
	"compliancehub/internal/model"
	"compliancehub/internal/service"
)

type loginRequest struct {
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	FactoryID string `json:"factoryId"`
}

type createRequestBody struct {
	Title         string   `json:"title"`
	FactoryUserID string   `json:"factoryUserId"`
	ItemDocTypes  []string `json:"itemDocTypes"`
}

type fulfillBody struct {
	VersionID string `json:"versionId"`
}

type rejectBody struct {
	Notes string `json:"notes"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin: parse, delegate to a service, translate errors.
func RegisterRoutes(app *fiber.App, db *sql.DB, authSvc *auth.Service, evidenceSvc service.EvidenceService, requestSvc service.RequestService, auditSvc service.AuditService) {
	// New health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Backward-compatible simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Post("/auth/login", func(c *fiber.Ctx) error {
		var body loginRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := authSvc.Login(c.UserContext(), auth.LoginInput{
			UserID:    body.UserID,
			Role:      model.Role(body.Role),
			FactoryID: body.FactoryID,
			IPAddress: c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"access":  res.Tokens.Access,
			"refresh": res.Tokens.Refresh,
			"user":    res.User,
		})
	})

	authed := app.Group("", middleware.Auth(authSvc))

	// Evidence

	authed.Get("/evidence", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		items, err := evidenceSvc.ListEvidence(c.UserContext(), actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	})

	authed.Post("/evidence", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		name := c.FormValue("name")
		docType := c.FormValue("doc_type")
		in, fileCloser, err := versionInputFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", err.Error())
		}
		defer fileCloser()

		ev, ver, err := evidenceSvc.CreateEvidence(c.UserContext(), actor, name, docType, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"evidence": ev,
			"version":  ver,
		})
	})

	authed.Get("/evidence/:id/versions", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		versions, err := evidenceSvc.ListVersions(c.UserContext(), id, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": versions})
	})

	authed.Post("/evidence/:id/versions", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		in, fileCloser, err := versionInputFromForm(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", err.Error())
		}
		defer fileCloser()

		ver, err := evidenceSvc.AddVersion(c.UserContext(), id, actor, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ver)
	})

	authed.Get("/versions/:id/download", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := evidenceSvc.DownloadURL(c.UserContext(), id, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	})

	// Requests

	authed.Post("/requests", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		var body createRequestBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		req, err := requestSvc.CreateRequest(c.UserContext(), actor, body.FactoryUserID, body.Title, body.ItemDocTypes)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	})

	authed.Get("/requests", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		items, err := requestSvc.ListRequests(c.UserContext(), actor, model.RequestStatus(c.Query("status")))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	})

	authed.Get("/requests/:id", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		req, err := requestSvc.GetRequest(c.UserContext(), id, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	})

	authed.Post("/requests/:id/items/:itemId/fulfill", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		id, itemID := c.Params("id"), c.Params("itemId")
		var body fulfillBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		req, err := requestSvc.FulfillItem(c.UserContext(), id, itemID, actor, body.VersionID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	})

	authed.Post("/requests/:id/items/:itemId/reject", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		id, itemID := c.Params("id"), c.Params("itemId")
		var body rejectBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		req, err := requestSvc.RejectItem(c.UserContext(), id, itemID, actor, body.Notes)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	})

	authed.Post("/requests/:id/cancel", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		req, err := requestSvc.CancelRequest(c.UserContext(), id, actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(req)
	})

	authed.Get("/factory/requests/pending", func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		if !actor.IsFactory() {
			return c.JSON(fiber.Map{"data": []model.Request{}})
		}
		items, err := requestSvc.ListRequests(c.UserContext(), actor, model.RequestPending)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items})
	})

	// Audit trail

	authed.Get("/audit", func(c *fiber.Ctx) error {
		page, err := strconv.Atoi(c.Query("page", "1"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		pageSize, err := strconv.Atoi(c.Query("page_size", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_SIZE", "invalid page_size")
		}
		res, err := auditSvc.ListEntries(c.UserContext(), page, pageSize)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	})
}

// versionInputFromForm reads the shared multipart fields for version
// creation: notes, expiry_date (YYYY-MM-DD) and the file itself. The returned
// closer is always safe to defer.
func versionInputFromForm(c *fiber.Ctx) (service.VersionInput, func(), error) {
	in := service.VersionInput{Notes: c.FormValue("notes")}
	noop := func() {}

	if raw := c.FormValue("expiry_date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return in, noop, fiber.NewError(fiber.StatusBadRequest, "invalid expiry_date")
		}
		in.ExpiryDate = &d
	}

	fh, err := c.FormFile("file")
	if err != nil {
		// The service decides whether a missing file is acceptable.
		return in, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return in, noop, fiber.NewError(fiber.StatusBadRequest, "cannot open uploaded file")
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	in.File = f
	in.Filename = fh.Filename
	in.ContentType = ct
	in.Size = fh.Size
	return in, func() { closeFile(f) }, nil
}

func closeFile(f multipart.File) {
	_ = f.Close()
}
