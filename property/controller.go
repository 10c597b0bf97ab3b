package property

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/jaypops/Thrillway-Global-Concept-Backend/auth"
	"github.com/jaypops/Thrillway-Global-Concept-Backend/storage"
)

// Controller exposes the listing CRUD and the upload URL endpoint.
type Controller struct {
	Logger auth.Logger
	repo   Properties
	signer storage.UploadURLSigner
}

func NewController(repo Properties, signer storage.UploadURLSigner, logger auth.Logger) *Controller {
	return &Controller{
		Logger: logger,
		repo:   repo,
		signer: signer,
	}
}

// RegisterRoutes mounts the listing routes. Reads and writes require a
// session; the destructive delete-all is admin only. The route spelling
// follows the public API contract.
func (ctrl *Controller) RegisterRoutes(app fiber.Router, authenticated fiber.Handler, adminOnly fiber.Handler) {
	app.Post("/propertys", authenticated, ctrl.Create)
	app.Get("/propertys", authenticated, ctrl.List)
	app.Get("/propertys/:id", authenticated, ctrl.Get)
	app.Patch("/propertys/:id", authenticated, ctrl.Patch)
	app.Delete("/propertys/:id", authenticated, ctrl.Delete)
	app.Delete("/propertys", authenticated, adminOnly, ctrl.DeleteAll)

	app.Get("/s3Url", authenticated, ctrl.UploadURL)
}

// CreatePayload is the listing creation body
type CreatePayload struct {
	Title        string   `json:"title" form:"title"`
	Description  string   `json:"description" form:"description"`
	Price        float64  `json:"price" form:"price"`
	PriceType    string   `json:"priceType" form:"priceType"`
	Status       string   `json:"status" form:"status"`
	Address      string   `json:"address" form:"address"`
	Rooms        int      `json:"rooms" form:"rooms"`
	Bathrooms    int      `json:"bathrooms" form:"bathrooms"`
	PropertyType string   `json:"propertyType" form:"propertyType"`
	PropertySize float64  `json:"propertySize" form:"propertySize"`
	IsAvailable  *bool    `json:"isAvailable" form:"isAvailable"`
	Features     Features `json:"features" form:"features"`
	Images       []string `json:"images" form:"images"`
	Documents    []string `json:"documents" form:"documents"`
}

// Validate will validate the payload
func (r CreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(5, 200)),
		validation.Field(&r.Description, validation.Required, validation.Length(20, 5000)),
		validation.Field(&r.Price, validation.Required, validation.Min(0.0)),
		validation.Field(&r.PriceType, validation.Required),
		validation.Field(&r.Status, validation.Required),
		validation.Field(&r.Address, validation.Required, validation.Length(3, 500)),
		validation.Field(&r.PropertyType, validation.Required),
		validation.Field(&r.PropertySize, validation.Required, validation.Min(0.0)),
	)
}

func (ctrl *Controller) Create(c *fiber.Ctx) error {
	payload := new(CreatePayload)
	if err := c.BodyParser(payload); err != nil {
		ctrl.Logger.Error("property create parse payload: %v", err)
		return ctrl.writeError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		ctrl.Logger.Error("property create validate payload: %v", err)
		return ctrl.writeError(c, err)
	}

	available := true
	if payload.IsAvailable != nil {
		available = *payload.IsAvailable
	}

	record, err := ctrl.repo.Create(c.Context(), &Property{
		Title:        payload.Title,
		Description:  payload.Description,
		Price:        payload.Price,
		PriceType:    payload.PriceType,
		Status:       payload.Status,
		Address:      payload.Address,
		Rooms:        payload.Rooms,
		Bathrooms:    payload.Bathrooms,
		PropertyType: payload.PropertyType,
		PropertySize: payload.PropertySize,
		IsAvailable:  available,
		Features:     payload.Features,
		Images:       payload.Images,
		Documents:    payload.Documents,
	})
	if err != nil {
		ctrl.Logger.Error("property create: %v", err)
		return ctrl.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"property": record,
	})
}

func (ctrl *Controller) List(c *fiber.Ctx) error {
	records, err := ctrl.repo.List(c.Context())
	if err != nil {
		ctrl.Logger.Error("property list: %v", err)
		return ctrl.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"properties": records,
	})
}

func (ctrl *Controller) Get(c *fiber.Ctx) error {
	id, err := ctrl.paramID(c)
	if err != nil {
		return ctrl.writeError(c, err)
	}

	record, err := ctrl.repo.GetByPropertyID(c.Context(), id)
	if err != nil {
		return ctrl.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"property": record,
	})
}

// PatchPayload is the partial update body. Pointer fields distinguish an
// omitted field from an explicit zero.
type PatchPayload struct {
	Title        *string   `json:"title" form:"title"`
	Description  *string   `json:"description" form:"description"`
	Price        *float64  `json:"price" form:"price"`
	PriceType    *string   `json:"priceType" form:"priceType"`
	Status       *string   `json:"status" form:"status"`
	Address      *string   `json:"address" form:"address"`
	Rooms        *int      `json:"rooms" form:"rooms"`
	Bathrooms    *int      `json:"bathrooms" form:"bathrooms"`
	PropertyType *string   `json:"propertyType" form:"propertyType"`
	PropertySize *float64  `json:"propertySize" form:"propertySize"`
	IsAvailable  *bool     `json:"isAvailable" form:"isAvailable"`
	Features     *Features `json:"features" form:"features"`
	Images       []string  `json:"images" form:"images"`
	Documents    []string  `json:"documents" form:"documents"`
}

// Validate will validate the payload
func (r PatchPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(5, 200)),
		validation.Field(&r.Description, validation.Length(20, 5000)),
		validation.Field(&r.Address, validation.Length(3, 500)),
	)
}

func (r PatchPayload) apply(record *Property) {
	if r.Title != nil {
		record.Title = *r.Title
	}
	if r.Description != nil {
		record.Description = *r.Description
	}
	if r.Price != nil {
		record.Price = *r.Price
	}
	if r.PriceType != nil {
		record.PriceType = *r.PriceType
	}
	if r.Status != nil {
		record.Status = *r.Status
	}
	if r.Address != nil {
		record.Address = *r.Address
	}
	if r.Rooms != nil {
		record.Rooms = *r.Rooms
	}
	if r.Bathrooms != nil {
		record.Bathrooms = *r.Bathrooms
	}
	if r.PropertyType != nil {
		record.PropertyType = *r.PropertyType
	}
	if r.PropertySize != nil {
		record.PropertySize = *r.PropertySize
	}
	if r.IsAvailable != nil {
		record.IsAvailable = *r.IsAvailable
	}
	if r.Features != nil {
		record.Features = *r.Features
	}
	if r.Images != nil {
		record.Images = r.Images
	}
	if r.Documents != nil {
		record.Documents = r.Documents
	}
}

func (ctrl *Controller) Patch(c *fiber.Ctx) error {
	id, err := ctrl.paramID(c)
	if err != nil {
		return ctrl.writeError(c, err)
	}

	payload := new(PatchPayload)
	if err := c.BodyParser(payload); err != nil {
		ctrl.Logger.Error("property patch parse payload: %v", err)
		return ctrl.writeError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctrl.writeError(c, err)
	}

	record, err := ctrl.repo.GetByPropertyID(c.Context(), id)
	if err != nil {
		return ctrl.writeError(c, err)
	}

	payload.apply(record)

	updated, err := ctrl.repo.Patch(c.Context(), record)
	if err != nil {
		ctrl.Logger.Error("property patch: %v", err)
		return ctrl.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"property": updated,
	})
}

func (ctrl *Controller) Delete(c *fiber.Ctx) error {
	id, err := ctrl.paramID(c)
	if err != nil {
		return ctrl.writeError(c, err)
	}

	if err := ctrl.repo.DeleteByID(c.Context(), id); err != nil {
		return ctrl.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Property deleted successfully",
	})
}

func (ctrl *Controller) DeleteAll(c *fiber.Ctx) error {
	deleted, err := ctrl.repo.DeleteAll(c.Context())
	if err != nil {
		ctrl.Logger.Error("property delete all: %v", err)
		return ctrl.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"deleted": deleted,
	})
}

// UploadURL hands out a short-lived pre-signed PUT URL. The client uploads
// directly to the bucket and sends the resulting object URL with the
// listing payload.
func (ctrl *Controller) UploadURL(c *fiber.Ctx) error {
	if ctrl.signer == nil {
		return ctrl.writeError(c, goerrors.New("uploads are not configured", goerrors.CategoryOperation))
	}

	url, err := ctrl.signer.GenerateUploadURL(c.Context(), c.Query("fileType", "general"))
	if err != nil {
		ctrl.Logger.Error("upload URL: %v", err)
		return ctrl.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"uploadURL": url,
	})
}

func (ctrl *Controller) paramID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, goerrors.New("invalid property id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}

func (ctrl *Controller) writeError(c *fiber.Ctx, err error) error {
	status := auth.StatusForError(err)

	body := fiber.Map{
		"success": false,
		"message": err.Error(),
	}

	var verrs validation.Errors
	if goerrors.As(err, &verrs) {
		body["errors"] = verrs
	}

	return c.Status(status).JSON(body)
}
