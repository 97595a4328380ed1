package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/arman-rs/ClinicAppBack/internal/models"
	"github.com/arman-rs/ClinicAppBack/internal/repository"
)

type childStore interface {
	Create(ctx context.Context, input repository.CreateChildInput) (*models.Child, error)
	GetByID(ctx context.Context, childID int64) (*models.Child, error)
	ListByParent(ctx context.Context, parentID int64) ([]models.Child, error)
}

type ChildHandler struct {
	childRepo childStore
}

func NewChildHandler(childRepo childStore) *ChildHandler {
	return &ChildHandler{childRepo: childRepo}
}

type createChildRequest struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth string    `json:"date_of_birth"`
	Concerns    *[]string `json:"concerns"`
}

func (h *ChildHandler) CreateChild(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "parent" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	parentID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createChildRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if strings.TrimSpace(req.FirstName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "first_name is required"})
	}
	if strings.TrimSpace(req.LastName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "last_name is required"})
	}
	dateOfBirth, err := time.Parse("2006-01-02", strings.TrimSpace(req.DateOfBirth))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_of_birth must be a YYYY-MM-DD date"})
	}
	if !dateOfBirth.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date_of_birth must be in the past"})
	}
	if req.Concerns != nil {
		for _, concern := range *req.Concerns {
			if strings.TrimSpace(concern) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "concerns must not contain empty values"})
			}
		}
	}

	child, err := h.childRepo.Create(c.Context(), repository.CreateChildInput{
		ParentID:    parentID,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		DateOfBirth: dateOfBirth,
		Concerns:    req.Concerns,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create child record"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"child": child})
}

func (h *ChildHandler) ListChildren(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "parent" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	parentID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	children, err := h.childRepo.ListByParent(c.Context(), parentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch children"})
	}

	return c.JSON(fiber.Map{"children": children})
}

func (h *ChildHandler) GetChild(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "parent" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	parentID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	childID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || childID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid child id"})
	}

	child, err := h.childRepo.GetByID(c.Context(), childID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Child not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch child"})
	}
	if child.ParentID != parentID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	return c.JSON(fiber.Map{"child": child})
}
