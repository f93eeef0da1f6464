package api

import (
	"context"
	"fmt"
	"net/http"

	"gala-ticketing/internal/catalog"
	"gala-ticketing/internal/logger"
	"gala-ticketing/internal/models"
	"gala-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Service interface {
	Storefront(ctx context.Context) (*catalog.Storefront, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, id string, u catalog.ProductUpdate) (*models.Product, error)
}

type Handler struct {
	Service Service
	Logger  *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// ListProducts serves the storefront grouped by category.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	front, err := h.Service.Storefront(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListProducts: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, front)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	product, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// ListAllProducts includes inactive products, for the admin catalog view.
func (h *Handler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListAll(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAllProducts: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var update catalog.ProductUpdate
	if err := utils.DecodeJSON(r, &update); err != nil {
		utils.WriteError(w, err)
		return
	}

	product, err := h.Service.Update(r.Context(), id, update)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("UpdateProduct %s: %v", id, err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}
