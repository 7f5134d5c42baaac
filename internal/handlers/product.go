package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lojinha/apiserver/internal/services"
	"github.com/lojinha/apiserver/internal/store"
)

const (
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 10 << 20
	formFieldName      = "name"
	formFieldPrice     = "price"
	formFieldDesc      = "description"
	formFieldImageURL  = "imageUrl"
	formFieldImage     = "image"
)

// ProductHandler provides HTTP handlers for the product catalog.
type ProductHandler struct {
	catalog *services.CatalogService
}

// NewProductHandler constructs a handler with the provided service.
func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// ProductRouter registers product routes on the given router. Reads are
// public; every mutation sits behind the auth and admin middleware.
func ProductRouter(
	r chi.Router,
	catalog *services.CatalogService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewProductHandler(catalog)

	r.Get("/", handler.ListProducts)
	r.With(authMiddleware, RequireAdmin).Post("/", handler.CreateProduct)
	r.Route("/{productID}", func(r chi.Router) {
		r.Get("/", handler.GetProduct)
		r.With(authMiddleware, RequireAdmin).Put("/", handler.UpdateProduct)
		r.With(authMiddleware, RequireAdmin).Delete("/", handler.DeleteProduct)
	})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeErrorDetail(w, http.StatusInternalServerError, "failed to list products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeErrorDetail(w, http.StatusInternalServerError, "failed to fetch product", err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := parseProductRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if form.Name == nil || strings.TrimSpace(*form.Name) == "" || form.Price == nil || form.Image == nil {
		writeError(w, http.StatusBadRequest, "please supply name, price and an image")
		return
	}
	if *form.Price <= 0 {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	req := services.CreateProduct{
		Name:  strings.TrimSpace(*form.Name),
		Price: *form.Price,
		Image: *form.Image,
	}
	if form.Description != nil {
		req.Description = *form.Description
	}

	created, err := h.catalog.Create(r.Context(), req)
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	form, err := parseProductRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if form.Price != nil && *form.Price <= 0 {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	updated, err := h.catalog.Update(r.Context(), id, services.UpdateProduct{
		Name:        form.Name,
		Price:       form.Price,
		Description: form.Description,
		Image:       form.Image,
	})
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeErrorDetail(w, http.StatusInternalServerError, "failed to delete product", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// productForm is the parsed upsert payload. Nil fields were absent from the
// request, which matters for partial updates.
type productForm struct {
	Name        *string
	Price       *float64
	Description *string
	Image       *services.ImageSource
}

func parseProductID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "productID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}

// parseProductRequest accepts either a JSON body (image by URL only) or a
// multipart form (image by URL or file upload).
func parseProductRequest(r *http.Request) (productForm, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return parseProductMultipart(r)
	}
	return parseProductJSON(r)
}

func parseProductJSON(r *http.Request) (productForm, error) {
	var req struct {
		Name        *string  `json:"name"`
		Price       *float64 `json:"price"`
		ImageURL    *string  `json:"imageUrl"`
		Description *string  `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return productForm{}, errors.New("invalid request body")
	}

	form := productForm{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
	}
	if req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) != "" {
		form.Image = &services.ImageSource{URL: strings.TrimSpace(*req.ImageURL)}
	}
	return form, nil
}

func parseProductMultipart(r *http.Request) (productForm, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return productForm{}, errors.New("invalid multipart form")
	}

	form := productForm{}
	if values, ok := r.MultipartForm.Value[formFieldName]; ok && len(values) > 0 {
		name := values[0]
		form.Name = &name
	}
	if values, ok := r.MultipartForm.Value[formFieldDesc]; ok && len(values) > 0 {
		description := values[0]
		form.Description = &description
	}
	if values, ok := r.MultipartForm.Value[formFieldPrice]; ok && len(values) > 0 {
		price, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
		if err != nil {
			return productForm{}, errors.New("invalid price")
		}
		form.Price = &price
	}

	image, err := parseImageSource(r.MultipartForm)
	if err != nil {
		return productForm{}, err
	}
	form.Image = image

	return form, nil
}

func parseImageSource(form *multipart.Form) (*services.ImageSource, error) {
	files := form.File[formFieldImage]
	if len(files) > 1 {
		return nil, errors.New("only one image file is allowed")
	}
	if len(files) == 1 {
		fileHeader := files[0]
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to read image file: %w", err)
		}

		data, err := readFileLimited(file, maxImageBytes)
		_ = file.Close()
		if err != nil {
			return nil, err
		}

		return &services.ImageSource{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	}

	if values, ok := form.Value[formFieldImageURL]; ok && len(values) > 0 {
		url := strings.TrimSpace(values[0])
		if url != "" {
			return &services.ImageSource{URL: url}, nil
		}
	}
	return nil, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrImageRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, services.ErrImageUpload):
		writeErrorDetail(w, http.StatusInternalServerError, "failed to upload image", err)
	default:
		writeErrorDetail(w, http.StatusInternalServerError, "failed to save product", err)
	}
}
