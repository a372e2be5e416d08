package handlers

import (
	"ecom/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CategoryRequest is the body of category writes.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=3,max=100"`
}

// CatalogHandler handles HTTP requests for categories and products.
type CatalogHandler struct {
	categories *services.CategoryService
	products   *services.ProductService
	validate   *validator.Validate
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(categories *services.CategoryService, products *services.ProductService) *CatalogHandler {
	return &CatalogHandler{
		categories: categories,
		products:   products,
		validate:   validator.New(),
	}
}

// RegisterRoutes registers the public catalog, administration and seller routes.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	public := router.Group("/public")
	public.Get("/categories", h.HandleGetCategories)
	public.Get("/categories/:id/products", h.HandleGetProductsByCategory)
	public.Get("/products", h.HandleGetProducts)
	public.Get("/products/keyword/:keyword", h.HandleSearchProducts)
	public.Get("/products/:id", h.HandleGetProductByID)

	admin := router.Group("/admin")
	admin.Post("/categories", h.HandleCreateCategory)
	admin.Put("/categories/:id", h.HandleUpdateCategory)
	admin.Delete("/categories/:id", h.HandleDeleteCategory)
	admin.Post("/categories/:id/product", h.HandleCreateProduct)
	admin.Put("/products/:id", h.HandleUpdateProduct)
	admin.Delete("/products/:id", h.HandleDeleteProduct)

	seller := router.Group("/seller")
	seller.Get("/products", h.HandleGetSellerProducts)
	seller.Post("/categories/:id/product", h.HandleCreateProduct)
	seller.Put("/products/:id", h.HandleUpdateProduct)
	seller.Delete("/products/:id", h.HandleDeleteProduct)
}

// HandleGetCategories returns one page of categories.
func (h *CatalogHandler) HandleGetCategories(c *fiber.Ctx) error {
	page, err := h.categories.ListCategories(c.UserContext(), pageQuery(c, "name"))
	if err != nil {
		return respondError(c, err, "Could not retrieve categories")
	}
	return c.JSON(page)
}

// HandleCreateCategory creates a category.
func (h *CatalogHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	category, err := h.categories.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return respondError(c, err, "Could not create category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleUpdateCategory renames a category.
func (h *CatalogHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	category, err := h.categories.UpdateCategory(c.UserContext(), c.Params("id"), req.Name)
	if err != nil {
		return respondError(c, err, "Could not update category")
	}
	return c.JSON(category)
}

// HandleDeleteCategory deletes a category with its products.
func (h *CatalogHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	category, err := h.categories.DeleteCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not delete category")
	}
	return c.JSON(category)
}

// HandleGetProducts returns one page of all products.
func (h *CatalogHandler) HandleGetProducts(c *fiber.Ctx) error {
	page, err := h.products.GetAllProducts(c.UserContext(), pageQuery(c, "name"))
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(page)
}

// HandleGetProductsByCategory returns one page of the products of a category.
func (h *CatalogHandler) HandleGetProductsByCategory(c *fiber.Ctx) error {
	page, err := h.products.GetProductsByCategory(c.UserContext(), c.Params("id"), pageQuery(c, "name"))
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(page)
}

// HandleSearchProducts returns one page of the products matching a keyword.
func (h *CatalogHandler) HandleSearchProducts(c *fiber.Ctx) error {
	page, err := h.products.SearchProducts(c.UserContext(), c.Params("keyword"), pageQuery(c, "name"))
	if err != nil {
		return respondError(c, err, "Could not search products")
	}
	return c.JSON(page)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *CatalogHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.products.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// HandleGetSellerProducts returns one page of the caller's own listings.
func (h *CatalogHandler) HandleGetSellerProducts(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	page, err := h.products.GetSellerProducts(c.UserContext(), p, pageQuery(c, "name"))
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(page)
}

// HandleCreateProduct lists a new product under the category in the path.
func (h *CatalogHandler) HandleCreateProduct(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	var in services.ProductInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	product, err := h.products.CreateProduct(c.UserContext(), p, c.Params("id"), in)
	if err != nil {
		return respondError(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates a product the caller may modify.
func (h *CatalogHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	var in services.ProductInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}
	product, err := h.products.UpdateProduct(c.UserContext(), p, c.Params("id"), in)
	if err != nil {
		return respondError(c, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product the caller may modify.
func (h *CatalogHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	p, err := currentPrincipal(c)
	if p == nil {
		return err
	}
	product, err := h.products.DeleteProduct(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not delete product")
	}
	return c.JSON(product)
}
