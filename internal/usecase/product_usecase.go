package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

const RoleVendor = "vendor"

type ProductUseCase interface {
	CreateProduct(ctx context.Context, vendorID int, role string, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id, requesterID int, role string, updates map[string]interface{}) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id, requesterID int, role string) error

	// AddReview appends a review for the verified author, enforcing one
	// review per author per product, and recomputes the product's rating
	// aggregates from the full review list.
	AddReview(ctx context.Context, productID, authorID int, authorName string, rating int, comment string) (*domain.Product, error)
}

type productUseCase struct {
	productRepo domain.ProductRepository
	log         *logrus.Logger
}

func NewProductUseCase(productRepo domain.ProductRepository, logger *logrus.Logger) ProductUseCase {
	return &productUseCase{
		productRepo: productRepo,
		log:         logger,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, vendorID int, role string, product *domain.Product) (*domain.Product, error) {
	if role != RoleVendor && role != RoleAdmin {
		return nil, domain.AuthorizationError("not authorized to create products")
	}
	if product.Name == "" {
		return nil, domain.ValidationError("product name cannot be empty")
	}
	if product.Description == "" {
		return nil, domain.ValidationError("product description cannot be empty")
	}
	if product.Price <= 0 {
		return nil, domain.ValidationError("product price must be positive")
	}
	if product.Discount < 0 || product.Discount > 100 {
		return nil, domain.ValidationError("product discount must be between 0 and 100")
	}
	if product.Stock < 0 {
		return nil, domain.ValidationError("product stock cannot be negative")
	}
	if !domain.IsValidCategory(product.Category) {
		return nil, domain.ValidationError("invalid product category: %s", product.Category)
	}
	if product.Brand == "" {
		return nil, domain.ValidationError("product brand cannot be empty")
	}
	if len(product.Images) == 0 {
		return nil, domain.ValidationError("product must have at least one image")
	}

	product.VendorID = vendorID
	uc.log.Infof("Use Case: Vendor %d creating product '%s'", vendorID, product.Name)
	created, err := uc.productRepo.CreateProduct(product)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create product '%s': %v", product.Name, err)
		return nil, err
	}
	uc.log.Infof("Use Case: Product '%s' created with ID %d", created.Name, created.ID)
	return created, nil
}

func (uc *productUseCase) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ValidationError("invalid product ID")
	}
	return uc.productRepo.GetProductByID(id)
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, id, requesterID int, role string, updates map[string]interface{}) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ValidationError("invalid product ID")
	}

	product, err := uc.productRepo.GetProductByID(id)
	if err != nil {
		return nil, err
	}
	if product.VendorID != requesterID && role != RoleAdmin {
		uc.log.Warnf("Use Case: User %d denied update of product %d owned by vendor %d", requesterID, id, product.VendorID)
		return nil, domain.AuthorizationError("not authorized to update this product")
	}
	if len(updates) == 0 {
		return product, nil
	}

	validUpdates := make(map[string]interface{})
	for key, value := range updates {
		switch key {
		case "name", "description", "brand":
			str, ok := value.(string)
			if !ok || str == "" {
				return nil, domain.ValidationError("product %s cannot be empty", key)
			}
			validUpdates[key] = str
		case "price":
			price, ok := value.(float64)
			if !ok || price <= 0 {
				return nil, domain.ValidationError("product price must be positive")
			}
			validUpdates[key] = price
		case "discount":
			discount, ok := value.(float64)
			if !ok || discount < 0 || discount > 100 {
				return nil, domain.ValidationError("product discount must be between 0 and 100")
			}
			validUpdates[key] = discount
		case "stock":
			stock, ok := toInt(value)
			if !ok || stock < 0 {
				return nil, domain.ValidationError("product stock cannot be negative")
			}
			validUpdates[key] = stock
		case "category":
			category, ok := value.(string)
			if !ok || !domain.IsValidCategory(category) {
				return nil, domain.ValidationError("invalid product category")
			}
			validUpdates[key] = category
		case "featured":
			featured, ok := value.(bool)
			if !ok {
				return nil, domain.ValidationError("featured must be a boolean")
			}
			validUpdates[key] = featured
		case "images":
			images, ok := toStringSlice(value)
			if !ok || len(images) == 0 {
				return nil, domain.ValidationError("product must have at least one image")
			}
			validUpdates[key] = images
		default:
			uc.log.Warnf("Use Case: Skipping unknown field '%s' in product %d update", key, id)
		}
	}
	if len(validUpdates) == 0 {
		return product, nil
	}

	uc.log.Infof("Use Case: Updating product %d with fields %v", id, validUpdates)
	updated, err := uc.productRepo.UpdateProduct(id, validUpdates)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to update product %d: %v", id, err)
		return nil, err
	}
	return updated, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id, requesterID int, role string) error {
	if id <= 0 {
		return domain.ValidationError("invalid product ID")
	}

	product, err := uc.productRepo.GetProductByID(id)
	if err != nil {
		return err
	}
	if product.VendorID != requesterID && role != RoleAdmin {
		uc.log.Warnf("Use Case: User %d denied deletion of product %d owned by vendor %d", requesterID, id, product.VendorID)
		return domain.AuthorizationError("not authorized to delete this product")
	}

	if err := uc.productRepo.DeleteProduct(id); err != nil {
		uc.log.Errorf("Use Case: Repository failed to delete product %d: %v", id, err)
		return err
	}
	uc.log.Infof("Use Case: Product %d deleted by user %d", id, requesterID)
	return nil
}

func (uc *productUseCase) AddReview(ctx context.Context, productID, authorID int, authorName string, rating int, comment string) (*domain.Product, error) {
	if productID <= 0 {
		return nil, domain.ValidationError("invalid product ID")
	}
	if authorID <= 0 {
		return nil, domain.ValidationError("invalid author ID")
	}
	if rating < 1 || rating > 5 {
		return nil, domain.ValidationError("rating must be an integer between 1 and 5")
	}
	if comment == "" {
		return nil, domain.ValidationError("comment cannot be empty")
	}
	if authorName == "" {
		authorName = "Anonymous"
	}

	product, err := uc.productRepo.GetProductByID(productID)
	if err != nil {
		return nil, err
	}
	if product.FindReviewByUser(authorID) != nil {
		uc.log.Warnf("Use Case: User %d already reviewed product %d", authorID, productID)
		return nil, domain.ConflictError("product already reviewed")
	}

	review := &domain.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    authorID,
		UserName:  authorName,
		Rating:    rating,
		Comment:   comment,
	}

	// Full recompute over the review list, not an incremental average, so
	// the aggregate cannot drift.
	sum := rating
	for _, r := range product.Reviews {
		sum += r.Rating
	}
	numReviews := len(product.Reviews) + 1
	newRating := float64(sum) / float64(numReviews)

	if err := uc.productRepo.AddReview(review, newRating, numReviews); err != nil {
		uc.log.Errorf("Use Case: Repository failed to add review for product %d by user %d: %v", productID, authorID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Review added for product %d by user %d (rating now %.2f over %d reviews)", productID, authorID, newRating, numReviews)
	return uc.productRepo.GetProductByID(productID)
}

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case float64:
		i := int(v)
		if float64(i) != v {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func toStringSlice(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}
