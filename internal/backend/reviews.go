package backend

import (
	"context"
	"strings"

	"feira/internal/apperr"
	"feira/internal/models"
)

// ReviewService records buyer reviews. A review tied to an order line needs
// the line's order to be delivered, and each line takes one review.
type ReviewService struct {
	store Store
}

func NewReviewService(store Store) *ReviewService {
	return &ReviewService{store: store}
}

// Create stores a review by buyerID. input must already be validated.
func (s *ReviewService) Create(ctx context.Context, buyerID string, input models.ReviewInput) (*models.Review, error) {
	if _, err := s.store.ProductByID(ctx, input.ProductID); err != nil {
		return nil, err
	}

	if input.OrderItemID != nil {
		item, err := s.store.OrderItemByID(ctx, *input.OrderItemID)
		if err != nil {
			return nil, err
		}
		order, err := s.store.OrderByID(ctx, item.OrderID)
		if err != nil {
			return nil, err
		}
		if order.BuyerID != buyerID {
			return nil, &apperr.NotFoundError{Resource: "order item", ID: item.ID}
		}
		if item.ProductID != input.ProductID {
			return nil, apperr.NewValidationError("productId", "o produto não corresponde ao item do pedido")
		}
		if order.Status != models.OrderStatusDelivered {
			return nil, conflict("Só é possível avaliar pedidos entregues")
		}
		if item.Reviewed {
			return nil, conflict("Você já avaliou este item")
		}
	}

	review := &models.Review{
		ProductID:   input.ProductID,
		OrderItemID: input.OrderItemID,
		UserID:      buyerID,
		Rating:      input.Rating,
		Comment:     strings.TrimSpace(input.Comment),
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) ByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	return s.store.ReviewsByProduct(ctx, productID)
}

func (s *ReviewService) ByUser(ctx context.Context, userID string) ([]models.Review, error) {
	return s.store.ReviewsByUser(ctx, userID)
}

// Delete removes one of the user's own reviews.
func (s *ReviewService) Delete(ctx context.Context, userID, id string) error {
	review, err := s.store.ReviewByID(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return &apperr.NotFoundError{Resource: "review", ID: id}
	}
	return s.store.DeleteReview(ctx, id)
}
