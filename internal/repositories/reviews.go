package repositories

import (
	"context"
	"net/http"

	"feira/internal/apiclient"
	"feira/internal/apperr"
	"feira/internal/models"
)

// ReviewRepository defines the review endpoints.
type ReviewRepository interface {
	Create(ctx context.Context, input models.ReviewInput) (*models.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
	ListMine(ctx context.Context) ([]models.Review, error)
	Delete(ctx context.Context, id string) error
}

// HTTPReviewRepository implements ReviewRepository over /reviews.
type HTTPReviewRepository struct {
	client *apiclient.Client
}

func NewHTTPReviewRepository(client *apiclient.Client) *HTTPReviewRepository {
	return &HTTPReviewRepository{client: client}
}

func (r *HTTPReviewRepository) Create(ctx context.Context, input models.ReviewInput) (*models.Review, error) {
	var review models.Review
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/reviews", Body: input}, &review)
	if err != nil {
		return nil, wrap("failed to create review", err)
	}
	return &review, nil
}

func (r *HTTPReviewRepository) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/reviews/products/" + escape(productID)}, &reviews)
	if err != nil {
		return nil, wrap("failed to list product reviews", err)
	}
	return reviews, nil
}

func (r *HTTPReviewRepository) ListMine(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/reviews/me"}, &reviews)
	if err != nil {
		return nil, wrap("failed to list my reviews", err)
	}
	return reviews, nil
}

func (r *HTTPReviewRepository) Delete(ctx context.Context, id string) error {
	err := r.client.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: "/reviews/" + escape(id)}, nil)
	if apperr.IsNotFound(err) {
		err = &apperr.NotFoundError{Resource: "review", ID: id}
	}
	return wrap("failed to delete review "+id, err)
}
