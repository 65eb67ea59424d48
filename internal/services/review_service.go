package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"feira/internal/apperr"
	"feira/internal/models"
	"feira/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// MsgReviewFailed is shown when the backend rejected a review without a message.
const MsgReviewFailed = "Não foi possível enviar sua avaliação. Tente novamente."

// CanReview reports whether the buyer may review item: the order was
// delivered and the line has not been reviewed yet.
func CanReview(order models.Order, item models.OrderItem) bool {
	return order.Status == models.OrderStatusDelivered && !item.Reviewed
}

// ReviewService validates and submits reviews.
type ReviewService struct {
	repo     repositories.ReviewRepository
	validate *validator.Validate
}

// NewReviewService creates a new ReviewService.
func NewReviewService(repo repositories.ReviewRepository) *ReviewService {
	return &ReviewService{repo: repo, validate: NewValidator()}
}

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate runs struct validation and converts failures to *apperr.ValidationError.
func Validate(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = fieldMessage(e)
	}
	return &apperr.ValidationError{Fields: fields}
}

func fieldMessage(e validator.FieldError) string {
	switch {
	case e.Field() == "rating":
		return "a nota deve ser um número de 1 a 5"
	case e.Tag() == "required":
		return "campo obrigatório"
	case e.Tag() == "max":
		return "deve ter no máximo " + e.Param() + " caracteres"
	case e.Tag() == "email":
		return "e-mail inválido"
	}
	return fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
}

// Submit validates input locally and creates the review. Invalid input never
// reaches the network.
func (s *ReviewService) Submit(ctx context.Context, input models.ReviewInput) (*models.Review, error) {
	input.Comment = strings.TrimSpace(input.Comment)
	if err := Validate(s.validate, input); err != nil {
		return nil, err
	}

	review, err := s.repo.Create(ctx, input)
	if err != nil {
		var srv *apperr.ServerError
		if (errors.As(err, &srv) && srv.Message != "") || apperr.IsAuth(err) {
			return nil, err
		}
		return nil, apperr.WithMessage(err, MsgReviewFailed)
	}
	return review, nil
}

func (s *ReviewService) ProductReviews(ctx context.Context, productID string) ([]models.Review, error) {
	return s.repo.ListByProduct(ctx, productID)
}

func (s *ReviewService) MyReviews(ctx context.Context) ([]models.Review, error) {
	return s.repo.ListMine(ctx)
}

func (s *ReviewService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
