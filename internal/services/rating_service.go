package services

import (
	"encoding/json"
	"fmt"
	"log"

	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/pkg/rabbitmq"
)

// RatingService implements the rating upsert engine: one star rating per
// (product, user) pair, inserted on first call and updated in place on
// every later one.
type RatingService struct {
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	mqClient    *rabbitmq.Client
}

// NewRatingService creates a new RatingService.
func NewRatingService(productRepo repositories.ProductRepository, userRepo repositories.UserRepository, mqClient *rabbitmq.Client) *RatingService {
	return &RatingService{
		productRepo: productRepo,
		userRepo:    userRepo,
		mqClient:    mqClient,
	}
}

// Rate records the caller's star rating for a product. The caller is
// identified by the email claim of their token; it is resolved to the
// persistent user ID stored on the rating entry. Both the product and the
// user must exist. The write itself is a single conditional upsert, so
// repeated or concurrent calls always leave exactly one entry for the user.
func (s *RatingService) Rate(productID, email string, star int) (*models.Product, error) {
	if star < 1 || star > 5 {
		return nil, fmt.Errorf("%w: star must be between 1 and 5", ErrInvalidInput)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}

	rated, err := s.productRepo.UpsertRating(product.ID, user.ID, star)
	if err != nil {
		return nil, err
	}

	s.publishRated(rated, user.ID, star)
	return rated, nil
}

// publishRated emits a product.rated event. Publish failures are logged and
// do not fail the rating operation.
func (s *RatingService) publishRated(product *models.Product, userID string, star int) {
	if s.mqClient == nil {
		log.Println("RabbitMQ client is not initialized. Skipping message publication.")
		return
	}

	event := map[string]interface{}{
		"productID": product.ID,
		"userID":    userID,
		"star":      star,
		"ratings":   len(product.Ratings),
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal rating event to JSON: %v", err)
		return
	}
	if err := s.mqClient.Publish("catalog", "product.rated", body); err != nil {
		log.Printf("Warning: Failed to publish rating event for product %s: %v", product.ID, err)
	} else {
		log.Printf("Successfully published rating event for product %s", product.ID)
	}
}
