package customer

import (
	"context"
	"errors"

	"github.com/KOMKZ/yogan-market/errcode"
	"github.com/KOMKZ/yogan-market/event"
	"github.com/KOMKZ/yogan-market/logger"
	"github.com/KOMKZ/yogan-market/merge"
	"go.uber.org/zap"
)

// Publisher publishes envelopes; false means the event was lost
type Publisher interface {
	PublishEvent(ctx context.Context, routingKey string, env *event.Envelope) bool
}

// Service mutates customer profiles on behalf of HTTP callers and
// notifies the services bound to its routing keys.
type Service struct {
	repo        Repository
	publisher   Publisher
	routingKeys []string
	mode        WishlistMode
	logger      *logger.CtxZapLogger
}

// NewService creates the customer service
func NewService(repo Repository, publisher Publisher, cfg Config, log *logger.CtxZapLogger) *Service {
	if log == nil {
		log = logger.GetLogger("customer")
	}
	return &Service{
		repo:        repo,
		publisher:   publisher,
		routingKeys: cfg.PublishRoutingKeys,
		mode:        cfg.WishlistMode,
		logger:      log,
	}
}

// GetProfile returns the profile of userID
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, errcode.ErrProfileNotFound.Wrap(err)
	}
	if err != nil {
		return nil, errcode.ErrStorage.Wrap(err)
	}
	return p, nil
}

// UpdateWishlist adds product (toggles it in toggle mode) or removes it.
// ADD_TO_WISHLIST or REMOVE_FROM_WISHLIST is published only when membership
// changed, so toggling consumers never flip an entry the customer lacks.
func (s *Service) UpdateWishlist(ctx context.Context, userID string, product event.Product, remove bool) (*Profile, error) {
	var wasPresent, isPresent bool
	p, err := s.repo.Update(ctx, userID, func(p *Profile) error {
		wasPresent = merge.ContainsWishlist(p.Wishlist, product.ID)
		if remove {
			p.Wishlist = merge.RemoveWishlist(p.Wishlist, product.ID)
		} else {
			p.Wishlist = ApplyWishlistEvent(p.Wishlist, product.WishlistEntry(), false, s.mode)
		}
		isPresent = merge.ContainsWishlist(p.Wishlist, product.ID)
		return nil
	})
	if err != nil {
		return nil, errcode.ErrStorage.Wrap(err)
	}

	if wasPresent == isPresent {
		s.logger.DebugCtx(ctx, "Wishlist unchanged, nothing published",
			zap.String("user_id", userID),
			zap.String("product_id", product.ID))
		return p, nil
	}

	eventType := event.AddToWishlist
	if wasPresent {
		eventType = event.RemoveFromWishlist
	}
	s.publish(ctx, eventType, event.Payload{UserID: userID, Product: &product})
	return p, nil
}

// UpdateCart sets the quantity of product, or removes its line, and
// publishes ADD_TO_CART or REMOVE_FROM_CART.
func (s *Service) UpdateCart(ctx context.Context, userID string, product event.Product, qty int, remove bool) (*Profile, error) {
	p, err := s.repo.Update(ctx, userID, func(p *Profile) error {
		p.Cart = merge.ApplyCart(p.Cart, product.CartRef(), qty, remove)
		return nil
	})
	if err != nil {
		return nil, errcode.ErrStorage.Wrap(err)
	}

	eventType := event.AddToCart
	if remove {
		eventType = event.RemoveFromCart
	}
	s.publish(ctx, eventType, event.Payload{UserID: userID, Product: &product, Qty: qty})
	return p, nil
}

// publish fans out to every routing key; failures are logged by the
// publisher and never surface to the caller
func (s *Service) publish(ctx context.Context, eventType event.EventType, payload event.Payload) {
	if s.publisher == nil {
		return
	}
	for _, key := range s.routingKeys {
		env := event.NewEnvelope(eventType, payload)
		if !s.publisher.PublishEvent(ctx, key, env) {
			s.logger.WarnCtx(ctx, "⚠️  Mutation persisted but event not published",
				zap.String("event", string(eventType)),
				zap.String("routing_key", key),
				zap.String("user_id", payload.UserID))
		}
	}
}
