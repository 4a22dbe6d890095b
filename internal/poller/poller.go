package poller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fjod/go_cart/storefront-session/internal/cart"
	"github.com/segmentio/kafka-go"
)

const (
	CheckoutTopic = "checkout-outbox"
	GroupID       = "storefront-session-consumer"
)

// CartFinder looks up the cart of a live session
type CartFinder interface {
	Cart(sessionID string) (*cart.Cart, bool)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller empties the cart of every session whose checkout completed
type Poller struct {
	carts  CartFinder
	reader messageReader
}

func NewPoller(carts CartFinder, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    CheckoutTopic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{carts, reader}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.getMessageAndClearCart(ctx)
	}
}

func (p *Poller) Close() {
	err := p.reader.Close()
	if err != nil {
		fmt.Printf("error closing reader: %v\n", err)
	}
}

type checkoutCompleted struct {
	CheckoutID string `json:"checkout_id"`
	SessionID  string `json:"session_id"`
}

func (p *Poller) getMessageAndClearCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			fmt.Printf("error reading message: %v\n", err)
		}
		return
	}
	p.handle(m)
}

// handle reports whether a cart was cleared
func (p *Poller) handle(m kafka.Message) bool {
	var payload checkoutCompleted
	if errUnMarshal := json.Unmarshal(m.Value, &payload); errUnMarshal != nil {
		fmt.Printf("error parsing message: %v\n", errUnMarshal)
		return false
	}
	if payload.SessionID == "" {
		fmt.Println("missing or invalid session_id")
		return false
	}

	c, ok := p.carts.Cart(payload.SessionID)
	if !ok {
		// the session expired before checkout finished, nothing left to clear
		return false
	}
	c.ClearCart()
	c.CloseCart()
	return true
}
