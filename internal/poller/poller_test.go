package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront-session/internal/cart"
	"github.com/fjod/go_cart/storefront-session/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"gotest.tools/v3/assert"
)

type mapCarts map[string]*cart.Cart

func (m mapCarts) Cart(sessionID string) (*cart.Cart, bool) {
	c, ok := m[sessionID]
	return c, ok
}

// fakeReader replays queued messages and then blocks until the context ends
type fakeReader struct {
	m        sync.Mutex
	messages []kafkaGo.Message
	closed   bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafkaGo.Message, error) {
	f.m.Lock()
	if len(f.messages) > 0 {
		msg := f.messages[0]
		f.messages = f.messages[1:]
		f.m.Unlock()
		return msg, nil
	}
	f.m.Unlock()

	<-ctx.Done()
	return kafkaGo.Message{}, ctx.Err()
}

func (f *fakeReader) Close() error {
	f.m.Lock()
	defer f.m.Unlock()
	f.closed = true
	return nil
}

func filledCart() *cart.Cart {
	c := cart.New(cart.Options{})
	c.AddToCart(domain.Product{ID: "lamp", Price: 10}, 2)
	return c
}

func checkoutMessage(t *testing.T, sessionID string) kafkaGo.Message {
	payload := map[string]interface{}{
		"checkout_id":  "chId",
		"session_id":   sessionID,
		"total_amount": "20",
		"currency":     "eur",
		"completed_at": time.Time{},
	}
	payloadJSON, err := json.Marshal(payload)
	require.NoError(t, err)
	return kafkaGo.Message{Key: []byte("chId"), Value: payloadJSON}
}

func TestHandle_ClearsSessionCart(t *testing.T) {
	c := filledCart()
	p := &Poller{carts: mapCarts{"s1": c}}

	assert.Assert(t, p.handle(checkoutMessage(t, "s1")))
	assert.Equal(t, 0, c.TotalItems())
	assert.Assert(t, !c.IsOpen())
}

func TestHandle_UnknownSessionIsIgnored(t *testing.T) {
	c := filledCart()
	p := &Poller{carts: mapCarts{"s1": c}}

	assert.Assert(t, !p.handle(checkoutMessage(t, "gone")))
	assert.Equal(t, 2, c.TotalItems())
}

func TestHandle_MalformedPayload(t *testing.T) {
	c := filledCart()
	p := &Poller{carts: mapCarts{"s1": c}}

	assert.Assert(t, !p.handle(kafkaGo.Message{Value: []byte("not json")}))
	assert.Assert(t, !p.handle(kafkaGo.Message{Value: []byte(`{"checkout_id":"x"}`)}))
	assert.Equal(t, 2, c.TotalItems())
}

func TestRun_ConsumesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c1, c2 := filledCart(), filledCart()
	reader := &fakeReader{messages: []kafkaGo.Message{
		checkoutMessage(t, "s1"),
		{Value: []byte("garbage")},
		checkoutMessage(t, "s2"),
	}}
	p := &Poller{carts: mapCarts{"s1": c1, "s2": c2}, reader: reader}

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return c1.TotalItems() == 0 && c2.TotalItems() == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancellation")
	}

	p.Close()
	assert.Assert(t, reader.closed)
}

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	// Start Kafka container using testcontainers Kafka module
	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	// Get broker address
	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestPoller_KafkaIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka container test in short mode")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	brokers, cleanupKafka := setupKafka(t)
	defer cleanupKafka()
	createTopic(t, brokers, CheckoutTopic)

	c := filledCart()
	poller := NewPoller(mapCarts{"s1": c}, brokers)
	defer poller.Close()

	w := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers),
		Topic:                  CheckoutTopic,
		Balancer:               &kafkaGo.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	err := w.WriteMessages(ctx, checkoutMessage(t, "s1"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	go poller.Run(ctx)
	require.Eventually(t, func() bool {
		return c.TotalItems() == 0 // cart is cleared
	}, 15*time.Second, 500*time.Millisecond)
	cancel()
}
