package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/frahmantamala/complaint-management/pkg/backoff"
)

// ErrGone means the push service no longer knows the subscription.
var ErrGone = errors.New("push subscription expired")

type Sender interface {
	Send(ctx context.Context, sub *Subscription, payload []byte) error
}

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        time.Duration
}

type WebPushSender struct {
	cfg    VAPIDConfig
	client *http.Client
}

func NewWebPushSender(cfg VAPIDConfig, client *http.Client) *WebPushSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebPushSender{cfg: cfg, client: client}
}

func (s *WebPushSender) Send(ctx context.Context, sub *Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subject,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             int(s.cfg.TTL.Seconds()),
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("webpush send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return classify(resp.StatusCode)
}

// classify maps a push service response to a retry decision: 404 and 410
// retire the subscription, 429 and 5xx are retried, other 4xx are final.
func classify(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return backoff.Permanent(ErrGone)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("push service answered %d", status)
	default:
		return backoff.Permanent(fmt.Errorf("push service rejected message with %d", status))
	}
}

// GenerateVAPIDKeys returns a fresh key pair, public key first.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
