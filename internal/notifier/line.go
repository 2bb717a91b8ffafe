package notifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrDeliveryFailure marks a push the messaging API rejected.
var ErrDeliveryFailure = errors.New("notification delivery failure")

const defaultAPIURL = "https://api.line.me/v2/bot/message/push"

// lineMessage is one entry of the LINE push payload.
type lineMessage struct {
	Type               string `json:"type"`
	Text               string `json:"text,omitempty"`
	OriginalContentURL string `json:"originalContentUrl,omitempty"`
	PreviewImageURL    string `json:"previewImageUrl,omitempty"`
}

type pushPayload struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

// LineNotifier pushes text and image messages to a single LINE recipient.
type LineNotifier struct {
	client *resty.Client
	userID string
	apiURL string
}

// NewLineNotifier creates a notifier for the given channel token and recipient.
func NewLineNotifier(channelToken, userID string) *LineNotifier {
	client := resty.New().
		SetAuthToken(channelToken).
		SetTimeout(10 * time.Second).
		SetHeader("User-Agent", "EtfPulse/1.0")
	return &LineNotifier{
		client: client,
		userID: userID,
		apiURL: defaultAPIURL,
	}
}

// RetryKey derives the idempotency key for a payload. The platform may retry
// a whole invocation; a stable key keeps the provider from double-delivering.
func RetryKey(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// PushText delivers a text message to the configured recipient.
func (n *LineNotifier) PushText(ctx context.Context, text string) error {
	return n.push(ctx, []lineMessage{{Type: "text", Text: text}})
}

// PushImage delivers an image message. The URL must be HTTPS; the messaging
// API rejects anything else, so fail before the network call.
func (n *LineNotifier) PushImage(ctx context.Context, imageURL string) error {
	if !strings.HasPrefix(imageURL, "https://") {
		return fmt.Errorf("%w: image URL must be HTTPS: %s", ErrDeliveryFailure, imageURL)
	}
	return n.push(ctx, []lineMessage{{
		Type:               "image",
		OriginalContentURL: imageURL,
		PreviewImageURL:    imageURL,
	}})
}

func (n *LineNotifier) push(ctx context.Context, messages []lineMessage) error {
	payload := pushPayload{To: n.userID, Messages: messages}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Line-Retry-Key", RetryKey(string(body))).
		SetBody(body).
		Post(n.apiURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: status %d, body: %s", ErrDeliveryFailure, resp.StatusCode(), resp.String())
	}
	return nil
}
