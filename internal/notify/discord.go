package notify

import (
	"context"
	"net/http"
	"time"
)

// Embed colours by notification title; anything else is grey.
var discordColors = map[string]int{
	"Bid placed":    0x2ecc71,
	"Bid rejected":  0xe74c3c,
	"Watcher added": 0x3498db,
}

const discordDefaultColor = 0x95a5a6

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

type discordPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

// DiscordSender posts auction events to a Discord webhook as embeds.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

// NewDiscordSender creates a DiscordSender for webhookURL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: senderTimeout},
		now:        time.Now,
	}
}

// Send posts one embed titled title with message as its description.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	color, ok := discordColors[title]
	if !ok {
		color = discordDefaultColor
	}
	return postJSON(ctx, d.client, d.Name(), d.webhookURL, discordPayload{
		Username: "auctionview",
		Embeds: []discordEmbed{{
			Title:       title,
			Description: message,
			Color:       color,
			Timestamp:   d.now().UTC().Format(time.RFC3339),
		}},
	})
}

// Name returns the sender identifier.
func (d *DiscordSender) Name() string {
	return "discord"
}
