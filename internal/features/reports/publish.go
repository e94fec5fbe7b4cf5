package reports

import (
	"context"
	"strings"
	"time"

	"usage-report-bot/internal/clients_api/telegram"
	"usage-report-bot/internal/clients_api/webhook"
)

// Chart is one rendered and uploaded image of a report. URL is empty when
// the upload failed; Path stays valid until the report is delivered.
type Chart struct {
	Name  string
	Title string
	Path  string
	URL   string
}

type Report struct {
	Kind        Kind
	Period      Period
	Title       string
	Summary     string
	Charts      []Chart
	GeneratedAt time.Time
}

// Publisher delivers a finished report to one destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, r *Report) error
}

type webhookPoster interface {
	Post(ctx context.Context, msg webhook.Message) error
}

type WebhookPublisher struct {
	client webhookPoster
}

func NewWebhookPublisher(client webhookPoster) *WebhookPublisher {
	return &WebhookPublisher{client: client}
}

func (p *WebhookPublisher) Name() string { return "webhook" }

var embedColors = map[Kind]int{
	KindHourly: 0x1f77b4,
	KindDaily:  0x2ca02c,
	KindWeekly: 0x9467bd,
}

// Publish sends the summary as content and one embed per chart. Charts that
// only have a local file:// URL are listed by link text, chat services
// cannot fetch them.
func (p *WebhookPublisher) Publish(ctx context.Context, r *Report) error {
	msg := webhook.Message{Content: r.Summary}
	for _, c := range r.Charts {
		if c.URL == "" {
			continue
		}
		embed := webhook.Embed{
			Title:     c.Title,
			Color:     embedColors[r.Kind],
			Timestamp: r.GeneratedAt.UTC().Format(time.RFC3339),
		}
		if strings.HasPrefix(c.URL, "http://") || strings.HasPrefix(c.URL, "https://") {
			embed.Image = &webhook.EmbedImage{URL: c.URL}
		} else {
			embed.Description = c.URL
		}
		msg.Embeds = append(msg.Embeds, embed)
	}
	return p.client.Post(ctx, msg)
}

type photoSender interface {
	Send(ctx context.Context, text string, photos []telegram.Photo) error
}

type TelegramPublisher struct {
	sender photoSender
}

func NewTelegramPublisher(sender photoSender) *TelegramPublisher {
	return &TelegramPublisher{sender: sender}
}

func (p *TelegramPublisher) Name() string { return "telegram" }

func (p *TelegramPublisher) Publish(ctx context.Context, r *Report) error {
	photos := make([]telegram.Photo, 0, len(r.Charts))
	for _, c := range r.Charts {
		photos = append(photos, telegram.Photo{Path: c.Path, Caption: c.Title})
	}
	return p.sender.Send(ctx, r.Summary, photos)
}
