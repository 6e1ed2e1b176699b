// Package publisher ships accepted cost aggregates to the configured
// downstream recipients, one HTTP POST per recipient.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/smallbiznis/scrooge/internal/config"
	costdomain "github.com/smallbiznis/scrooge/internal/cost/domain"
	"github.com/smallbiznis/scrooge/pkg/timeutil"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPushTimeout = 30 * time.Second

// Payload is the wire format recipients receive.
type Payload struct {
	DateFrom string                      `json:"date_from"`
	DateTo   string                      `json:"date_to"`
	Type     string                      `json:"type"`
	Costs    []costdomain.AcceptedCostRow `json:"costs"`
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Config   *config.Config
	CostRepo costdomain.Repository
}

type Publisher struct {
	db         *gorm.DB
	log        *zap.Logger
	syncType   string
	recipients []config.Recipient
	costRepo   costdomain.Repository
	httpClient *http.Client
}

func New(p Params) *Publisher {
	return &Publisher{
		db:         p.DB,
		log:        p.Log.Named("publisher"),
		syncType:   p.Config.AcceptedCostsSyncType,
		recipients: p.Config.AcceptedCostsSyncRecipients,
		costRepo:   p.CostRepo,
		httpClient: &http.Client{Timeout: defaultPushTimeout},
	}
}

// Publish aggregates the range's accepted costs per service environment and
// posts the result to every recipient. A failing recipient is logged and
// does not stop the remaining ones; the count of successful deliveries is
// returned.
func (p *Publisher) Publish(ctx context.Context, dateFrom, dateTo time.Time, forecast bool) (int, error) {
	dateFrom, dateTo = timeutil.Date(dateFrom), timeutil.Date(dateTo)
	rows, err := p.costRepo.AggregateAccepted(ctx, p.db, dateFrom, dateTo, forecast)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		p.log.Info("no accepted costs to publish",
			zap.String("date_from", dateFrom.Format("2006-01-02")),
			zap.String("date_to", dateTo.Format("2006-01-02")))
		return 0, nil
	}

	payload := Payload{
		DateFrom: dateFrom.Format("2006-01-02"),
		DateTo:   dateTo.Format("2006-01-02"),
		Type:     p.syncType,
		Costs:    rows,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, recipient := range p.recipients {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		if err := p.post(ctx, recipient, body); err != nil {
			p.log.Error("publishing accepted costs failed",
				zap.String("url", recipient.URL),
				zap.Error(err))
			continue
		}
		delivered++
		p.log.Info("accepted costs published",
			zap.String("url", recipient.URL),
			zap.Int("rows", len(rows)))
	}
	return delivered, nil
}

func (p *Publisher) post(ctx context.Context, recipient config.Recipient, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recipient.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if recipient.AuthToken != "" {
		req.Header.Set("Authorization", "Token "+recipient.AuthToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("recipient returned %s", resp.Status)
	}
	return nil
}
