package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// webhookRetryIntervals is the backoff schedule for settlement notices.
var webhookRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// EventSettlement is the event type sent when a purchase settles.
const EventSettlement = "SETTLEMENT"

// SettlementNotice is the JSON structure sent to a merchant's webhook_url.
type SettlementNotice struct {
	EventType string               `json:"event_type"`
	Data      SettlementNoticeData `json:"data"`
	Signature string               `json:"signature"`
}

// SettlementNoticeData holds the purchase details in the notice.
type SettlementNoticeData struct {
	PurchaseID int64  `json:"purchase_id"`
	ItemID     int64  `json:"item_id"`
	Buyer      string `json:"buyer"`
	Price      int64  `json:"price"`
	Payment    int64  `json:"payment"`
	Timestamp  int64  `json:"timestamp"`
}

// webhookNotifier implements ports.WebhookNotifier.
type webhookNotifier struct {
	merchantRepo ports.MerchantRepository
	encSvc       ports.EncryptionService
	sigSvc       ports.SignatureService
	httpClient   HTTPClient
	log          zerolog.Logger
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewWebhookNotifier creates a new settlement notifier.
func NewWebhookNotifier(
	merchantRepo ports.MerchantRepository,
	encSvc ports.EncryptionService,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	log zerolog.Logger,
) ports.WebhookNotifier {
	return &webhookNotifier{
		merchantRepo: merchantRepo,
		encSvc:       encSvc,
		sigSvc:       sigSvc,
		httpClient:   httpClient,
		log:          log,
	}
}

// EnqueueSettlementNotice sends a settlement notice to the merchant
// asynchronously with retries. Merchants without a webhook URL are skipped.
func (s *webhookNotifier) EnqueueSettlementNotice(ctx context.Context, purchase *domain.Purchase, merchantPayment int64) error {
	merchant, err := s.merchantRepo.GetByID(ctx, purchase.MerchantID)
	if err != nil {
		s.log.Error().Err(err).Str("merchant_id", purchase.MerchantID.String()).Msg("webhook: failed to fetch merchant")
		return err
	}
	if merchant == nil || merchant.WebhookURL == nil || *merchant.WebhookURL == "" {
		s.log.Debug().Str("merchant_id", purchase.MerchantID.String()).Msg("webhook: no webhook URL configured, skipping")
		return nil
	}

	data := SettlementNoticeData{
		PurchaseID: purchase.ID,
		ItemID:     purchase.ItemID,
		Buyer:      purchase.Buyer.String(),
		Price:      purchase.Price,
		Payment:    merchantPayment,
		Timestamp:  time.Now().Unix(),
	}

	secretKey, err := s.encSvc.Decrypt(merchant.WebhookSecretEnc)
	if err != nil {
		s.log.Error().Err(err).Msg("webhook: failed to decrypt merchant secret key")
		return err
	}

	dataBytes, _ := json.Marshal(data)
	signature := s.sigSvc.Sign(secretKey, string(dataBytes))

	notice := SettlementNotice{
		EventType: EventSettlement,
		Data:      data,
		Signature: signature,
	}

	go s.deliverWithRetries(*merchant.WebhookURL, notice, purchase.ID)

	return nil
}

// deliverWithRetries attempts to deliver the notice with backoff.
func (s *webhookNotifier) deliverWithRetries(url string, notice SettlementNotice, purchaseID int64) {
	payloadBytes, err := json.Marshal(notice)
	if err != nil {
		s.log.Error().Err(err).Int64("purchase_id", purchaseID).Msg("webhook: failed to marshal payload")
		return
	}

	for attempt := 0; attempt <= len(webhookRetryIntervals); attempt++ {
		if attempt > 0 {
			time.Sleep(webhookRetryIntervals[attempt-1])
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payloadBytes))
		if err != nil {
			s.log.Error().Err(err).Int64("purchase_id", purchaseID).Int("attempt", attempt+1).Msg("webhook: failed to create request")
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.log.Warn().Err(err).Int64("purchase_id", purchaseID).Int("attempt", attempt+1).Msg("webhook: delivery failed")
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.log.Info().Int64("purchase_id", purchaseID).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("webhook: delivered successfully")
			return
		}

		s.log.Warn().Int64("purchase_id", purchaseID).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("webhook: non-2xx response, retrying")
	}

	s.log.Error().Int64("purchase_id", purchaseID).Msg("webhook: all retry attempts exhausted")
}
