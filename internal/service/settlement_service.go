package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"yieldback-ledger/internal/core/domain"
	"yieldback-ledger/internal/core/ports"
	"yieldback-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SettlementServiceImpl implements ports.SettlementService: merchant registry,
// item catalog, purchase settlement with immediate merchant payment, the
// platform fee accumulator and the legacy deferred-payout path.
type SettlementServiceImpl struct {
	merchantRepo ports.MerchantRepository
	itemRepo     ports.ItemRepository
	purchaseRepo ports.PurchaseRepository
	feeRepo      ports.FeeRepository
	ledger       ports.TokenLedger
	treasury     ports.Treasury
	transactor   ports.DBTransactor
	encryption   ports.EncryptionService
	notifier     ports.WebhookNotifier
	audit        ports.AuditService
	log          zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	merchantRepo ports.MerchantRepository,
	itemRepo ports.ItemRepository,
	purchaseRepo ports.PurchaseRepository,
	feeRepo ports.FeeRepository,
	ledger ports.TokenLedger,
	treasury ports.Treasury,
	transactor ports.DBTransactor,
	encryption ports.EncryptionService,
	notifier ports.WebhookNotifier,
	audit ports.AuditService,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		merchantRepo: merchantRepo,
		itemRepo:     itemRepo,
		purchaseRepo: purchaseRepo,
		feeRepo:      feeRepo,
		ledger:       ledger,
		treasury:     treasury,
		transactor:   transactor,
		encryption:   encryption,
		notifier:     notifier,
		audit:        audit,
		log:          log,
	}
}

// RegisterMerchant creates a merchant record keyed by the caller's account.
// An account registers at most once.
func (s *SettlementServiceImpl) RegisterMerchant(ctx context.Context, account uuid.UUID, req ports.RegisterMerchantRequest) (*domain.Merchant, error) {
	if req.Name == "" {
		return nil, apperror.Validation("merchant name is required")
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	existing, err := s.merchantRepo.GetByIDForUpdate(ctx, tx, account)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check merchant: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrAlreadyRegistered()
	}

	now := time.Now().UTC()
	merchant := &domain.Merchant{
		AccountID:   account,
		Name:        req.Name,
		Description: req.Description,
		WebhookURL:  req.WebhookURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.WebhookURL != nil && *req.WebhookURL != "" {
		secret, err := generateWebhookSecret()
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("generate webhook secret: %w", err))
		}
		enc, err := s.encryption.Encrypt(secret)
		if err != nil {
			return nil, apperror.ErrEncryptionFailure(err)
		}
		merchant.WebhookSecretEnc = enc
	}

	if err := s.merchantRepo.Create(ctx, tx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("merchant", account.String()).Str("name", req.Name).Msg("merchant registered")
	s.audit.Log(ctx, &domain.AuditLog{
		AccountID: &account,
		Action:    domain.AuditActionRegMerchant,
		Details:   fmt.Sprintf("name=%s", req.Name),
	})
	return merchant, nil
}

// UpdateMerchant updates the caller's own merchant profile.
func (s *SettlementServiceImpl) UpdateMerchant(ctx context.Context, account uuid.UUID, req ports.UpdateMerchantRequest) (*domain.Merchant, error) {
	if req.Name == "" {
		return nil, apperror.Validation("merchant name is required")
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	merchant, err := s.merchantRepo.GetByIDForUpdate(ctx, tx, account)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotRegistered()
	}

	merchant.Name = req.Name
	merchant.Description = req.Description
	if req.WebhookURL != nil {
		merchant.WebhookURL = req.WebhookURL
		if merchant.WebhookSecretEnc == "" && *req.WebhookURL != "" {
			secret, err := generateWebhookSecret()
			if err != nil {
				return nil, apperror.InternalError(fmt.Errorf("generate webhook secret: %w", err))
			}
			enc, err := s.encryption.Encrypt(secret)
			if err != nil {
				return nil, apperror.ErrEncryptionFailure(err)
			}
			merchant.WebhookSecretEnc = enc
		}
	}

	if err := s.merchantRepo.Update(ctx, tx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update merchant: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.audit.Log(ctx, &domain.AuditLog{
		AccountID: &account,
		Action:    domain.AuditActionUpdMerchant,
	})
	return merchant, nil
}

// ListItem adds a catalog item for a registered merchant. Price must be
// positive; the required yield claim may be zero.
func (s *SettlementServiceImpl) ListItem(ctx context.Context, merchantID uuid.UUID, req ports.ListItemRequest) (*domain.Item, error) {
	if req.Name == "" {
		return nil, apperror.Validation("item name is required")
	}
	if req.Price <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.RequiredYieldClaim < 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	merchant, err := s.merchantRepo.GetByIDForUpdate(ctx, tx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotRegistered()
	}

	now := time.Now().UTC()
	item := &domain.Item{
		MerchantID:         merchantID,
		Name:               req.Name,
		Description:        req.Description,
		Price:              req.Price,
		RequiredYieldClaim: req.RequiredYieldClaim,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	id, err := s.itemRepo.Create(ctx, tx, item)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create item: %w", err))
	}
	item.ID = id

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("merchant", merchantID.String()).Int64("item", id).Int64("price", req.Price).Msg("item listed")
	s.audit.Log(ctx, &domain.AuditLog{
		AccountID: &merchantID,
		Action:    domain.AuditActionListItem,
		Details:   fmt.Sprintf("item=%d price=%d", id, req.Price),
	})
	return item, nil
}

// UpdateItem modifies an item's listing. Only the owning merchant may update
// it. Delisting (Active=false) hides the item without deleting it.
func (s *SettlementServiceImpl) UpdateItem(ctx context.Context, merchantID uuid.UUID, itemID int64, req ports.UpdateItemRequest) (*domain.Item, error) {
	if req.Name == "" {
		return nil, apperror.Validation("item name is required")
	}
	if req.Price <= 0 || req.RequiredYieldClaim < 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	item, err := s.itemRepo.GetByIDForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock item: %w", err))
	}
	if item == nil {
		return nil, apperror.ErrInvalidItemID()
	}
	if item.MerchantID != merchantID {
		return nil, apperror.ErrUnauthorized()
	}

	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	item.RequiredYieldClaim = req.RequiredYieldClaim
	item.Active = req.Active
	if err := s.itemRepo.Update(ctx, tx, item); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update item: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.audit.Log(ctx, &domain.AuditLog{
		AccountID: &merchantID,
		Action:    domain.AuditActionUpdateItem,
		Details:   fmt.Sprintf("item=%d", itemID),
	})
	return item, nil
}

// PurchaseItem settles a purchase: the buyer's yield claim is burned by the
// item's required amount, the platform fee accrues, and the merchant is paid
// price minus fee from the treasury immediately. The burn amount is the
// item's threshold, not its price. All of it happens in one transaction.
func (s *SettlementServiceImpl) PurchaseItem(ctx context.Context, buyer uuid.UUID, itemID int64) (*ports.PurchaseResult, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	item, err := s.itemRepo.GetByIDForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock item: %w", err))
	}
	if item == nil {
		return nil, apperror.ErrInvalidItemID()
	}
	if !item.Active {
		return nil, apperror.ErrItemNotAvailable()
	}

	yieldBalance, err := s.ledger.BalanceOf(ctx, domain.ClaimYield, buyer)
	if err != nil {
		return nil, err
	}
	if yieldBalance < item.RequiredYieldClaim {
		return nil, apperror.ErrInsufficientYieldClaim()
	}

	fee := domain.PlatformFee(item.Price)
	payment := item.Price - fee

	accrued, err := s.feeRepo.GetForUpdate(ctx, tx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock fee accumulator: %w", err))
	}
	if err := s.feeRepo.Set(ctx, tx, accrued+fee); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("accrue fee: %w", err))
	}

	merchant, err := s.merchantRepo.GetByIDForUpdate(ctx, tx, item.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}
	merchant.TotalSales += item.Price
	if err := s.merchantRepo.Update(ctx, tx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update merchant: %w", err))
	}

	purchase := &domain.Purchase{
		Buyer:      buyer,
		MerchantID: item.MerchantID,
		ItemID:     item.ID,
		Price:      item.Price,
		Paid:       true,
		CreatedAt:  time.Now().UTC(),
	}
	id, err := s.purchaseRepo.Create(ctx, tx, purchase)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create purchase: %w", err))
	}
	purchase.ID = id

	// Burn the threshold amount, not the price; the two are decoupled.
	if item.RequiredYieldClaim > 0 {
		if err := s.ledger.Burn(ctx, tx, domain.ModuleSettlement, domain.ClaimYield, buyer, item.RequiredYieldClaim); err != nil {
			return nil, err
		}
	}

	// Immediate settlement from the treasury. Fails with unauthorized until
	// treasury control has been handed to the settlement module.
	if payment > 0 {
		if err := s.treasury.Pay(ctx, tx, domain.ModuleSettlement, item.MerchantID, payment); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("buyer", buyer.String()).
		Str("merchant", item.MerchantID.String()).
		Int64("item", item.ID).
		Int64("price", item.Price).
		Int64("fee", fee).
		Int64("claim_burnt", item.RequiredYieldClaim).
		Msg("purchase settled")
	s.audit.Log(ctx, &domain.AuditLog{
		AccountID: &buyer,
		Action:    domain.AuditActionPurchase,
		Details:   fmt.Sprintf("item=%d price=%d fee=%d", item.ID, item.Price, fee),
	})

	// Delivery is best-effort and never blocks settlement.
	if err := s.notifier.EnqueueSettlementNotice(ctx, purchase, payment); err != nil {
		s.log.Warn().Err(err).Int64("purchase", purchase.ID).Msg("settlement notice not enqueued")
	}

	return &ports.PurchaseResult{
		Purchase:        purchase,
		PlatformFee:     fee,
		MerchantPayment: payment,
		YieldClaimBurnt: item.RequiredYieldClaim,
	}, nil
}

// CollectPlatformFees resets the fee accumulator to zero and returns the
// amount. No asset moves: accrued fees already sit in the treasury.
func (s *SettlementServiceImpl) CollectPlatformFees(ctx context.Context, caller domain.Role) (int64, error) {
	if caller != domain.RoleOperator {
		return 0, apperror.ErrUnauthorized()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	accrued, err := s.feeRepo.GetForUpdate(ctx, tx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("lock fee accumulator: %w", err))
	}
	if accrued <= 0 {
		return 0, apperror.ErrNoFeesToCollect()
	}
	if err := s.feeRepo.Set(ctx, tx, 0); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("reset fee accumulator: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Int64("amount", accrued).Msg("platform fees collected")
	s.audit.Log(ctx, &domain.AuditLog{
		Action:  domain.AuditActionCollectFees,
		Details: fmt.Sprintf("amount=%d", accrued),
	})
	return accrued, nil
}

// PayMerchant is the legacy deferred-settlement path: it flushes a merchant's
// pending payment from the treasury and marks their historical unpaid
// purchases paid. New purchases settle immediately and never accrue here.
func (s *SettlementServiceImpl) PayMerchant(ctx context.Context, caller domain.Role, merchantID uuid.UUID) (*ports.PayMerchantResult, error) {
	if caller != domain.RoleOperator {
		return nil, apperror.ErrUnauthorized()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	merchant, err := s.merchantRepo.GetByIDForUpdate(ctx, tx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}
	if merchant.PendingPayment <= 0 {
		return nil, apperror.ErrNoPendingPayment()
	}

	amount := merchant.PendingPayment
	merchant.PendingPayment = 0
	if err := s.merchantRepo.Update(ctx, tx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update merchant: %w", err))
	}

	paid, err := s.purchaseRepo.MarkPaidByMerchant(ctx, tx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark purchases paid: %w", err))
	}

	if err := s.treasury.Pay(ctx, tx, domain.ModuleSettlement, merchantID, amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("merchant", merchantID.String()).Int64("amount", amount).Msg("pending payment flushed")
	s.audit.Log(ctx, &domain.AuditLog{
		Action:  domain.AuditActionPayMerchant,
		Details: fmt.Sprintf("merchant=%s amount=%d", merchantID, amount),
	})
	return &ports.PayMerchantResult{MerchantID: merchantID, Amount: amount, PurchasesPaid: paid}, nil
}

// MerchantInfo returns a merchant's public record.
func (s *SettlementServiceImpl) MerchantInfo(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}
	return merchant, nil
}

// ItemInfo returns a catalog item by id.
func (s *SettlementServiceImpl) ItemInfo(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read item: %w", err))
	}
	if item == nil {
		return nil, apperror.ErrInvalidItemID()
	}
	return item, nil
}

// PurchaseInfo returns a settlement record by id.
func (s *SettlementServiceImpl) PurchaseInfo(ctx context.Context, id int64) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read purchase: %w", err))
	}
	if purchase == nil {
		return nil, apperror.ErrInvalidPurchaseID()
	}
	return purchase, nil
}

// IsEligibleForPurchase reports whether the buyer's yield-claim balance meets
// the item's threshold. Delisted items are never eligible.
func (s *SettlementServiceImpl) IsEligibleForPurchase(ctx context.Context, buyer uuid.UUID, itemID int64) (bool, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("read item: %w", err))
	}
	if item == nil {
		return false, apperror.ErrInvalidItemID()
	}
	if !item.Active {
		return false, nil
	}
	balance, err := s.ledger.BalanceOf(ctx, domain.ClaimYield, buyer)
	if err != nil {
		return false, err
	}
	return balance >= item.RequiredYieldClaim, nil
}

// MerchantCount returns the number of registered merchants.
func (s *SettlementServiceImpl) MerchantCount(ctx context.Context) (int64, error) {
	count, err := s.merchantRepo.Count(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("count merchants: %w", err))
	}
	return count, nil
}

// PlatformFees returns the uncollected fee accumulator.
func (s *SettlementServiceImpl) PlatformFees(ctx context.Context) (int64, error) {
	accrued, err := s.feeRepo.Get(ctx)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("read fee accumulator: %w", err))
	}
	return accrued, nil
}

func generateWebhookSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "whsec_" + hex.EncodeToString(b), nil
}

