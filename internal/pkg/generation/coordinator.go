package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SvenKoller/RenderKeep/app/models"
	"github.com/SvenKoller/RenderKeep/internal/pkg/credits"
	"github.com/SvenKoller/RenderKeep/internal/pkg/renderstore"
	"github.com/SvenKoller/RenderKeep/internal/pkg/retention"
)

// TokensPerGeneration is the token cost of one render.
const TokensPerGeneration = 1

// ErrNoCredits means no payment method authorizes a generation right now.
// Not a server error: the caller should surface a purchase prompt.
var ErrNoCredits = errors.New("generation: no credits available")

// CreditSource is the slice of the ledger the coordinator needs.
type CreditSource interface {
	DeductTrial(userID uint) (credits.DeductResult, error)
	RefundTrial(userID uint) (credits.DeductResult, error)
	DeductTokens(userID uint, amount int) (credits.DeductResult, error)
	Grant(userID uint, kind string, amount int, description string) (int, error)
}

// MethodResolver picks the payment method for an account.
type MethodResolver interface {
	Resolve(userID uint) (credits.Resolution, error)
}

// RenderRepo persists finished render rows.
type RenderRepo interface {
	Create(render *models.Render) error
}

// ArtifactStore uploads and deletes render artifacts. May be nil when S3
// storage is disabled.
type ArtifactStore interface {
	PutObject(ctx context.Context, objectKey string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, objectKey string) error
}

// Outcome is the result of one orchestrated generation.
type Outcome struct {
	Render    *models.Render        `json:"render"`
	Method    credits.PaymentMethod `json:"method"`
	Retention retention.Description `json:"retention"`
}

// Coordinator drives the generation lifecycle: resolve a payment method,
// consume the credit, call the provider, then either keep the deduction and
// stamp the artifact's expiry, or explicitly refund. Refunds are never an
// implicit rollback; a caller abandoning the request after the deduction
// committed cannot undo it.
type Coordinator struct {
	ledger   CreditSource
	resolver MethodResolver
	provider Provider
	renders  RenderRepo
	store    ArtifactStore
	storeCfg *renderstore.Config
	now      func() time.Time
}

// NewCoordinator wires a coordinator. store and storeCfg may be nil when
// artifact storage is disabled.
func NewCoordinator(ledger CreditSource, resolver MethodResolver, provider Provider, renders RenderRepo, store ArtifactStore, storeCfg *renderstore.Config) *Coordinator {
	return &Coordinator{
		ledger:   ledger,
		resolver: resolver,
		provider: provider,
		renders:  renders,
		store:    store,
		storeCfg: storeCfg,
		now:      time.Now,
	}
}

// Generate runs one full generation. If the resolved method's pool is
// drained by a concurrent request before the deduction lands, the call
// fails with ErrNoCredits instead of silently falling through to another
// payment method; the caller re-resolves.
func (c *Coordinator) Generate(ctx context.Context, req Request) (*Outcome, error) {
	resolution, err := c.resolver.Resolve(req.UserID)
	if err != nil {
		return nil, err
	}
	if !resolution.CanGenerate {
		return nil, ErrNoCredits
	}

	paymentType, err := c.deduct(req.UserID, resolution.Method)
	if err != nil {
		return nil, err
	}

	// The deduction transaction has committed; from here on every failure
	// path compensates with an explicit refund.
	result, err := c.provider.Generate(ctx, req)
	if err != nil {
		c.refund(req.UserID, resolution.Method)
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	outcome, err := c.persist(ctx, req, resolution.Method, paymentType, result)
	if err != nil {
		c.refund(req.UserID, resolution.Method)
		return nil, err
	}
	return outcome, nil
}

func (c *Coordinator) deduct(userID uint, method credits.PaymentMethod) (string, error) {
	switch method {
	case credits.MethodSubscription:
		// Unlimited while active, nothing to consume.
		return models.PaymentTypeSubscription, nil
	case credits.MethodTrial:
		res, err := c.ledger.DeductTrial(userID)
		if err != nil {
			return "", err
		}
		if !res.OK {
			return "", ErrNoCredits
		}
		return models.PaymentTypeTrial, nil
	case credits.MethodToken:
		res, err := c.ledger.DeductTokens(userID, TokensPerGeneration)
		if err != nil {
			return "", err
		}
		if !res.OK {
			return "", ErrNoCredits
		}
		return models.PaymentTypeToken, nil
	default:
		return "", ErrNoCredits
	}
}

// refund compensates a committed deduction after a failed generation.
// Best-effort: a refund that fails is logged, and RefundTrial tolerates
// duplicates so retried handlers stay safe.
func (c *Coordinator) refund(userID uint, method credits.PaymentMethod) {
	var err error
	switch method {
	case credits.MethodTrial:
		_, err = c.ledger.RefundTrial(userID)
	case credits.MethodToken:
		_, err = c.ledger.Grant(userID, models.TxTokenPurchase, TokensPerGeneration, "refund: generation failed")
	}
	if err != nil {
		log.Errorf("refund after failed generation for user %d: %v", userID, err)
	}
}

func (c *Coordinator) persist(ctx context.Context, req Request, method credits.PaymentMethod, paymentType string, result *Result) (*Outcome, error) {
	now := c.now().UTC()
	render := &models.Render{
		UserID:      req.UserID,
		Prompt:      req.Prompt,
		Style:       req.Style,
		PaymentType: paymentType,
		FileSize:    int64(len(result.Data)),
		ExpiresAt:   retention.ComputeExpiry(paymentType, now),
		CreatedAt:   now,
	}
	// BeforeCreate would set the UUID, but the object key needs it first.
	render.UUID = uuid.New().String()

	if c.store != nil && c.storeCfg != nil {
		render.ObjectKey = c.storeCfg.ObjectKeyFor(render.UUID, now)
		if err := c.store.PutObject(ctx, render.ObjectKey, result.Data, result.ContentType); err != nil {
			return nil, fmt.Errorf("failed to store render artifact: %w", err)
		}
	}

	if err := c.renders.Create(render); err != nil {
		if c.store != nil && render.ObjectKey != "" {
			if delErr := c.store.DeleteObject(ctx, render.ObjectKey); delErr != nil {
				log.Errorf("orphaned render object %s: %v", render.ObjectKey, delErr)
			}
		}
		return nil, err
	}

	return &Outcome{
		Render:    render,
		Method:    method,
		Retention: retention.DescribeRetention(paymentType, render.ExpiresAt, now),
	}, nil
}

// gormRenderRepo is the production RenderRepo.
type gormRenderRepo struct {
	db *gorm.DB
}

// NewRenderRepo creates a render repository backed by GORM.
func NewRenderRepo(db *gorm.DB) RenderRepo {
	return &gormRenderRepo{db: db}
}

func (r *gormRenderRepo) Create(render *models.Render) error {
	return r.db.Create(render).Error
}
