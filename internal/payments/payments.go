// Package payments creates and checks verification payments.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// ErrNotConfigured is returned when no payment provider key is set.
var ErrNotConfigured = errors.New("payment provider not configured")

const metadataUserID = "user_id"

// Intent is the provider-neutral view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Succeeded    bool
	UserID       uint
}

// Provider issues and inspects payment intents.
type Provider interface {
	CreateVerificationIntent(ctx context.Context, userID uint) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeProvider talks to Stripe's PaymentIntents API.
type StripeProvider struct {
	intents     intentAPI
	amountCents int64
}

// NewStripeProvider returns a provider charging amountCents USD per verification.
func NewStripeProvider(secretKey string, amountCents int64) (*StripeProvider, error) {
	if secretKey == "" {
		return nil, ErrNotConfigured
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProvider{intents: sc.PaymentIntents, amountCents: amountCents}, nil
}

func (p *StripeProvider) CreateVerificationIntent(ctx context.Context, userID uint) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.amountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataUserID, strconv.FormatUint(uint64(userID), 10))

	pi, err := p.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (p *StripeProvider) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.intents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	in := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
	}
	if raw, ok := pi.Metadata[metadataUserID]; ok {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			in.UserID = uint(id)
		}
	}
	return in
}

// Unconfigured is the Provider used when no Stripe key is set.
type Unconfigured struct{}

func (Unconfigured) CreateVerificationIntent(context.Context, uint) (*Intent, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) GetIntent(context.Context, string) (*Intent, error) {
	return nil, ErrNotConfigured
}
