package core

import (
	"time"

	"github.com/google/uuid"
)

// EntitlementType identifies one kind of time-bounded privilege.
// Promotion types apply to ads; verification types apply to user accounts.
type EntitlementType string

const (
	PromoFeatured EntitlementType = "featured"
	PromoUrgent   EntitlementType = "urgent"
	PromoSticky   EntitlementType = "sticky"
	PromoBump     EntitlementType = "bump"

	VerifyBusiness   EntitlementType = "business"
	VerifyIndividual EntitlementType = "individual"
)

// PromotionTypes lists every ad promotion type.
var PromotionTypes = []EntitlementType{PromoFeatured, PromoUrgent, PromoSticky, PromoBump}

// VerificationTypes lists every identity verification type.
var VerificationTypes = []EntitlementType{VerifyBusiness, VerifyIndividual}

// IsPromotion reports whether t is an ad promotion type.
func (t EntitlementType) IsPromotion() bool {
	switch t {
	case PromoFeatured, PromoUrgent, PromoSticky, PromoBump:
		return true
	}
	return false
}

// IsVerification reports whether t is an identity verification type.
func (t EntitlementType) IsVerification() bool {
	switch t {
	case VerifyBusiness, VerifyIndividual:
		return true
	}
	return false
}

// Valid reports whether t is a known entitlement type.
func (t EntitlementType) Valid() bool { return t.IsPromotion() || t.IsVerification() }

// Kind returns the target kind this entitlement type applies to.
func (t EntitlementType) Kind() TargetKind {
	if t.IsVerification() {
		return KindUser
	}
	return KindAd
}

// TargetKind identifies the concrete entity an entitlement attaches to.
type TargetKind string

const (
	KindAd   TargetKind = "ad"
	KindUser TargetKind = "user"
)

// AccountTier is the seller's tier at the time a grant is created.
// It affects pricing only and is immutable once recorded on a grant.
type AccountTier string

const (
	// TierAny is the tier-agnostic pricing fallback, not a real account tier.
	TierAny AccountTier = ""

	TierBasic    AccountTier = "basic"
	TierPremium  AccountTier = "premium"
	TierBusiness AccountTier = "business"
)

// Durations is the fixed menu of entitlement durations, in days.
var Durations = []int{3, 7, 15, 30}

// ValidDuration reports whether days is on the duration menu.
func ValidDuration(days int) bool {
	for _, d := range Durations {
		if d == days {
			return true
		}
	}
	return false
}

// Grant is the durable source-of-truth record of one entitlement.
// The engine never deletes grants; Active is the only lifecycle bit and it
// moves one way, true -> false.
type Grant struct {
	ID         uuid.UUID       `json:"id"`
	TargetKind TargetKind      `json:"target_kind"`
	TargetID   uuid.UUID       `json:"target_id"`
	Type       EntitlementType `json:"type"`

	Tier         AccountTier `json:"tier"`
	DurationDays int         `json:"duration_days"`
	PriceCents   int64       `json:"price_cents"`

	StartsAt  time.Time `json:"starts_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`

	// Payment metadata is captured for audit and never drives engine logic.
	PaymentRef    string `json:"payment_ref,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`

	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// VerificationStatus is the lifecycle state of a verification request.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
	VerificationExpired  VerificationStatus = "expired"
)

// VerificationRequest is an identity entitlement request. Rejected is
// terminal; re-submission after rejection is a new row, never a transition.
type VerificationRequest struct {
	ID     uuid.UUID          `json:"id"`
	UserID uuid.UUID          `json:"user_id"`
	Type   EntitlementType    `json:"type"`
	Status VerificationStatus `json:"status"`

	// DurationDays nil means indefinite approval, exempt from expiry sweeps.
	DurationDays *int       `json:"duration_days,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`

	SubmittedAt  time.Time  `json:"submitted_at"`
	ReviewedBy   *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
}

// FlagState is the denormalized projection of one entitlement type on a
// target: a boolean plus its paired "until" timestamp.
type FlagState struct {
	On    bool       `json:"on"`
	Until *time.Time `json:"until,omitempty"`
}

// StaleFlag is a flag pair whose "until" is in the past while the flag is
// still set — an orphan candidate.
type StaleFlag struct {
	Kind     TargetKind
	TargetID uuid.UUID
	Type     EntitlementType
	Until    time.Time
}

// TargetInfo is the minimal view of a target the application service needs.
type TargetInfo struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Tier    AccountTier
	Deleted bool
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	Family      string        `json:"family"`
	Candidates  int           `json:"candidates"`
	Deactivated int           `json:"deactivated"`
	Failed      int           `json:"failed"`
	Duration    time.Duration `json:"duration"`
}
