package model

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// =====================================================
// SUBMISSION (NOT SUBMITTED | SUBMITTED(VALUE))
// =====================================================

// Submission holds the data of one checkout step. The zero value means the
// step has not been submitted; presence is the source of truth for "step done".
type Submission[T any] struct {
	value     T
	submitted bool
}

// Submitted wraps a value as a submitted step
func Submitted[T any](v T) Submission[T] {
	return Submission[T]{value: v, submitted: true}
}

// NotSubmitted returns the empty submission
func NotSubmitted[T any]() Submission[T] {
	return Submission[T]{}
}

// Get returns the value and whether the step was submitted
func (s Submission[T]) Get() (T, bool) {
	return s.value, s.submitted
}

func (s Submission[T]) IsSubmitted() bool {
	return s.submitted
}

// Ptr returns nil when not submitted. Used by persistence adapters.
func (s Submission[T]) Ptr() *T {
	if !s.submitted {
		return nil
	}
	v := s.value
	return &v
}

// SubmissionFromPtr is the inverse of Ptr
func SubmissionFromPtr[T any](p *T) Submission[T] {
	if p == nil {
		return NotSubmitted[T]()
	}
	return Submitted(*p)
}

// =====================================================
// BUYER INFO
// =====================================================
type BuyerInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// NewBuyerInfo normalises and validates buyer contact data
func NewBuyerInfo(email, firstName, lastName, phone string) (BuyerInfo, error) {
	b := BuyerInfo{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Phone:     strings.TrimSpace(phone),
	}
	if err := b.Validate(); err != nil {
		return BuyerInfo{}, err
	}
	return b, nil
}

func (b BuyerInfo) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Email, validation.Required, is.EmailFormat, validation.Length(3, 254)),
		validation.Field(&b.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&b.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&b.Phone, validation.Length(6, 20), is.E164.Error("must be an E.164 phone number")),
	)
}

// FullName returns "First Last"
func (b BuyerInfo) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// =====================================================
// DELIVERY ADDRESS
// =====================================================
type DeliveryAddress struct {
	RecipientName string `json:"recipient_name"`
	Street        string `json:"street"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	Phone         string `json:"phone,omitempty"`
}

func NewDeliveryAddress(recipient, street, city, postalCode, country, phone string) (DeliveryAddress, error) {
	a := DeliveryAddress{
		RecipientName: strings.TrimSpace(recipient),
		Street:        strings.TrimSpace(street),
		City:          strings.TrimSpace(city),
		PostalCode:    strings.TrimSpace(postalCode),
		Country:       strings.ToUpper(strings.TrimSpace(country)),
		Phone:         strings.TrimSpace(phone),
	}
	if err := a.Validate(); err != nil {
		return DeliveryAddress{}, err
	}
	return a, nil
}

func (a DeliveryAddress) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.RecipientName, validation.Required, validation.Length(1, 200)),
		validation.Field(&a.Street, validation.Required, validation.Length(1, 255)),
		validation.Field(&a.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&a.PostalCode, validation.Required, validation.Length(2, 16)),
		validation.Field(&a.Country, validation.Required, is.CountryCode2),
		validation.Field(&a.Phone, validation.Length(6, 20)),
	)
}

// =====================================================
// SHIPPING OPTION
// =====================================================
type ShippingOption struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Cost          decimal.Decimal `json:"cost"`
	EstimatedDays int             `json:"estimated_days"`
}

func NewShippingOption(code, name string, cost decimal.Decimal, estimatedDays int) (ShippingOption, error) {
	o := ShippingOption{
		Code:          strings.TrimSpace(code),
		Name:          strings.TrimSpace(name),
		Cost:          cost,
		EstimatedDays: estimatedDays,
	}
	if err := o.Validate(); err != nil {
		return ShippingOption{}, err
	}
	return o, nil
}

func (o ShippingOption) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Code, validation.Required, validation.Length(1, 50)),
		validation.Field(&o.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&o.Cost, validation.By(nonNegativeAmount)),
		validation.Field(&o.EstimatedDays, validation.Min(0), validation.Max(90)),
	)
}

// =====================================================
// PAYMENT SELECTION
// =====================================================
type PaymentSelection struct {
	Method      string `json:"method"`
	DisplayName string `json:"display_name,omitempty"`
}

func NewPaymentSelection(method, displayName string) (PaymentSelection, error) {
	p := PaymentSelection{
		Method:      strings.ToLower(strings.TrimSpace(method)),
		DisplayName: strings.TrimSpace(displayName),
	}
	if err := p.Validate(); err != nil {
		return PaymentSelection{}, err
	}
	return p, nil
}

func (p PaymentSelection) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Method, validation.Required, validation.Length(1, 50)),
		validation.Field(&p.DisplayName, validation.Length(0, 100)),
	)
}

func nonNegativeAmount(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a decimal amount")
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}
