package domain

import (
	"fmt"
	"time"
)

// TariffSegment возрастной сегмент тарифа
type TariffSegment string

const (
	SegmentChild   TariffSegment = "CHILD"
	SegmentYouth   TariffSegment = "YOUTH"
	SegmentStudent TariffSegment = "STUDENT"
	SegmentAdult   TariffSegment = "ADULT"
	SegmentSenior  TariffSegment = "SENIOR"
)

func ParseTariffSegment(s string) (TariffSegment, error) {
	switch seg := TariffSegment(s); seg {
	case SegmentChild, SegmentYouth, SegmentStudent, SegmentAdult, SegmentSenior:
		return seg, nil
	}
	return "", fmt.Errorf("unknown tariff segment %q", s)
}

// AgeBasedTariff скидочный тариф для возрастного сегмента
type AgeBasedTariff struct {
	ID         int64
	Segment    TariffSegment
	Name       string
	MinAge     int
	MaxAge     *int // nil - без верхней границы
	Discount   float64
	IsActive   bool
	ValidFrom  *time.Time
	ValidUntil *time.Time
	CourtIDs   []int64 // пусто - тариф действует на всех кортах

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AcceptsAge возраст внутри [MinAge, MaxAge]
func (t *AgeBasedTariff) AcceptsAge(age int) bool {
	if age < t.MinAge {
		return false
	}
	return t.MaxAge == nil || age <= *t.MaxAge
}

// IsValidAt тариф активен и now попадает в окно действия
func (t *AgeBasedTariff) IsValidAt(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.ValidFrom != nil && now.Before(*t.ValidFrom) {
		return false
	}
	if t.ValidUntil != nil && !now.Before(*t.ValidUntil) {
		return false
	}
	return true
}

// NormalizeDiscount приводит скидку к доле 0..1
// Значения до 1 включительно считаются долей, от 1 до 100 - процентами
func NormalizeDiscount(v float64) (float64, error) {
	switch {
	case v < 0 || v > 100:
		return 0, fmt.Errorf("discount %v out of range", v)
	case v <= 1:
		return v, nil
	default:
		return v / 100, nil
	}
}

// ValidateAgeBand minAge >= 0, maxAge не меньше minAge
func ValidateAgeBand(minAge int, maxAge *int) error {
	if minAge < 0 {
		return fmt.Errorf("minAge must not be negative")
	}
	if maxAge != nil && *maxAge < minAge {
		return fmt.Errorf("maxAge %d is less than minAge %d", *maxAge, minAge)
	}
	return nil
}

// ValidateValidity конец окна действия строго позже начала
func ValidateValidity(from, until *time.Time) error {
	if from != nil && until != nil && !until.After(*from) {
		return fmt.Errorf("validUntil must be after validFrom")
	}
	return nil
}

// TariffFilter фильтр списка тарифов
type TariffFilter struct {
	Segment    *TariffSegment
	ActiveOnly bool
}
