// Package services is the single source of truth for the clinic's service
// types and their appointment durations.
package services

import (
	"errors"
	"sort"
	"time"
)

// ServiceType identifies a bookable service.
type ServiceType string

const (
	Consultation        ServiceType = "consultation"
	PapTest             ServiceType = "pap_test"
	ConsultationPap     ServiceType = "consultation_pap"
	IUDInsertion        ServiceType = "iud_insertion"
	IUDRemoval          ServiceType = "iud_removal"
	Biopsy              ServiceType = "biopsy"
	RegenerativeTherapy ServiceType = "regenerative_therapy"
)

// DefaultDuration is the base scheduling unit.
const DefaultDuration = 20 * time.Minute

// ErrUnknownService is returned for service types outside the catalog.
// Callers translate it to their invalid-service rejection.
var ErrUnknownService = errors.New("services: unknown service type")

var durations = map[ServiceType]time.Duration{
	Consultation:        20 * time.Minute,
	PapTest:             20 * time.Minute,
	ConsultationPap:     30 * time.Minute,
	IUDInsertion:        40 * time.Minute,
	IUDRemoval:          40 * time.Minute,
	Biopsy:              40 * time.Minute,
	RegenerativeTherapy: 40 * time.Minute,
}

// ResolveDuration looks up the fixed duration for a service type.
func ResolveDuration(s ServiceType) (time.Duration, error) {
	d, ok := durations[s]
	if !ok {
		return 0, ErrUnknownService
	}
	return d, nil
}

// IsSpecialCaseService reports whether the service may be placed in any open
// slot regardless of residual time to close of day, with conflict checking
// degraded to exact-start matches. Applies to regenerative therapy only.
func IsSpecialCaseService(s ServiceType) bool {
	return s == RegenerativeTherapy
}

// IsExtended reports whether the service exceeds the default 20-minute unit.
func IsExtended(s ServiceType) bool {
	d, ok := durations[s]
	return ok && d > DefaultDuration
}

// All returns the catalog in stable order.
func All() []ServiceType {
	out := make([]ServiceType, 0, len(durations))
	for s := range durations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
