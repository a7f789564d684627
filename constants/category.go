package constants

import (
	"strings"
)

// RecordType tags the variant stored in record.json.
type RecordType string

const (
	Enquiry RecordType = "enquiry"
	Quote   RecordType = "quote"
	Booking RecordType = "booking"
)

var allRecordTypes = []RecordType{
	Enquiry,
	Quote,
	Booking,
}

// AllRecordTypes returns every record type in display order.
func AllRecordTypes() []RecordType {
	out := make([]RecordType, len(allRecordTypes))
	copy(out, allRecordTypes)
	return out
}

// ParseRecordType maps user input to a RecordType.
func ParseRecordType(s string) (RecordType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range allRecordTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// HasDocuments reports whether records of this type carry uploaded documents.
func (t RecordType) HasDocuments() bool {
	return t == Quote || t == Booking
}

// Label is the human label used on dashboards and exports.
func (t RecordType) Label() string {
	switch t {
	case Enquiry:
		return "Enquiry"
	case Quote:
		return "Quote"
	case Booking:
		return "Booking"
	}
	return string(t)
}

// Communication directions.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// DefaultCommunicationMethod is used when no method is given.
const DefaultCommunicationMethod = "Unspecified"

// NormalizeDirection returns a known direction, defaulting to incoming.
func NormalizeDirection(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), DirectionOutgoing) {
		return DirectionOutgoing
	}
	return DirectionIncoming
}
