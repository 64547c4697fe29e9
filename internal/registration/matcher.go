package registration

import (
	"log/slog"

	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
)

// MatchThreshold is the number of claimed optional fields that must equal the
// candidate's attributes for a match to be accepted.
const MatchThreshold = 3

// Matcher decides whether a claim identifies exactly one employee record. It
// is stateless: the outcome is a pure function of the claim and the pool.
type Matcher struct {
	norm   *Normalizer
	logger *slog.Logger
}

func NewMatcher(norm *Normalizer, logger *slog.Logger) *Matcher {
	return &Matcher{norm: norm, logger: logger}
}

// ProvidedFieldCount reports how many optional claim fields survive
// normalization. A date of birth that cannot be parsed counts as not
// provided, the same as an empty field.
func (m *Matcher) ProvidedFieldCount(claim Claim) int {
	count := 0
	for _, v := range []string{
		m.norm.Name(claim.LastName),
		m.norm.EmployeeID(claim.EmployeeID),
		m.norm.Date(claim.DateOfBirth),
		m.norm.Phone(claim.Phone),
		m.norm.Passcode(claim.Passcode),
		m.norm.Postcode(claim.Postcode),
	} {
		if v != "" {
			count++
		}
	}
	return count
}

// Match filters the pool by normalized email and scores the candidate's
// optional fields against the claim. Fields the claimant left empty are never
// compared and never counted. At least MatchThreshold matching fields accept.
//
// The upstream query is expected to return at most one record per email; when
// it does not, the first record wins and the ambiguity is logged.
func (m *Matcher) Match(claim Claim, pool []employee.Record) (*employee.Record, bool) {
	email := m.norm.Email(claim.Email)
	if email == "" {
		return nil, false
	}

	var candidates []employee.Record
	for _, rec := range pool {
		if m.norm.Email(rec.Email) == email {
			candidates = append(candidates, rec)
		}
	}

	if len(candidates) == 0 {
		return nil, false
	}
	if len(candidates) > 1 {
		m.logger.Warn("multiple employee records share one email, using first",
			"candidates", len(candidates))
	}

	candidate := candidates[0]
	if m.score(claim, candidate) >= MatchThreshold {
		return &candidate, true
	}

	return nil, false
}

func (m *Matcher) score(claim Claim, rec employee.Record) int {
	matches := 0

	if v := m.norm.Name(claim.LastName); v != "" {
		if m.norm.Name(rec.LastName) == v {
			matches++
		}
	}

	if v := m.norm.EmployeeID(claim.EmployeeID); v != "" {
		if m.norm.EmployeeID(rec.EmployeeID) == v {
			matches++
		}
	}

	if v := m.norm.Date(claim.DateOfBirth); v != "" {
		if m.norm.Date(rec.DateOfBirth) == v {
			matches++
		}
	}

	if v := m.norm.Phone(claim.Phone); v != "" {
		// The platform exposes both a raw and a pre-normalized phone
		// attribute; either may match.
		if m.norm.Phone(rec.Phone) == v || m.norm.Phone(rec.NormalisedPhone) == v {
			matches++
		}
	}

	if v := m.norm.Passcode(claim.Passcode); v != "" {
		if m.norm.Passcode(rec.Passcode) == v {
			matches++
		}
	}

	if v := m.norm.Postcode(claim.Postcode); v != "" {
		if m.norm.Postcode(rec.Postcode) == v {
			matches++
		}
	}

	return matches
}
