package consent

// GDPR carries the GDPR portion of a consent signal as delivered by the
// consent-management collaborator.
type GDPR struct {
	Applies       bool   `json:"gdprApplies"`
	ConsentString string `json:"consentString"`
}

// Signal represents user consent under GDPR and US state privacy law.
// Absence of either sub-field means "consent not established" for that
// regime, never an error.
type Signal struct {
	GDPR      *GDPR  `json:"gdpr,omitempty"`
	USPrivacy string `json:"uspConsent,omitempty"`
}

// GDPRApplies reports whether the GDPR regime applies. It is true only
// when the signal is present, its gdpr sub-mapping is present, and
// gdprApplies is set. Every other combination means "does not apply".
func (s *Signal) GDPRApplies() bool {
	return s != nil && s.GDPR != nil && s.GDPR.Applies
}

// GDPRConsentString returns the consent string when the regime applies,
// otherwise the empty string.
func (s *Signal) GDPRConsentString() string {
	if !s.GDPRApplies() {
		return ""
	}
	return s.GDPR.ConsentString
}

// USPrivacyString returns the US privacy string, empty when the signal
// is absent.
func (s *Signal) USPrivacyString() string {
	if s == nil {
		return ""
	}
	return s.USPrivacy
}
