package models

// SignupDraft holds what the user typed in signup mode. It is discarded once
// verification completes or the user goes back to login.
type SignupDraft struct {
	Email           string
	Password        string
	PasswordConfirm string
	Name            string
	Department      string
}

// VerificationChallenge exists between a signup that requires confirmation
// and the moment the code is accepted or abandoned. The server is
// authoritative for its validity and expiry.
type VerificationChallenge struct {
	Email string
	Code  string
}
