// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Approval errors.
var (
	// ErrApprovalRequired is returned when a code is configured but none was given.
	ErrApprovalRequired = errors.New("approval code required")

	// ErrApprovalInvalid is returned for a wrong or expired code.
	ErrApprovalInvalid = errors.New("invalid approval code")
)

// Approver gates submissions behind a TOTP code.
// A nil or zero Approver approves everything.
type Approver struct {
	secret string
}

// NewApprover creates an Approver for a base32 TOTP secret.
// An empty secret disables approval.
func NewApprover(secret string) *Approver {
	return &Approver{secret: strings.TrimSpace(secret)}
}

// Enabled reports whether codes are required.
func (a *Approver) Enabled() bool {
	return a != nil && a.secret != ""
}

// Check validates code against the current time window.
func (a *Approver) Check(code string) error {
	if !a.Enabled() {
		return nil
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrApprovalRequired
	}
	if !totp.Validate(code, a.secret) {
		return ErrApprovalInvalid
	}
	return nil
}

// GenerateApprovalKey creates a new TOTP key for account.
// Store key.Secret() as verify.totp_secret and enroll key.URL() in an authenticator app.
func GenerateApprovalKey(account string) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "seqdiff",
		AccountName: account,
	})
	if err != nil {
		return nil, fmt.Errorf("verify: generate approval key: %w", err)
	}
	return key, nil
}
