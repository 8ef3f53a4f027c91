package reelauth

import (
	"context"
	"fmt"

	"github.com/reelauth/reelauth/internal/audit"
)

// Login verifies an email/password pair against the user directory and
// issues a token pair. Unknown email and wrong password are
// indistinguishable to the caller.
func (e *Engine) Login(ctx context.Context, email, pass string) (TokenPair, *User, error) {
	if !e.ready() {
		return TokenPair{}, nil, ErrEngineNotReady
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.emitAudit(ctx, audit.TypeLogin, 0, email, err)
		return TokenPair{}, nil, err
	}
	if user == nil {
		e.emitAudit(ctx, audit.TypeLogin, 0, email, ErrInvalidCredentials)
		return TokenPair{}, nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(pass, user.PasswordHash)
	if err != nil || !ok {
		e.emitAudit(ctx, audit.TypeLogin, user.ID, email, auditCause(ErrInvalidCredentials, err))
		return TokenPair{}, nil, ErrInvalidCredentials
	}

	pair, err := e.Issue(ctx, *user)
	if err != nil {
		return TokenPair{}, nil, err
	}

	e.emitAudit(ctx, audit.TypeLogin, user.ID, email, nil)

	return pair, user, nil
}

// HashPassword derives a storable hash for a new credential. Applications
// use this when creating accounts so stored hashes match what Login
// verifies.
func (e *Engine) HashPassword(pass string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	return e.hasher.Hash(pass)
}

// ChangePassword verifies the caller's current password, stores the new
// hash, and revokes every session of the account, the presented one
// included. Clients must log in again.
func (e *Engine) ChangePassword(ctx context.Context, accessToken, oldPass, newPass string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	principal, err := mapValidate(e.flows.Validate(ctx, accessToken))
	if err != nil {
		e.emitAudit(ctx, audit.TypePasswordChange, 0, "", err)
		return err
	}

	user, err := e.users.FindByID(ctx, principal.UserID)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.emitAudit(ctx, audit.TypePasswordChange, principal.UserID, principal.Email, err)
		return err
	}
	if user == nil {
		e.emitAudit(ctx, audit.TypePasswordChange, principal.UserID, principal.Email, ErrUserNotFound)
		return ErrUserNotFound
	}

	ok, err := e.hasher.Verify(oldPass, user.PasswordHash)
	if err != nil || !ok {
		e.emitAudit(ctx, audit.TypePasswordChange, user.ID, user.Email, auditCause(ErrInvalidCredentials, err))
		return ErrInvalidCredentials
	}

	hash, err := e.hasher.Hash(newPass)
	if err != nil {
		e.emitAudit(ctx, audit.TypePasswordChange, user.ID, user.Email, err)
		return err
	}
	if err := e.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.emitAudit(ctx, audit.TypePasswordChange, user.ID, user.Email, err)
		return err
	}

	if err := e.RevokeAll(ctx, user.ID, accessToken); err != nil {
		return err
	}

	e.emitAudit(ctx, audit.TypePasswordChange, user.ID, user.Email, nil)

	return nil
}

// DeleteAccount revokes every session of the caller and removes the
// account from the user directory.
func (e *Engine) DeleteAccount(ctx context.Context, accessToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	principal, err := mapValidate(e.flows.Validate(ctx, accessToken))
	if err != nil {
		e.emitAudit(ctx, audit.TypeAccountDelete, 0, "", err)
		return err
	}

	if err := e.RevokeAll(ctx, principal.UserID, accessToken); err != nil {
		return err
	}

	if err := e.users.DeleteByID(ctx, principal.UserID); err != nil {
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.emitAudit(ctx, audit.TypeAccountDelete, principal.UserID, principal.Email, err)
		return err
	}

	e.emitAudit(ctx, audit.TypeAccountDelete, principal.UserID, principal.Email, nil)

	return nil
}
