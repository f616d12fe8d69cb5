package mock

import (
	"time"

	"github.com/cliphive/cliphive/db"
)

// Compile-time checks to ensure Db implements the store interfaces
var _ db.DbAuth = (*Db)(nil)
var _ db.DbRegistration = (*Db)(nil)

// Db implements the store interfaces for testing purposes.
// Use function fields to allow overriding behavior in specific tests.
// Unset Get functions default to "not found" (nil, nil); unset write
// functions default to success.
type Db struct {
	// --- Mock DbAuth Methods ---
	GetUserByEmailFunc      func(email string) (*db.User, error)
	GetUserByUsernameFunc   func(username string) (*db.User, error)
	GetUserByIdentityFunc   func(identity string) (*db.User, error)
	GetUserByIdFunc         func(id string) (*db.User, error)
	CreateUserFunc          func(user db.User) (*db.User, error)
	UpdateEmailFunc         func(userId string, newEmail string) error
	UpdatePasswordFunc      func(userId string, newPassword string) error
	UpdateRefreshTokenFunc  func(userId string, token string) error
	SetResetOtpFunc         func(userId string, otp string, expiry time.Time) error
	ClearResetOtpFunc       func(userId string) error
	SetEmailChangeOtpFunc   func(userId string, otp string, expiry time.Time) error
	ClearEmailChangeOtpFunc func(userId string) error

	// --- Mock DbRegistration Methods ---
	GetRegistrationFunc    func(email string) (*db.PendingRegistration, error)
	UpsertRegistrationFunc func(reg db.PendingRegistration) error
	DeleteRegistrationFunc func(email string) error
}

// --- Implement DbAuth ---

func (m *Db) GetUserByEmail(email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(email)
	}
	return nil, nil
}

func (m *Db) GetUserByUsername(username string) (*db.User, error) {
	if m.GetUserByUsernameFunc != nil {
		return m.GetUserByUsernameFunc(username)
	}
	return nil, nil
}

func (m *Db) GetUserByIdentity(identity string) (*db.User, error) {
	if m.GetUserByIdentityFunc != nil {
		return m.GetUserByIdentityFunc(identity)
	}
	return nil, nil
}

func (m *Db) GetUserById(id string) (*db.User, error) {
	if m.GetUserByIdFunc != nil {
		return m.GetUserByIdFunc(id)
	}
	return nil, nil
}

func (m *Db) CreateUser(user db.User) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(user)
	}
	return &user, nil
}

func (m *Db) UpdateEmail(userId string, newEmail string) error {
	if m.UpdateEmailFunc != nil {
		return m.UpdateEmailFunc(userId, newEmail)
	}
	return nil
}

func (m *Db) UpdatePassword(userId string, newPassword string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(userId, newPassword)
	}
	return nil
}

func (m *Db) UpdateRefreshToken(userId string, token string) error {
	if m.UpdateRefreshTokenFunc != nil {
		return m.UpdateRefreshTokenFunc(userId, token)
	}
	return nil
}

func (m *Db) SetResetOtp(userId string, otp string, expiry time.Time) error {
	if m.SetResetOtpFunc != nil {
		return m.SetResetOtpFunc(userId, otp, expiry)
	}
	return nil
}

func (m *Db) ClearResetOtp(userId string) error {
	if m.ClearResetOtpFunc != nil {
		return m.ClearResetOtpFunc(userId)
	}
	return nil
}

func (m *Db) SetEmailChangeOtp(userId string, otp string, expiry time.Time) error {
	if m.SetEmailChangeOtpFunc != nil {
		return m.SetEmailChangeOtpFunc(userId, otp, expiry)
	}
	return nil
}

func (m *Db) ClearEmailChangeOtp(userId string) error {
	if m.ClearEmailChangeOtpFunc != nil {
		return m.ClearEmailChangeOtpFunc(userId)
	}
	return nil
}

// --- Implement DbRegistration ---

func (m *Db) GetRegistration(email string) (*db.PendingRegistration, error) {
	if m.GetRegistrationFunc != nil {
		return m.GetRegistrationFunc(email)
	}
	return nil, nil
}

func (m *Db) UpsertRegistration(reg db.PendingRegistration) error {
	if m.UpsertRegistrationFunc != nil {
		return m.UpsertRegistrationFunc(reg)
	}
	return nil
}

func (m *Db) DeleteRegistration(email string) error {
	if m.DeleteRegistrationFunc != nil {
		return m.DeleteRegistrationFunc(email)
	}
	return nil
}
