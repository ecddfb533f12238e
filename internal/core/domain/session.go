package domain

import "time"

// DeviceType classifies the client device reported at login.
type DeviceType string

const (
	DeviceTypeMobile  DeviceType = "mobile"
	DeviceTypeTablet  DeviceType = "tablet"
	DeviceTypeLaptop  DeviceType = "laptop"
	DeviceTypeUnknown DeviceType = "unknown"
)

// ParseDeviceType normalises textual input into a supported device type.
func ParseDeviceType(value string) DeviceType {
	switch DeviceType(value) {
	case DeviceTypeMobile, DeviceTypeTablet, DeviceTypeLaptop:
		return DeviceType(value)
	default:
		return DeviceTypeUnknown
	}
}

// Session represents one authenticated login context for a user on one device.
// The stored refresh token hash is the single server-side anchor for the
// session's current refresh credential; it changes on every rotation.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	DeviceType       DeviceType
	DeviceName       *string
	UserAgent        *string
	IPAddress        *string
	LoginAt          time.Time
	LogoutAt         *time.Time
	IsRevoked        bool
}

// IsActive reports whether the session may still rotate credentials.
func (s Session) IsActive() bool {
	return !s.IsRevoked && s.LogoutAt == nil
}

// Revoke marks the session as terminally closed. Returns true when the
// session changed state; revoking twice is a no-op.
func (s *Session) Revoke(at time.Time) bool {
	if s.IsRevoked {
		return false
	}
	s.IsRevoked = true
	s.LogoutAt = &at
	return true
}
