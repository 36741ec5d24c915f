package storage

import "time"

// AuthMode selects which biometric factor(s) a field terminal requires.
// The integer values are fixed by the terminal firmware, do not reorder.
type AuthMode int

const (
	AuthModeFace AuthMode = iota
	AuthModeVein
	AuthModeFaceAndVein
)

func (m AuthMode) Valid() bool {
	return m >= AuthModeFace && m <= AuthModeFaceAndVein
}

func (m AuthMode) String() string {
	switch m {
	case AuthModeFace:
		return "Face"
	case AuthModeVein:
		return "Vein"
	case AuthModeFaceAndVein:
		return "FaceAndVein"
	default:
		return "Unknown"
	}
}

type ChangeType string

const (
	ChangeCreate ChangeType = "CREATE"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Device is an authentication terminal. SerialNo is either a manually
// assigned ID or the hardware-reported serial; it never changes after
// registration.
type Device struct {
	SerialNo    string    `db:"serial_no" json:"serialNo"`
	DeviceName  string    `db:"device_name" json:"deviceName"`
	AuthMode    AuthMode  `db:"auth_mode" json:"authMode"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	LastUpdated time.Time `db:"last_updated" json:"lastUpdated"`
}

// DeviceLog is one append-only audit entry describing a device mutation.
// Rows are kept when the device itself is deleted.
type DeviceLog struct {
	ID            int64      `db:"id" json:"id"`
	SerialNo      string     `db:"serial_no" json:"serialNo"`
	ChangeType    ChangeType `db:"change_type" json:"changeType"`
	ChangeDetails string     `db:"change_details" json:"changeDetails"`
	Timestamp     time.Time  `db:"timestamp" json:"timestamp"`
	AdminUser     string     `db:"admin_user" json:"adminUser"`
}

type AdminUser struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// AdminUserLog mirrors DeviceLog for admin account mutations.
type AdminUserLog struct {
	ID            int64      `db:"id" json:"id"`
	Username      string     `db:"username" json:"username"`
	ChangeType    ChangeType `db:"change_type" json:"changeType"`
	ChangeDetails string     `db:"change_details" json:"changeDetails"`
	Timestamp     time.Time  `db:"timestamp" json:"timestamp"`
	AdminUser     string     `db:"admin_user" json:"adminUser"`
}

// AuthLog is one authentication attempt reported by a field terminal.
// The console only ever inserts and reads these.
type AuthLog struct {
	ID           int64     `db:"id" json:"id"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
	UserID       string    `db:"user_id" json:"userId"`
	UserName     string    `db:"user_name" json:"userName,omitempty"`
	DeviceName   string    `db:"device_name" json:"deviceName"`
	SerialNo     string    `db:"serial_no" json:"serialNo"`
	AuthMode     AuthMode  `db:"auth_mode" json:"authMode"`
	IsSuccess    bool      `db:"is_success" json:"isSuccess"`
	ErrorMessage string    `db:"error_message" json:"errorMessage,omitempty"`
}
