package ban

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrBadDuration is raised for duration codes that are not a positive
	// integer followed by exactly one unit letter.
	ErrBadDuration = errors.New("ban: invalid duration code")

	// ErrSuperAdminImmune is raised when a ban targets a SUPER-ADMIN holder.
	ErrSuperAdminImmune = errors.New("ban: super admin cannot be banned")

	ErrNotFound = errors.New("ban: not found")
)

// TypeBan is the only ban type in use. The schema reserves banPermissions
// for a future per-permission ban ("PERMIT"), but a ban constrains the
// identity, not a permission set.
const TypeBan = "BAN"

// Ban is a time-boxed restriction on a user. Activity is never stored: it is
// derived from (BanExpire, now) at read time, so an expired ban can never be
// reported active no matter how long nothing touches it. Lifted records
// manual revocation only.
type Ban struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	BannedUserID   string    `json:"banned_user_id" bson:"bannedUserID"`
	BanIssuedUser  string    `json:"ban_issued_user_id" bson:"banIssuedUserID"`
	BanType        string    `json:"ban_type" bson:"banType"`
	BanPermissions []string  `json:"ban_permissions,omitempty" bson:"banPermissions,omitempty"`
	BanStart       time.Time `json:"ban_start" bson:"banStart"`
	BanDuration    string    `json:"ban_duration" bson:"banDuration"`
	BanExpire      time.Time `json:"ban_expire" bson:"banExpire"`
	Lifted         bool      `json:"lifted" bson:"lifted"`
	Description    string    `json:"description" bson:"description"`
	CreatedAt      time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updatedAt"`
}

// Active reports whether the ban restricts the user at the given instant.
// True strictly before expiry, false at and after it.
func (b Ban) Active(now time.Time) bool {
	return !b.Lifted && now.Before(b.BanExpire)
}

// ParseDuration parses a compact ban duration code: an integer followed by a
// single unit letter (s, m, h, d). time.ParseDuration is not used because
// "d" is not valid Go duration syntax and codes carry exactly one unit.
func ParseDuration(code string) (time.Duration, error) {
	code = strings.TrimSpace(code)
	if len(code) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, code)
	}
	unit := code[len(code)-1]
	n, err := strconv.Atoi(code[:len(code)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, code)
	}
	switch unit {
	case 's':
		return time.Duration(n) * time.Second, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, code)
	}
}
