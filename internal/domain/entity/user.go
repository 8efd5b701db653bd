package entity

import "time"

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleBoth   = "both"
)

type Verifications struct {
	EmailVerified            bool       `json:"email_verified" firestore:"emailVerified"`
	PhoneVerified            bool       `json:"phone_verified" firestore:"phoneVerified"`
	EmailVerificationToken   string     `json:"-" firestore:"emailVerificationToken,omitempty"`
	EmailVerificationExpires *time.Time `json:"-" firestore:"emailVerificationExpires,omitempty"`
	PhoneVerificationCode    string     `json:"-" firestore:"phoneVerificationCode,omitempty"`
	PhoneVerificationExpires *time.Time `json:"-" firestore:"phoneVerificationExpires,omitempty"`
}

type Rating struct {
	Average float64 `json:"average" firestore:"average"`
	Count   int     `json:"count" firestore:"count"`
}

type NotificationPrefs struct {
	Email bool `json:"email" firestore:"email"`
	SMS   bool `json:"sms" firestore:"sms"`
	Push  bool `json:"push" firestore:"push"`
}

// SubscriptionSnapshot is the denormalized view of the user's current
// subscription kept on the user document.
type SubscriptionSnapshot struct {
	Active    bool       `json:"active" firestore:"active"`
	Plan      string     `json:"plan,omitempty" firestore:"plan,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" firestore:"expiresAt,omitempty"`
	AutoRenew bool       `json:"auto_renew" firestore:"autoRenew"`
}

type User struct {
	ID       string `json:"id" firestore:"id"`
	Name     string `json:"name" firestore:"name"`
	Email    string `json:"email" firestore:"email"`
	Phone    string `json:"phone" firestore:"phone"`
	TaxID    string `json:"tax_id" firestore:"taxId"`
	Password string `json:"-" firestore:"password"`
	Role     string `json:"role" firestore:"role"` // buyer, seller, both
	Address  string `json:"address,omitempty" firestore:"address,omitempty"`

	Verifications Verifications        `json:"verifications" firestore:"verifications"`
	Rating        Rating               `json:"rating" firestore:"rating"`
	Favorites     []string             `json:"favorites" firestore:"favorites"`
	Subscription  SubscriptionSnapshot `json:"subscription" firestore:"subscription"`
	Notifications NotificationPrefs    `json:"notifications" firestore:"notifications"`

	ResetPasswordToken   string     `json:"-" firestore:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time `json:"-" firestore:"resetPasswordExpires,omitempty"`

	LastLogin *time.Time `json:"last_login,omitempty" firestore:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time  `json:"updated_at" firestore:"updatedAt"`
}

// CanSell reports whether the user may create listings: sellers only, with
// both contact channels verified.
func (u *User) CanSell() bool {
	return u.Role != RoleBuyer && u.Verifications.EmailVerified && u.Verifications.PhoneVerified
}

func (u *User) HasFavorite(listingID string) bool {
	for _, id := range u.Favorites {
		if id == listingID {
			return true
		}
	}
	return false
}
