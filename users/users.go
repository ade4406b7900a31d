package users

import "github.com/jrsteele09/cirota-portal/wiretime"

// User is the authenticated principal as returned by /api/auth/me.
// IsAdmin is a capability flag; it selects the admin views and carries no
// further meaning on the client.
type User struct {
	ID       int    `json:"id"`                  // Unique identifier for the user
	GoogleID string `json:"google_id,omitempty"` // Subject of the Google account the user signed in with
	Name     string `json:"name,omitempty"`      // Display name
	Email    string `json:"email,omitempty"`     // User's email address
	IsAdmin  bool   `json:"is_admin"`            // Admin capability flag

	// Personalisation profile
	Age               *int     `json:"age,omitempty"`
	Gender            *string  `json:"gender,omitempty"`
	HeightCm          *float64 `json:"height_cm,omitempty"`
	WeightKg          *float64 `json:"weight_kg,omitempty"`
	DietaryPreference *string  `json:"dietary_preference,omitempty"`
	SpiceLevel        *string  `json:"spice_level,omitempty"`
	Allergies         []string `json:"allergies,omitempty"`
	DislikedFoods     []string `json:"disliked_foods,omitempty"`
	HealthConditions  []string `json:"health_conditions,omitempty"`
	HealthGoals       *string  `json:"health_goals,omitempty"`

	CreatedAt *wiretime.Time `json:"created_at,omitempty"`
	UpdatedAt *wiretime.Time `json:"updated_at,omitempty"`
}

// Valid reports whether the record identifies a principal. The server never
// issues id 0.
func (u *User) Valid() bool {
	return u != nil && u.ID != 0
}

// Admin reports whether u is a valid principal with the admin flag set.
func (u *User) Admin() bool {
	return u.Valid() && u.IsAdmin
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Allergies = cloneStrings(u.Allergies)
	c.DislikedFoods = cloneStrings(u.DislikedFoods)
	c.HealthConditions = cloneStrings(u.HealthConditions)
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
