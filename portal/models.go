package portal

import (
	"github.com/jrsteele09/cirota-portal/wiretime"
)

// Delivery status values of a MealAssignment.
const (
	DeliveryPending   = "PENDING"
	DeliveryDelivered = "DELIVERED"
)

// Complaint status values.
const (
	ComplaintOpen     = "OPEN"
	ComplaintResolved = "RESOLVED"
)

// UserUpdate is a partial profile update; nil fields are left unchanged.
type UserUpdate struct {
	Name              *string  `json:"name,omitempty"`
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
}

// QuizSubmission is the personalisation quiz.
type QuizSubmission struct {
	DietaryPreference string   `json:"dietary_preference"`
	SpiceLevel        string   `json:"spice_level"`
	Allergies         []string `json:"allergies"`
	DislikedFoods     []string `json:"disliked_foods"`
	HealthConditions  []string `json:"health_conditions"`
	HealthGoals       string   `json:"health_goals"`
	TargetWeightKg    *float64 `json:"target_weight_kg,omitempty"`
	ActivityLevel     *string  `json:"activity_level,omitempty"`
}

type QuizResponse struct {
	Message     string        `json:"message"`
	SubmittedAt wiretime.Time `json:"submitted_at"`
}

// Message is the body of endpoints that only acknowledge.
type Message struct {
	Message string `json:"message"`
}

type Meal struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Description  *string       `json:"description,omitempty"`
	MealType     string        `json:"meal_type"`
	Ingredients  []string      `json:"ingredients"`
	Calories     int           `json:"calories"`
	ProteinG     *float64      `json:"protein_g,omitempty"`
	CarbsG       *float64      `json:"carbs_g,omitempty"`
	FatsG        *float64      `json:"fats_g,omitempty"`
	DietaryTags  []string      `json:"dietary_tags,omitempty"`
	IsVegetarian *bool         `json:"is_vegetarian,omitempty"`
	SpiceLevel   *string       `json:"spice_level,omitempty"`
	IsActive     *bool         `json:"is_active,omitempty"`
	CreatedAt    wiretime.Time `json:"created_at"`
}

// MealCreate is the body of Admin.CreateMeal. Calories must be positive.
type MealCreate struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description,omitempty"`
	MealType     string   `json:"meal_type"`
	Ingredients  []string `json:"ingredients"`
	Calories     int      `json:"calories"`
	ProteinG     *float64 `json:"protein_g,omitempty"`
	CarbsG       *float64 `json:"carbs_g,omitempty"`
	FatsG        *float64 `json:"fats_g,omitempty"`
	DietaryTags  []string `json:"dietary_tags,omitempty"`
	IsVegetarian *bool    `json:"is_vegetarian,omitempty"`
	SpiceLevel   *string  `json:"spice_level,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

// MealUpdate is a partial meal update; nil fields are left unchanged.
type MealUpdate struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	MealType     *string  `json:"meal_type,omitempty"`
	Ingredients  []string `json:"ingredients,omitempty"`
	Calories     *int     `json:"calories,omitempty"`
	ProteinG     *float64 `json:"protein_g,omitempty"`
	CarbsG       *float64 `json:"carbs_g,omitempty"`
	FatsG        *float64 `json:"fats_g,omitempty"`
	DietaryTags  []string `json:"dietary_tags,omitempty"`
	IsVegetarian *bool    `json:"is_vegetarian,omitempty"`
	SpiceLevel   *string  `json:"spice_level,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

// MealAssignment is a meal scheduled for a customer on a day.
type MealAssignment struct {
	ID             int            `json:"id"`
	UserID         int            `json:"user_id"`
	Meal           Meal           `json:"meal"`
	AssignmentDate wiretime.Date  `json:"assignment_date"`
	DeliveryStatus string         `json:"delivery_status"`
	DeliveredAt    *wiretime.Time `json:"delivered_at,omitempty"`
}

type Plan struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	DurationDays int     `json:"duration_days"`
	PricePerDay  float64 `json:"price_per_day"`
	Description  *string `json:"description,omitempty"`
	IsActive     bool    `json:"is_active"`
}

type Subscription struct {
	ID        int           `json:"id"`
	UserID    int           `json:"user_id"`
	Plan      Plan          `json:"plan"`
	StartDate wiretime.Date `json:"start_date"`
	EndDate   wiretime.Date `json:"end_date"`
	Status    string        `json:"status"`
	CreatedAt wiretime.Time `json:"created_at"`
}

type ComplaintCreate struct {
	AssignmentID int    `json:"assignment_id"`
	Type         string `json:"type"`
	Description  string `json:"description"`
}

type Complaint struct {
	ID           int            `json:"id"`
	UserID       int            `json:"user_id"`
	AssignmentID int            `json:"assignment_id"`
	Type         string         `json:"type"`
	Description  string         `json:"description"`
	Status       string         `json:"status"`
	AdminNotes   *string        `json:"admin_notes,omitempty"`
	CreatedAt    wiretime.Time  `json:"created_at"`
	ResolvedAt   *wiretime.Time `json:"resolved_at,omitempty"`
}

// Dashboard is the admin overview.
type Dashboard struct {
	TotalUsers          int `json:"total_users"`
	ActiveSubscriptions int `json:"active_subscriptions"`
	PendingComplaints   int `json:"pending_complaints"`
}
