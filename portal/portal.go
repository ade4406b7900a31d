// Package portal is the typed API of the customer and admin views: profile,
// meals, subscriptions, complaints and the admin back office.
package portal

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jrsteele09/cirota-portal/client"
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
	"github.com/jrsteele09/cirota-portal/users"
	"github.com/pkg/errors"
)

const (
	RouteUsersProfile         = "/api/users/profile"
	RouteUsersQuiz            = "/api/users/quiz"
	RouteMealsToday           = "/api/meals/today"
	RouteMealsUpcoming        = "/api/meals/upcoming"
	RouteMealsConfirm         = "/api/meals/%d/confirm-delivery"
	RouteSubscriptionsPlans   = "/api/subscriptions/plans"
	RouteSubscriptionsCreate  = "/api/subscriptions/subscribe"
	RouteSubscriptionsCurrent = "/api/subscriptions/current"
	RouteComplaints           = "/api/complaints/"
	RouteAdminDashboard       = "/api/admin/dashboard"
	RouteAdminCustomers       = "/api/admin/customers"
	RouteAdminMeals           = "/api/admin/meals"
	RouteAdminMeal            = "/api/admin/meals/%d"
	RouteAdminComplaints      = "/api/admin/complaints"
	RouteAdminResolve         = "/api/admin/complaints/%d/resolve"
)

const (
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 30
)

// Portal groups the services. All of them authenticate through the token
// source of the client they were built with.
type Portal struct {
	Users         *UserService
	Meals         *MealService
	Subscriptions *SubscriptionService
	Complaints    *ComplaintService
	Admin         *AdminService
}

func New(c *client.Client) *Portal {
	return &Portal{
		Users:         &UserService{client: c},
		Meals:         &MealService{client: c},
		Subscriptions: &SubscriptionService{client: c},
		Complaints:    &ComplaintService{client: c},
		Admin:         &AdminService{client: c},
	}
}

type UserService struct {
	client *client.Client
}

func (s *UserService) Profile(ctx context.Context) (*users.User, error) {
	var user users.User
	if err := s.client.Get(ctx, RouteUsersProfile, nil, &user); err != nil {
		return nil, errors.Wrap(err, "[UserService.Profile]")
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, update UserUpdate) (*users.User, error) {
	var user users.User
	if err := s.client.Put(ctx, RouteUsersProfile, update, &user); err != nil {
		return nil, errors.Wrap(err, "[UserService.UpdateProfile]")
	}
	return &user, nil
}

// SubmitQuiz stores the personalisation answers. Missing lists are sent as
// empty lists, which the server requires.
func (s *UserService) SubmitQuiz(ctx context.Context, quiz QuizSubmission) (*QuizResponse, error) {
	quiz.Allergies = emptyIfNil(quiz.Allergies)
	quiz.DislikedFoods = emptyIfNil(quiz.DislikedFoods)
	quiz.HealthConditions = emptyIfNil(quiz.HealthConditions)

	var resp QuizResponse
	if err := s.client.Post(ctx, RouteUsersQuiz, quiz, &resp); err != nil {
		return nil, errors.Wrap(err, "[UserService.SubmitQuiz]")
	}
	return &resp, nil
}

type MealService struct {
	client *client.Client
}

func (s *MealService) Today(ctx context.Context) ([]MealAssignment, error) {
	var meals []MealAssignment
	if err := s.client.Get(ctx, RouteMealsToday, nil, &meals); err != nil {
		return nil, errors.Wrap(err, "[MealService.Today]")
	}
	return meals, nil
}

// Upcoming lists assignments from today through the next days days. A
// non-positive days means DefaultUpcomingDays.
func (s *MealService) Upcoming(ctx context.Context, days int) ([]MealAssignment, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	if days > MaxUpcomingDays {
		return nil, interrors.Wrapf(interrors.ErrInvalidRequest, "[MealService.Upcoming] days must be at most %d, got %d", MaxUpcomingDays, days)
	}

	var meals []MealAssignment
	params := url.Values{"days": []string{strconv.Itoa(days)}}
	if err := s.client.Get(ctx, RouteMealsUpcoming, params, &meals); err != nil {
		return nil, errors.Wrap(err, "[MealService.Upcoming]")
	}
	return meals, nil
}

func (s *MealService) ConfirmDelivery(ctx context.Context, assignmentID int) (*Message, error) {
	var resp Message
	if err := s.client.Post(ctx, fmt.Sprintf(RouteMealsConfirm, assignmentID), nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[MealService.ConfirmDelivery]")
	}
	return &resp, nil
}

type SubscriptionService struct {
	client *client.Client
}

func (s *SubscriptionService) Plans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := s.client.Get(ctx, RouteSubscriptionsPlans, nil, &plans); err != nil {
		return nil, errors.Wrap(err, "[SubscriptionService.Plans]")
	}
	return plans, nil
}

func (s *SubscriptionService) Subscribe(ctx context.Context, planID int) (*Subscription, error) {
	var sub Subscription
	body := struct {
		PlanID int `json:"plan_id"`
	}{PlanID: planID}
	if err := s.client.Post(ctx, RouteSubscriptionsCreate, body, &sub); err != nil {
		return nil, errors.Wrap(err, "[SubscriptionService.Subscribe]")
	}
	return &sub, nil
}

// Current returns the active subscription, or nil when there is none.
func (s *SubscriptionService) Current(ctx context.Context) (*Subscription, error) {
	var sub *Subscription
	if err := s.client.Get(ctx, RouteSubscriptionsCurrent, nil, &sub); err != nil {
		return nil, errors.Wrap(err, "[SubscriptionService.Current]")
	}
	return sub, nil
}

type ComplaintService struct {
	client *client.Client
}

func (s *ComplaintService) List(ctx context.Context) ([]Complaint, error) {
	var complaints []Complaint
	if err := s.client.Get(ctx, RouteComplaints, nil, &complaints); err != nil {
		return nil, errors.Wrap(err, "[ComplaintService.List]")
	}
	return complaints, nil
}

func (s *ComplaintService) Create(ctx context.Context, complaint ComplaintCreate) (*Complaint, error) {
	if complaint.Type == "" || complaint.Description == "" {
		return nil, interrors.Wrapf(interrors.ErrInvalidRequest, "[ComplaintService.Create] type and description are required")
	}

	var created Complaint
	if err := s.client.Post(ctx, RouteComplaints, complaint, &created); err != nil {
		return nil, errors.Wrap(err, "[ComplaintService.Create]")
	}
	return &created, nil
}

type AdminService struct {
	client *client.Client
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var dashboard Dashboard
	if err := s.client.Get(ctx, RouteAdminDashboard, nil, &dashboard); err != nil {
		return nil, errors.Wrap(err, "[AdminService.Dashboard]")
	}
	return &dashboard, nil
}

func (s *AdminService) Customers(ctx context.Context) ([]users.User, error) {
	var customers []users.User
	if err := s.client.Get(ctx, RouteAdminCustomers, nil, &customers); err != nil {
		return nil, errors.Wrap(err, "[AdminService.Customers]")
	}
	return customers, nil
}

func (s *AdminService) Meals(ctx context.Context) ([]Meal, error) {
	var meals []Meal
	if err := s.client.Get(ctx, RouteAdminMeals, nil, &meals); err != nil {
		return nil, errors.Wrap(err, "[AdminService.Meals]")
	}
	return meals, nil
}

func (s *AdminService) CreateMeal(ctx context.Context, meal MealCreate) (*Meal, error) {
	if meal.Calories <= 0 {
		return nil, interrors.Wrapf(interrors.ErrInvalidRequest, "[AdminService.CreateMeal] calories must be positive")
	}

	var created Meal
	if err := s.client.Post(ctx, RouteAdminMeals, meal, &created); err != nil {
		return nil, errors.Wrap(err, "[AdminService.CreateMeal]")
	}
	return &created, nil
}

func (s *AdminService) UpdateMeal(ctx context.Context, mealID int, update MealUpdate) (*Meal, error) {
	var updated Meal
	if err := s.client.Put(ctx, fmt.Sprintf(RouteAdminMeal, mealID), update, &updated); err != nil {
		return nil, errors.Wrap(err, "[AdminService.UpdateMeal]")
	}
	return &updated, nil
}

func (s *AdminService) Complaints(ctx context.Context) ([]Complaint, error) {
	var complaints []Complaint
	if err := s.client.Get(ctx, RouteAdminComplaints, nil, &complaints); err != nil {
		return nil, errors.Wrap(err, "[AdminService.Complaints]")
	}
	return complaints, nil
}

func (s *AdminService) ResolveComplaint(ctx context.Context, complaintID int) (*Complaint, error) {
	var resolved Complaint
	if err := s.client.Put(ctx, fmt.Sprintf(RouteAdminResolve, complaintID), nil, &resolved); err != nil {
		return nil, errors.Wrap(err, "[AdminService.ResolveComplaint]")
	}
	return &resolved, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
