package portal_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/cirota-portal/client"
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
	"github.com/jrsteele09/cirota-portal/internal/utils"
	"github.com/jrsteele09/cirota-portal/portal"
	"github.com/jrsteele09/cirota-portal/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type call struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	Body          map[string]any
}

type backend struct {
	lock  sync.Mutex
	calls []call
}

func (b *backend) last(t *testing.T) call {
	t.Helper()
	b.lock.Lock()
	defer b.lock.Unlock()
	require.NotEmpty(t, b.calls)
	return b.calls[len(b.calls)-1]
}

// respond records the request and answers with body.
func (b *backend) respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := call{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &c.Body)
		}
		b.lock.Lock()
		b.calls = append(b.calls, c)
		b.lock.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

const (
	mealJSON       = `{"id":3,"name":"Paneer bowl","meal_type":"LUNCH","ingredients":["paneer","rice"],"calories":550,"is_vegetarian":true,"created_at":"2024-05-01T09:30:00.123456"}`
	assignmentJSON = `{"id":11,"user_id":7,"meal":` + mealJSON + `,"assignment_date":"2024-05-02","delivery_status":"PENDING","delivered_at":null}`
	planJSON       = `{"id":2,"name":"Monthly","duration_days":30,"price_per_day":9.5,"is_active":true}`
	subJSON        = `{"id":5,"user_id":7,"plan":` + planJSON + `,"start_date":"2024-05-01","end_date":"2024-05-31","status":"ACTIVE","created_at":"2024-05-01T00:00:00"}`
	complaintJSON  = `{"id":4,"user_id":7,"assignment_id":11,"type":"LATE","description":"Cold","status":"OPEN","created_at":"2024-05-02T12:00:00"}`
	userJSON       = `{"id":7,"google_id":"g-7","name":"Ann","email":"a@x.io","is_admin":false,"created_at":"2024-01-01T00:00:00","updated_at":"2024-01-02T00:00:00"}`
)

func newPortal(t *testing.T) (*portal.Portal, *backend) {
	t.Helper()

	b := &backend{}
	r := chi.NewRouter()
	r.Get(portal.RouteUsersProfile, b.respond(http.StatusOK, userJSON))
	r.Put(portal.RouteUsersProfile, b.respond(http.StatusOK, userJSON))
	r.Post(portal.RouteUsersQuiz, b.respond(http.StatusOK, `{"message":"Quiz submitted successfully","submitted_at":"2024-05-01T10:00:00"}`))
	r.Get(portal.RouteMealsToday, b.respond(http.StatusOK, `[`+assignmentJSON+`]`))
	r.Get(portal.RouteMealsUpcoming, b.respond(http.StatusOK, `[`+assignmentJSON+`,`+assignmentJSON+`]`))
	r.Post("/api/meals/{id}/confirm-delivery", b.respond(http.StatusOK, `{"message":"Delivery confirmed"}`))
	r.Get(portal.RouteSubscriptionsPlans, b.respond(http.StatusOK, `[`+planJSON+`]`))
	r.Post(portal.RouteSubscriptionsCreate, b.respond(http.StatusOK, subJSON))
	r.Get(portal.RouteSubscriptionsCurrent, b.respond(http.StatusOK, `null`))
	r.Get(portal.RouteComplaints, b.respond(http.StatusOK, `[`+complaintJSON+`]`))
	r.Post(portal.RouteComplaints, b.respond(http.StatusCreated, complaintJSON))
	r.Get(portal.RouteAdminDashboard, b.respond(http.StatusOK, `{"total_users":12,"active_subscriptions":5,"pending_complaints":2}`))
	r.Get(portal.RouteAdminCustomers, b.respond(http.StatusOK, `[`+userJSON+`]`))
	r.Get(portal.RouteAdminMeals, b.respond(http.StatusOK, `[`+mealJSON+`]`))
	r.Post(portal.RouteAdminMeals, b.respond(http.StatusCreated, mealJSON))
	r.Put("/api/admin/meals/{id}", b.respond(http.StatusOK, mealJSON))
	r.Get(portal.RouteAdminComplaints, b.respond(http.StatusOK, `[`+complaintJSON+`]`))
	r.Put("/api/admin/complaints/{id}/resolve", b.respond(http.StatusNotFound, `{"detail":"Complaint not found"}`))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, token.NewHolder("A1"), client.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return portal.New(c), b
}

func TestUserService(t *testing.T) {
	p, b := newPortal(t)
	ctx := context.Background()

	t.Run("profile", func(t *testing.T) {
		user, err := p.Users.Profile(ctx)
		require.NoError(t, err)
		require.Equal(t, 7, user.ID)
		require.Equal(t, 2024, user.CreatedAt.Year())
		require.Equal(t, "Bearer A1", b.last(t).Authorization)
	})

	t.Run("update sends only the set fields", func(t *testing.T) {
		_, err := p.Users.UpdateProfile(ctx, portal.UserUpdate{Name: utils.Ptr("Ann B"), Age: utils.Ptr(31)})
		require.NoError(t, err)
		got := b.last(t)
		require.Equal(t, http.MethodPut, got.Method)
		require.Equal(t, map[string]any{"name": "Ann B", "age": float64(31)}, got.Body)
	})

	t.Run("quiz sends empty lists", func(t *testing.T) {
		resp, err := p.Users.SubmitQuiz(ctx, portal.QuizSubmission{DietaryPreference: "VEG", SpiceLevel: "MILD", HealthGoals: "energy"})
		require.NoError(t, err)
		require.Equal(t, "Quiz submitted successfully", resp.Message)
		require.Equal(t, []any{}, b.last(t).Body["allergies"])
	})
}

func TestMealService(t *testing.T) {
	p, b := newPortal(t)
	ctx := context.Background()

	t.Run("today", func(t *testing.T) {
		meals, err := p.Meals.Today(ctx)
		require.NoError(t, err)
		require.Len(t, meals, 1)
		require.Equal(t, "Paneer bowl", meals[0].Meal.Name)
		require.Equal(t, "2024-05-02", meals[0].AssignmentDate.String())
		require.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 123456000, time.UTC), meals[0].Meal.CreatedAt.Time)
		require.Nil(t, meals[0].DeliveredAt)
	})

	t.Run("upcoming defaults to a week", func(t *testing.T) {
		meals, err := p.Meals.Upcoming(ctx, 0)
		require.NoError(t, err)
		require.Len(t, meals, 2)
		require.Equal(t, "days=7", b.last(t).RawQuery)

		_, err = p.Meals.Upcoming(ctx, 14)
		require.NoError(t, err)
		require.Equal(t, "days=14", b.last(t).RawQuery)
	})

	t.Run("upcoming rejects more than thirty days", func(t *testing.T) {
		_, err := p.Meals.Upcoming(ctx, 31)
		require.True(t, interrors.Is(err, interrors.ErrInvalidRequest))
	})

	t.Run("confirm delivery", func(t *testing.T) {
		resp, err := p.Meals.ConfirmDelivery(ctx, 11)
		require.NoError(t, err)
		require.Equal(t, "Delivery confirmed", resp.Message)
		require.Equal(t, "/api/meals/11/confirm-delivery", b.last(t).Path)
	})
}

func TestSubscriptionService(t *testing.T) {
	p, b := newPortal(t)
	ctx := context.Background()

	plans, err := p.Subscriptions.Plans(ctx)
	require.NoError(t, err)
	require.Equal(t, 9.5, plans[0].PricePerDay)

	sub, err := p.Subscriptions.Subscribe(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"plan_id": float64(2)}, b.last(t).Body)
	require.Equal(t, "2024-05-31", sub.EndDate.String())
	require.Equal(t, "Monthly", sub.Plan.Name)

	current, err := p.Subscriptions.Current(ctx)
	require.NoError(t, err)
	require.Nil(t, current)
}

func TestComplaintService(t *testing.T) {
	p, b := newPortal(t)
	ctx := context.Background()

	complaints, err := p.Complaints.List(ctx)
	require.NoError(t, err)
	require.Equal(t, portal.ComplaintOpen, complaints[0].Status)

	created, err := p.Complaints.Create(ctx, portal.ComplaintCreate{AssignmentID: 11, Type: "LATE", Description: "Cold"})
	require.NoError(t, err)
	require.Equal(t, 4, created.ID)
	require.Equal(t, map[string]any{"assignment_id": float64(11), "type": "LATE", "description": "Cold"}, b.last(t).Body)

	_, err = p.Complaints.Create(ctx, portal.ComplaintCreate{AssignmentID: 11})
	require.True(t, interrors.Is(err, interrors.ErrInvalidRequest))
}

func TestAdminService(t *testing.T) {
	p, b := newPortal(t)
	ctx := context.Background()

	dashboard, err := p.Admin.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, portal.Dashboard{TotalUsers: 12, ActiveSubscriptions: 5, PendingComplaints: 2}, *dashboard)

	customers, err := p.Admin.Customers(ctx)
	require.NoError(t, err)
	require.Equal(t, "a@x.io", customers[0].Email)

	meals, err := p.Admin.Meals(ctx)
	require.NoError(t, err)
	require.Len(t, meals, 1)

	_, err = p.Admin.CreateMeal(ctx, portal.MealCreate{Name: "Soup", MealType: "DINNER", Ingredients: []string{"leek"}})
	require.True(t, interrors.Is(err, interrors.ErrInvalidRequest))

	_, err = p.Admin.CreateMeal(ctx, portal.MealCreate{Name: "Soup", MealType: "DINNER", Ingredients: []string{"leek"}, Calories: 300})
	require.NoError(t, err)
	require.Equal(t, float64(300), b.last(t).Body["calories"])

	_, err = p.Admin.UpdateMeal(ctx, 3, portal.MealUpdate{IsActive: utils.Ptr(false)})
	require.NoError(t, err)
	got := b.last(t)
	require.Equal(t, "/api/admin/meals/3", got.Path)
	require.Equal(t, map[string]any{"is_active": false}, got.Body)

	complaints, err := p.Admin.Complaints(ctx)
	require.NoError(t, err)
	require.Len(t, complaints, 1)

	_, err = p.Admin.ResolveComplaint(ctx, 99)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, client.StatusCode(err))
	require.Equal(t, "Complaint not found", client.Detail(err))
}
