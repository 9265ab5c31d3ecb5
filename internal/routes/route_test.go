package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/handyhub/internal/config"
	"github.com/joshua-takyi/handyhub/internal/container"
	"github.com/joshua-takyi/handyhub/internal/events"
	"github.com/joshua-takyi/handyhub/internal/helpers"
	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/joshua-takyi/handyhub/internal/testfixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiSecret = "routes-test-secret"

type api struct {
	t      *testing.T
	router *gin.Engine
	store  *testfixtures.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := testfixtures.NewStore()
	verifier, err := helpers.NewTokenVerifier(apiSecret, "")
	require.NoError(t, err)

	cfg := &config.Config{
		Environment:     "test",
		CORSOrigins:     []string{"http://localhost:3000"},
		ChatHistorySize: 30,
		WSSendBuffer:    8,
	}
	logger := testfixtures.Logger()
	c := container.NewContainer(cfg, logger, verifier, container.Stores{
		Bookings:      store,
		Messages:      store,
		Notifications: store,
		Providers:     store,
		Users:         store,
		Publisher:     events.NewNoopPublisher(logger),
	})
	return &api{t: t, router: SetupRoutes(c), store: store}
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

func (a *api) do(method, path, userID string, body any) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := helpers.IssueToken(apiSecret, helpers.Identity{UserID: userID}, time.Hour)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func bookingBody(providerID string) map[string]any {
	return map[string]any{
		"provider_id":  providerID,
		"scheduled_at": testfixtures.ReferenceTime().Add(72 * time.Hour).Format(time.RFC3339),
		"address":      "7 Independence Ave",
		"phone_number": "0551234567",
		"severity":     "emergency",
	}
}

func TestHealthAndAuth(t *testing.T) {
	a := newAPI(t)

	code, _ := a.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env := a.do(http.MethodGet, "/api/v1/bookings/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, string(models.KindUnauthorized), env.Code)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	provider, owner := testfixtures.SeedProvider(a.store, 100)
	customer := testfixtures.SeedCustomer(a.store)

	code, env := a.do(http.MethodPost, "/api/v1/bookings", customer, bookingBody(provider.ID.Hex()))
	require.Equal(t, http.StatusCreated, code, env.Error)
	booking := decode[models.Booking](t, env.Data)
	assert.Equal(t, 140.0, booking.EffectivePricePerHour)
	id := booking.ID.Hex()

	// provider was offline; the request waits in their notifications
	code, env = a.do(http.MethodGet, "/api/v1/notifications", owner, nil)
	require.Equal(t, http.StatusOK, code)
	inbox := decode[struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int64                 `json:"unread"`
		Size          int                   `json:"size"`
	}](t, env.Data)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, int64(1), inbox.Unread)
	assert.Equal(t, models.DefaultNotifyPageSize, inbox.Size)

	code, _ = a.do(http.MethodPatch, "/api/v1/notifications/"+inbox.Notifications[0].ID.Hex()+"/read", owner, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = a.do(http.MethodGet, "/api/v1/bookings/"+id, customer, nil)
	require.Equal(t, http.StatusOK, code)
	withParties := decode[struct {
		ID       string              `json:"id"`
		Customer *models.UserSummary `json:"customer"`
		Provider *models.UserSummary `json:"provider"`
	}](t, env.Data)
	assert.Equal(t, id, withParties.ID)
	require.NotNil(t, withParties.Provider)
	assert.Equal(t, "Provider "+owner, withParties.Provider.FullName)
	require.NotNil(t, withParties.Customer)
	assert.Equal(t, customer, withParties.Customer.ID)

	code, env = a.do(http.MethodPatch, "/api/v1/bookings/"+id+"/status", customer, map[string]string{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = a.do(http.MethodPatch, "/api/v1/bookings/"+id+"/status", owner, map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = a.do(http.MethodPatch, "/api/v1/bookings/"+id+"/cancel", customer, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(models.KindInvalidOperation), env.Code)

	code, _ = a.do(http.MethodPatch, "/api/v1/bookings/"+id+"/status", owner, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, code)

	code, env = a.do(http.MethodPost, "/api/v1/bookings/"+id+"/rate", customer, map[string]int{"rating": 5})
	require.Equal(t, http.StatusOK, code, env.Error)
	rated := decode[models.Booking](t, env.Data)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 5, *rated.Rating)

	code, env = a.do(http.MethodGet, "/api/v1/bookings/provider", owner, nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[models.Page[models.Booking]](t, env.Data)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, models.StatusCompleted, list.Items[0].Status)
}

func TestChatOverHTTP(t *testing.T) {
	a := newAPI(t)
	provider, owner := testfixtures.SeedProvider(a.store, 100)
	customer := testfixtures.SeedCustomer(a.store)
	_, env := a.do(http.MethodPost, "/api/v1/bookings", customer, bookingBody(provider.ID.Hex()))
	id := decode[models.Booking](t, env.Data).ID.Hex()

	code, env := a.do(http.MethodPost, "/api/v1/chat", customer, map[string]string{"booking_id": id, "content": "hello"})
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = a.do(http.MethodGet, "/api/v1/chat/"+id+"/unread", owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"unread":1}`, string(env.Data))

	code, env = a.do(http.MethodPatch, "/api/v1/chat/"+id+"/read", owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"updated":1}`, string(env.Data))

	code, env = a.do(http.MethodGet, "/api/v1/chat/"+id+"?page=1&size=10", owner, nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[models.Page[struct {
		Content string              `json:"content"`
		IsRead  bool                `json:"is_read"`
		Sender  *models.UserSummary `json:"sender"`
	}]](t, env.Data)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsRead)
	require.NotNil(t, page.Items[0].Sender)
	assert.Equal(t, customer, page.Items[0].Sender.ID)

	code, _ = a.do(http.MethodGet, "/api/v1/chat/"+id, "stranger", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestValidationAndInternalErrors(t *testing.T) {
	a := newAPI(t)
	provider, _ := testfixtures.SeedProvider(a.store, 100)
	customer := testfixtures.SeedCustomer(a.store)

	body := bookingBody(provider.ID.Hex())
	body["phone_number"] = "123"
	code, env := a.do(http.MethodPost, "/api/v1/bookings", customer, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(models.KindValidation), env.Code)
	assert.Contains(t, env.Details, "phone_number")

	code, _ = a.do(http.MethodGet, "/api/v1/bookings/my?page=0", customer, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(http.MethodGet, "/api/v1/bookings/my?page=9223372036854775807", customer, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Details, "page")

	a.store.FailNotifications = errors.New("mongo unavailable")
	code, env = a.do(http.MethodPost, "/api/v1/bookings", customer, bookingBody(provider.ID.Hex()))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, env.Error, "mongo")
}
