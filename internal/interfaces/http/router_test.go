package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/walletwise/walletwise/internal/application/entitlement"
	"github.com/walletwise/walletwise/internal/domain/subscription"
	"github.com/walletwise/walletwise/internal/shared/biztime"
	"github.com/walletwise/walletwise/internal/shared/constants"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	cancelled []uint
}

func (s *stubService) GetActiveSubscription(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	return nil, errors.NewNotFoundError("no active subscription found")
}

func (s *stubService) ListSubscriptionHistory(ctx context.Context, userID uint) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (s *stubService) CreateTrialSelfService(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	return nil, errors.NewForbiddenError("user is not eligible for a trial")
}

func (s *stubService) CancelSubscription(ctx context.Context, userID uint) error {
	s.cancelled = append(s.cancelled, userID)
	return nil
}

func (s *stubService) ResolveTier(ctx context.Context, userID uint) entitlement.Tier {
	return entitlement.TierNone
}

func (s *stubService) RemainingReportQuota(ctx context.Context, userID uint) int {
	return 0
}

type okPinger struct{}

func (okPinger) PingContext(ctx context.Context) error { return nil }

func newTestRouter(svc *stubService) *Router {
	r := newRouter(svc, svc, RouterDeps{
		DB: okPinger{},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("walletwise_quota_rejections_total 0\n"))
		}),
		Clock:  biztime.NewManualClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		Logger: logger.NewNopLogger(),
	})
	r.SetupRoutes()
	return r
}

func serve(r *Router, method, path, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req.Header.Set(constants.HeaderXUserID, userID)
	}
	w := httptest.NewRecorder()
	r.GetEngine().ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(svc)

	tests := []struct {
		name       string
		method     string
		path       string
		userID     string
		wantStatus int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", http.StatusOK},
		{"subscription requires identity", http.MethodGet, "/api/v1/subscription", "", http.StatusUnauthorized},
		{"active subscription", http.MethodGet, "/api/v1/subscription", "5", http.StatusNotFound},
		{"history", http.MethodGet, "/api/v1/subscription/history", "5", http.StatusOK},
		{"entitlement", http.MethodGet, "/api/v1/subscription/entitlement", "5", http.StatusOK},
		{"trial", http.MethodPost, "/api/v1/subscription/trial", "5", http.StatusForbidden},
		{"cancel", http.MethodPost, "/api/v1/subscription/cancel", "5", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/wallets", "5", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.method, tt.path, tt.userID)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	assert.Equal(t, []uint{5}, svc.cancelled)
}

func TestRouter_MetricsBody(t *testing.T) {
	w := serve(newTestRouter(&stubService{}), http.MethodGet, "/metrics", "")

	assert.Contains(t, w.Body.String(), "walletwise_quota_rejections_total")
}
