package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/user"
	"github.com/schoolhub/school-hub/internal/infrastructure/auth"
)

type submitBody struct {
	StudentID    string  `json:"studentId" validate:"notblank"`
	ExamType     string  `json:"examType" validate:"exam_type"`
	AcademicYear int     `json:"academicYear" validate:"min=2000,max=3000"`
	Marks        float64 `json:"marks" validate:"gte=0"`
}

func TestValidator_ReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Struct(submitBody{StudentID: "  ", ExamType: "quiz", AcademicYear: 1999, Marks: -1})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	var fe *FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Fields, "studentId")
	assert.Contains(t, fe.Fields, "examType")
	assert.Contains(t, fe.Fields, "academicYear")
	assert.Contains(t, fe.Fields, "marks")
	assert.Equal(t, "studentId cannot be blank", fe.Fields["studentId"])

	assert.NoError(t, v.Struct(submitBody{StudentID: "s1", ExamType: "Class Test", AcademicYear: 2024}))
}

func TestBearerAuth(t *testing.T) {
	tokens := auth.NewTokenService("secret", "test", time.Hour, nil)
	token, err := tokens.Issue("u-1", user.RoleTeacher)
	require.NoError(t, err)

	var gotErr error
	a := NewBearerAuth(tokens, func(w http.ResponseWriter, r *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusUnauthorized)
	})

	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "u-1", p.UserID)
		assert.Equal(t, user.RoleTeacher, p.Role)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.ErrorIs(t, gotErr, ErrMissingToken)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.ErrorIs(t, gotErr, auth.ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc")
	tok, ok := BearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	req.Header.Set("Authorization", "Basic abc")
	_, ok = BearerToken(req)
	assert.False(t, ok)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCompositeHealthChecker(t *testing.T) {
	c := NewCompositeHealthChecker("test", "memory")

	status := c.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "memory", status.Storage)

	c.AddCheck("database", NewPingCheck(pingFunc(func(context.Context) error { return nil })))
	c.AddCheck("redis", NewPingCheck(pingFunc(func(context.Context) error { return errors.New("down") })))

	status = c.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.False(t, status.Ready)
	assert.True(t, status.Checks["database"].Healthy)
	assert.Equal(t, "down", status.Checks["redis"].Message)
	assert.Equal(t, "Some checks failed: redis", status.Message)
	assert.Nil(t, status.Jobs)
}

func TestCompositeHealthChecker_ReportsJobs(t *testing.T) {
	c := NewCompositeHealthChecker("test", "memory")
	next := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.SetJobSource(func() []JobStatus {
		return []JobStatus{{Name: "auto-promotion", Schedule: "@every 24h0m0s", NextRun: next, RunCount: 3, FailCount: 1, LastError: "boom"}}
	})

	status := c.Check(context.Background())
	assert.True(t, status.Healthy, "a failed job does not fail the health check")
	require.Len(t, status.Jobs, 1)
	assert.Equal(t, "auto-promotion", status.Jobs[0].Name)
	assert.Equal(t, int64(1), status.Jobs[0].FailCount)
	assert.Equal(t, "boom", status.Jobs[0].LastError)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mw("a"), mw("b"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}
