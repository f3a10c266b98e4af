package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-messaging/internal/mocks"
	"storefront-messaging/internal/models"
	"storefront-messaging/internal/ws"
)

func setupTypingRouter(now time.Time) (*gin.Engine, *mocks.ConversationRepositoryMock, *mocks.TypingRepositoryMock) {
	convs := new(mocks.ConversationRepositoryMock)
	typing := new(mocks.TypingRepositoryMock)
	handler := NewTypingHandler(convs, typing, ws.NewHub())
	handler.now = func() time.Time { return now }
	router := setupRouter(func(r *gin.Engine) {
		r.GET("/conversations/:id/typing", handler.ListTyping)
		r.PUT("/conversations/:id/typing", handler.UpsertTyping)
		r.DELETE("/conversations/:id/typing", handler.ClearTyping)
	})
	return router, convs, typing
}

func TestListTypingDefaultsToRecentWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	router, convs, typing := setupTypingRouter(now)
	convs.On("IsParticipant", mock.Anything, "c1", "u1").Return(true, nil).Once()
	typing.On("ListTypingSignals", mock.Anything, "c1", now.Add(-10*time.Second)).Return([]models.TypingSignal{{UserID: "u2"}}, nil).Once()

	rec := serve(router, http.MethodGet, "/conversations/c1/typing", "")

	require.Equal(t, http.StatusOK, rec.Code)
	typing.AssertExpectations(t)
}

func TestListTypingHonorsSince(t *testing.T) {
	since := time.Date(2026, 3, 1, 11, 59, 55, 0, time.UTC)
	router, convs, typing := setupTypingRouter(since.Add(time.Minute))
	convs.On("IsParticipant", mock.Anything, "c1", "u1").Return(true, nil).Once()
	typing.On("ListTypingSignals", mock.Anything, "c1", since).Return([]models.TypingSignal{}, nil).Once()

	rec := serve(router, http.MethodGet, "/conversations/c1/typing?since=2026-03-01T11:59:55Z", "")

	require.Equal(t, http.StatusOK, rec.Code)
	typing.AssertExpectations(t)
}

func TestListTypingInvalidSince(t *testing.T) {
	router, _, _ := setupTypingRouter(time.Now())

	rec := serve(router, http.MethodGet, "/conversations/c1/typing?since=yesterday", "")

	requireErrorCode(t, rec, http.StatusBadRequest, models.CodeInvalidRequest)
}

func TestUpsertTyping(t *testing.T) {
	router, convs, typing := setupTypingRouter(time.Now())
	convs.On("IsParticipant", mock.Anything, "c1", "u1").Return(true, nil).Once()
	typing.On("UpsertTypingSignal", mock.Anything, "c1", "u1").Return(models.TypingSignal{ConversationID: "c1", UserID: "u1"}, nil).Once()

	rec := serve(router, http.MethodPut, "/conversations/c1/typing", "")

	require.Equal(t, http.StatusOK, rec.Code)
	typing.AssertExpectations(t)
}

func TestUpsertTypingForbiddenForOutsider(t *testing.T) {
	router, convs, typing := setupTypingRouter(time.Now())
	convs.On("IsParticipant", mock.Anything, "c1", "u1").Return(false, nil).Once()

	rec := serve(router, http.MethodPut, "/conversations/c1/typing", "")

	requireErrorCode(t, rec, http.StatusForbidden, models.CodeForbidden)
	typing.AssertNotCalled(t, "UpsertTypingSignal", mock.Anything, mock.Anything, mock.Anything)
}

func TestClearTyping(t *testing.T) {
	router, convs, typing := setupTypingRouter(time.Now())
	convs.On("IsParticipant", mock.Anything, "c1", "u1").Return(true, nil).Once()
	typing.On("ClearTypingSignal", mock.Anything, "c1", "u1").Return(nil).Once()

	rec := serve(router, http.MethodDelete, "/conversations/c1/typing", "")

	require.Equal(t, http.StatusOK, rec.Code)
	typing.AssertExpectations(t)
}
