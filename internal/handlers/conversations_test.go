package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-messaging/internal/mocks"
	"storefront-messaging/internal/models"
	"storefront-messaging/internal/repositories"
	"storefront-messaging/internal/ws"
)

type conversationDeps struct {
	convs    *mocks.ConversationRepositoryMock
	messages *mocks.MessageRepositoryMock
	dir      *mocks.DirectoryRepositoryMock
	router   *gin.Engine
}

func setupConversationRouter() conversationDeps {
	d := conversationDeps{
		convs:    new(mocks.ConversationRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		dir:      new(mocks.DirectoryRepositoryMock),
	}
	handler := NewConversationHandler(d.convs, d.messages, d.dir, ws.NewHub())
	d.router = setupRouter(func(r *gin.Engine) {
		r.GET("/conversations", handler.ListConversations)
		r.POST("/conversations", handler.CreateConversation)
		r.GET("/conversations/:id/messages", handler.ListMessages)
		r.POST("/conversations/:id/messages", handler.PostMessage)
		r.POST("/conversations/:id/read", handler.MarkRead)
	})
	return d
}

func TestListConversationsEmitsLegacyAliases(t *testing.T) {
	d := setupConversationRouter()
	d.convs.On("ListConversations", mock.Anything, "u1").Return([]models.Conversation{{
		ID:       "c1",
		SellerID: "s1",
		Product:  &models.ProductSummary{ID: "p1", Name: "Lamp", ImageURL: "https://img/1.png"},
		Seller:   &models.SellerSummary{ID: "s1", Name: "Acme"},
	}}, nil).Once()

	rec := serve(d.router, http.MethodGet, "/conversations", "")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0]["seller_id"])
	assert.Equal(t, "s1", list[0]["supplier_id"])
	assert.Equal(t, float64(0), list[0]["unread_count"])
	product := list[0]["product"].(map[string]any)
	assert.Equal(t, "https://img/1.png", product["image_url"])
	assert.Equal(t, "https://img/1.png", product["thumbnail"])
	d.convs.AssertExpectations(t)
}

func TestListConversationsRepoError(t *testing.T) {
	d := setupConversationRouter()
	d.convs.On("ListConversations", mock.Anything, "u1").Return(nil, assert.AnError).Once()

	rec := serve(d.router, http.MethodGet, "/conversations", "")

	requireErrorCode(t, rec, http.StatusInternalServerError, models.CodeInternal)
}

func TestCreateConversationSuccess(t *testing.T) {
	d := setupConversationRouter()
	in := models.CreateConversationInput{SellerID: "s1", ProductID: "p1", Subject: "Inquiry about product p1"}
	d.dir.On("GetSeller", mock.Anything, "s1").Return(models.SellerSummary{ID: "s1", OwnerUserID: "u9", Contactable: true}, nil).Once()
	d.convs.On("CreateOrGetConversation", mock.Anything, "u1", in).Return(models.Conversation{ID: "c7", SellerID: "s1"}, nil).Once()

	rec := serve(d.router, http.MethodPost, "/conversations", `{"seller_id":"s1","product_id":"p1","subject":"Inquiry about product p1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var conv map[string]any
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &conv))
	assert.Equal(t, "c7", conv["id"])
	d.dir.AssertExpectations(t)
	d.convs.AssertExpectations(t)
}

func TestCreateConversationDenials(t *testing.T) {
	cases := []struct {
		name   string
		seller models.SellerSummary
	}{
		{"own store", models.SellerSummary{ID: "s1", OwnerUserID: "u1", Contactable: true}},
		{"not contactable", models.SellerSummary{ID: "s1", Contactable: false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := setupConversationRouter()
			d.dir.On("GetSeller", mock.Anything, "s1").Return(tc.seller, nil).Once()

			rec := serve(d.router, http.MethodPost, "/conversations", `{"seller_id":"s1","subject":"General inquiry"}`)

			requireErrorCode(t, rec, http.StatusForbidden, models.CodeForbidden)
			d.convs.AssertNotCalled(t, "CreateOrGetConversation", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateConversationMissingMemberProfile(t *testing.T) {
	d := setupConversationRouter()
	d.dir.On("GetSeller", mock.Anything, "s1").Return(models.SellerSummary{ID: "s1", Contactable: true}, nil).Once()
	d.convs.On("CreateOrGetConversation", mock.Anything, "u1", mock.Anything).Return(nil, models.ErrMemberProfileNotFound).Once()

	rec := serve(d.router, http.MethodPost, "/conversations", `{"seller_id":"s1","subject":"General inquiry"}`)

	requireErrorCode(t, rec, http.StatusBadRequest, models.CodeMemberProfileNotFound)
}

func TestCreateConversationUnknownSeller(t *testing.T) {
	d := setupConversationRouter()
	d.dir.On("GetSeller", mock.Anything, "s404").Return(nil, repositories.ErrSellerNotFound).Once()

	rec := serve(d.router, http.MethodPost, "/conversations", `{"seller_id":"s404","subject":"General inquiry"}`)

	requireErrorCode(t, rec, http.StatusNotFound, models.CodeNotFound)
}

func TestCreateConversationInvalidBody(t *testing.T) {
	d := setupConversationRouter()

	rec := serve(d.router, http.MethodPost, "/conversations", `{"subject":"x"}`)

	requireErrorCode(t, rec, http.StatusBadRequest, models.CodeInvalidRequest)
}

func TestPostMessageRequiresParticipant(t *testing.T) {
	d := setupConversationRouter()
	d.convs.On("IsParticipant", mock.Anything, "c1", "u1").Return(false, nil).Once()

	rec := serve(d.router, http.MethodPost, "/conversations/c1/messages", `{"content":"hi"}`)

	requireErrorCode(t, rec, http.StatusForbidden, models.CodeForbidden)
	d.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessageSuccess(t *testing.T) {
	d := setupConversationRouter()
	d.convs.On("IsParticipant", mock.Anything, "c1", "u1").Return(true, nil).Once()
	d.messages.On("CreateMessage", mock.Anything, "c1", "u1", "hi").Return(models.Message{ID: "m1", ConversationID: "c1", SenderID: "u1", Content: "hi"}, nil).Once()

	rec := serve(d.router, http.MethodPost, "/conversations/c1/messages", `{"content":"hi"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	d.convs.AssertExpectations(t)
	d.messages.AssertExpectations(t)
}

func TestListMessagesSuccess(t *testing.T) {
	d := setupConversationRouter()
	d.convs.On("IsParticipant", mock.Anything, "c1", "u1").Return(true, nil).Once()
	d.messages.On("ListMessages", mock.Anything, "c1").Return([]models.Message{{ID: "m1"}, {ID: "m2"}}, nil).Once()

	rec := serve(d.router, http.MethodGet, "/conversations/c1/messages", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []models.Message
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &msgs))
	assert.Len(t, msgs, 2)
}

func TestMarkConversationRead(t *testing.T) {
	d := setupConversationRouter()
	d.convs.On("IsParticipant", mock.Anything, "c1", "u1").Return(true, nil).Once()
	d.messages.On("MarkConversationRead", mock.Anything, "c1", "u1").Return(int64(3), nil).Once()

	rec := serve(d.router, http.MethodPost, "/conversations/c1/read", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":3}`, string(decodeEnvelope(t, rec).Data))
}
