package handlers

import "github.com/gin-gonic/gin"

// Set bundles the API handlers for registration.
type Set struct {
	Directory     *DirectoryHandler
	Conversations *ConversationHandler
	Typing        *TypingHandler
	Reactions     *ReactionHandler
	Notifications *NotificationHandler
}

// Register mounts every authenticated API route behind auth.
func (s Set) Register(router gin.IRouter, auth gin.HandlerFunc) {
	api := router.Group("/", auth)
	s.registerDirectory(api)
	s.registerConversations(api)
	s.registerNotifications(api)
}

func (s Set) registerDirectory(api gin.IRoutes) {
	api.GET("/me", s.Directory.Me)
	api.GET("/sellers/:seller_id", s.Directory.GetSeller)
	api.GET("/directory/members/:user_id", s.Directory.MemberName)
	api.GET("/directory/suppliers/:user_id", s.Directory.ClaimedSupplierName)
}

func (s Set) registerConversations(api gin.IRoutes) {
	api.GET("/conversations", s.Conversations.ListConversations)
	api.POST("/conversations", s.Conversations.CreateConversation)
	api.GET("/conversations/:id/messages", s.Conversations.ListMessages)
	api.POST("/conversations/:id/messages", s.Conversations.PostMessage)
	api.POST("/conversations/:id/read", s.Conversations.MarkRead)

	api.GET("/conversations/:id/typing", s.Typing.ListTyping)
	api.PUT("/conversations/:id/typing", s.Typing.UpsertTyping)
	api.DELETE("/conversations/:id/typing", s.Typing.ClearTyping)

	api.GET("/messages/:id/reactions", s.Reactions.ListReactions)
	api.PUT("/messages/:id/reactions/:emoji", s.Reactions.AddReaction)
	api.DELETE("/messages/:id/reactions/:emoji", s.Reactions.RemoveReaction)
}

func (s Set) registerNotifications(api gin.IRoutes) {
	api.GET("/notifications", s.Notifications.ListNotifications)
	api.GET("/notifications/snoozed", s.Notifications.ListSnoozed)
	api.POST("/notifications/read-all", s.Notifications.MarkAllRead)
	api.POST("/notifications/:id/read", s.Notifications.MarkRead)
	api.POST("/notifications/:id/archive", s.Notifications.Archive)
	api.DELETE("/notifications/:id", s.Notifications.Delete)
	api.POST("/notifications/:id/snooze", s.Notifications.Snooze)
	api.DELETE("/notifications/:id/snooze", s.Notifications.Unsnooze)
	api.POST("/notifications/:id/delivery", s.Notifications.TrackDelivery)
	api.POST("/notifications/:id/interactions", s.Notifications.TrackInteraction)

	api.GET("/notification-groups", s.Notifications.ListGroups)
	api.PUT("/notification-groups/:id/expanded", s.Notifications.SetGroupExpanded)
	api.POST("/notification-groups/:id/read", s.Notifications.MarkGroupRead)
}
