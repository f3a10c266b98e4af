package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-messaging/internal/models"
	"storefront-messaging/internal/repositories"
)

// DirectoryHandler exposes identity and name lookups.
type DirectoryHandler struct {
	directory repositories.DirectoryRepository
}

func NewDirectoryHandler(directory repositories.DirectoryRepository) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// Me returns the authenticated user.
func (h *DirectoryHandler) Me(c *gin.Context) {
	respondOK(c, http.StatusOK, models.CurrentUser{
		UserID:      c.GetString("userID"),
		DisplayName: c.GetString("userName"),
	})
}

func (h *DirectoryHandler) GetSeller(c *gin.Context) {
	seller, err := h.directory.GetSeller(c.Request.Context(), c.Param("seller_id"))
	if err != nil {
		respondErr(c, err, "failed to load seller")
		return
	}
	respondOK(c, http.StatusOK, seller)
}

func (h *DirectoryHandler) MemberName(c *gin.Context) {
	name, err := h.directory.MemberName(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondErr(c, err, "failed to load member")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"name": name})
}

func (h *DirectoryHandler) ClaimedSupplierName(c *gin.Context) {
	name, err := h.directory.ClaimedSupplierName(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondErr(c, err, "failed to load supplier")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"name": name})
}
