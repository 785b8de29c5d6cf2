package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"podkeep/app/database"
	"podkeep/app/refresh"
)

// Handler serves the HTTP API over the store and the refresh orchestrator
type Handler struct {
	store        *database.Store
	orchestrator *refresh.Orchestrator
	version      string
}

func NewHandler(store *database.Store, orchestrator *refresh.Orchestrator, version string) *Handler {
	return &Handler{
		store:        store,
		orchestrator: orchestrator,
		version:      version,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.store.Feeds.GetAllFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]FeedResponse, 0, len(feeds))
	for _, f := range feeds {
		unread, err := h.store.Articles.UnreadCount(f.ID)
		if err != nil {
			slog.Error("Database error", "operation", "unread_count", "feed", f.ID, "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		response = append(response, FeedResponse{
			ID:          f.ID,
			URL:         f.URL,
			Title:       f.Title,
			Category:    f.Category,
			IconURL:     f.IconURL,
			UnreadCount: unread,
		})
	}
	c.JSON(http.StatusOK, gin.H{"feeds": response})
}

func (h *Handler) AddFeed(c *gin.Context) {
	var req AddFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := h.orchestrator.AddFeed(c.Request.Context(), req.URL, req.Category)
	if err != nil {
		slog.Error("Failed to add feed", "url", req.URL, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, FeedResponse{
		ID:       f.ID,
		URL:      f.URL,
		Title:    f.Title,
		Category: f.Category,
		IconURL:  f.IconURL,
	})
}

func (h *Handler) RemoveFeed(c *gin.Context) {
	feedID := c.Param("id")
	f, err := h.store.Feeds.GetFeed(feedID)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if f == nil {
		c.Status(http.StatusNotFound)
		return
	}

	if err := h.orchestrator.RemoveFeed(feedID); err != nil {
		slog.Error("Failed to remove feed", "feed", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListArticles(c *gin.Context) {
	feedID := c.Param("id")
	f, err := h.store.Feeds.GetFeed(feedID)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if f == nil {
		c.Status(http.StatusNotFound)
		return
	}

	articles, err := h.store.Articles.GetArticles(feedID)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "feed", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]ArticleResponse, 0, len(articles))
	for _, a := range articles {
		response = append(response, ArticleResponse{
			ID:         a.ID,
			FeedID:     a.FeedID,
			Title:      a.Title,
			URL:        a.URL,
			Content:    a.Content,
			Date:       a.Date,
			Author:     a.Author,
			IsRead:     a.IsRead,
			IsFavorite: a.IsFavorite,
			MediaURL:   a.MediaURL,
			MediaType:  a.MediaType,
		})
	}
	c.JSON(http.StatusOK, gin.H{"articles": response})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	feedID := c.Param("id")
	if err := h.store.Articles.MarkAllRead(feedID); err != nil {
		slog.Error("Database error", "operation", "mark_all_read", "feed", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkRead(c *gin.Context) {
	feedID := c.Param("id")
	articleID := c.Param("articleId")

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	read := true
	if req.Read != nil {
		read = *req.Read
	}

	if err := h.store.Articles.MarkRead(feedID, articleID, read); err != nil {
		slog.Error("Database error", "operation", "mark_read", "feed", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkFavorite(c *gin.Context) {
	feedID := c.Param("id")
	articleID := c.Param("articleId")

	var req MarkFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	favorite := true
	if req.Favorite != nil {
		favorite = *req.Favorite
	}

	if err := h.store.Articles.MarkFavorite(feedID, articleID, favorite); err != nil {
		slog.Error("Database error", "operation", "mark_favorite", "feed", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetChapters(c *gin.Context) {
	articleID := c.Param("articleId")
	chapters, err := h.store.Chapters.GetChapters(articleID)
	if err != nil {
		slog.Error("Database error", "operation", "get_chapters", "article", articleID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]ChapterResponse, 0, len(chapters))
	for _, ch := range chapters {
		response = append(response, ChapterResponse{Start: ch.Start, Title: ch.Title, Href: ch.Href})
	}
	c.JSON(http.StatusOK, gin.H{"chapters": response})
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.store.Categories.GetAllCategories()
	if err != nil {
		slog.Error("Database error", "operation", "list_categories", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		response = append(response, CategoryResponse{ID: cat.ID, Title: cat.Title})
	}
	c.JSON(http.StatusOK, gin.H{"categories": response})
}

func (h *Handler) AddCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat, err := h.store.Categories.EnsureCategory(req.Title)
	if err != nil {
		slog.Error("Database error", "operation", "add_category", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, CategoryResponse{ID: cat.ID, Title: cat.Title})
}

func (h *Handler) RenameCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.Categories.RenameCategory(c.Param("id"), req.Title); err != nil {
		slog.Error("Failed to rename category", "category", c.Param("id"), "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.store.Categories.DeleteCategory(c.Param("id")); err != nil {
		slog.Error("Failed to delete category", "category", c.Param("id"), "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh runs a full refresh cycle synchronously and reports each feed's
// terminal state in completion order.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var reports []RefreshReport
	err := h.orchestrator.Refresh(c.Request.Context(), func(p refresh.Progress) {
		reports = append(reports, RefreshReport{
			FeedID:      p.FeedID,
			Status:      string(p.Status),
			NewArticles: p.NewArticles,
		})
	}, req.Force)
	if err != nil {
		slog.Error("Refresh failed", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feeds": reports})
}

func (h *Handler) GetPlayback(c *gin.Context) {
	id := c.Param("id")
	st, err := h.store.Playback.Get(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_playback", "id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if st == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, PlaybackResponse{
		ID:            st.ID,
		PositionMs:    st.PositionMs,
		DurationMs:    st.DurationMs,
		UpdatedAt:     st.UpdatedAt,
		Completed:     st.Completed,
		SeekSupported: st.SeekSupported,
		Title:         st.Title,
	})
}

func (h *Handler) UpsertPlayback(c *gin.Context) {
	id := c.Param("id")
	var req PlaybackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.store.Playback.Upsert(database.PlaybackState{
		ID:            id,
		PositionMs:    req.PositionMs,
		DurationMs:    req.DurationMs,
		UpdatedAt:     req.UpdatedAt,
		Completed:     req.Completed,
		SeekSupported: req.SeekSupported,
		Title:         req.Title,
	})
	if err != nil {
		slog.Error("Database error", "operation", "upsert_playback", "id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetSeekSupported(c *gin.Context) {
	id := c.Param("id")
	var req SeekSupportedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.Playback.SetSeekSupported(id, *req.Supported); err != nil {
		slog.Error("Database error", "operation", "set_seek_supported", "id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeletePlayback(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Playback.Delete(id); err != nil {
		slog.Error("Database error", "operation", "delete_playback", "id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}
