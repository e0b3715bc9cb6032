// Statistics HTTP handler.
//
// This file exposes the leaderboard read endpoint:
//   - POST /stats   (ordered member rows for one group, paginated)
//
// The endpoint is a POST because the shared token travels in the body, the
// same way the ingestion endpoint receives it.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grouprank/go-rank-backend/internal/services"
	"github.com/grouprank/go-rank-backend/internal/utils"
)

// StatsRequest is the JSON payload for the leaderboard query.
type StatsRequest struct {
	AuthToken string `json:"auth_token"`
	ChatID    int64  `json:"chat_id" binding:"required"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// StatsResponse contains one leaderboard page and pagination metadata.
type StatsResponse struct {
	Members    []services.MemberStats `json:"members"`
	Pagination Pagination             `json:"pagination"`
}

// clampStatsPagination parses page/page_size from query parameters, applies
// sane defaults and caps, and returns the validated (page, pageSize).
func clampStatsPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = services.DefaultStatsPageSize
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// Stats godoc
// @ID          groupStats
// @Summary     Group leaderboard
// @Description Returns members of a group ordered by rating descending, with
// @Description rank names, message counts, and streaks.
// @Tags        Stats
// @Accept      json
// @Produce     json
//
// @Param       X-Ingest-Token  header  string                 false "Shared ingest token (alternative to body auth_token)"
// @Param       page            query   int                    false "Page number"    minimum(1) default(1)
// @Param       page_size       query   int                    false "Items per page" minimum(1) maximum(100) default(20)
// @Param       body            body    handlers.StatsRequest  true  "Leaderboard query"
//
// @Success     200  {object}  handlers.StatsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Group not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stats [post]
func (h *Handlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	var req StatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_id required")
		return
	}
	if !h.authorized(c, req.AuthToken) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid ingest token")
		return
	}

	page, pageSize := clampStatsPagination(c)
	members, total, err := h.statsSvc.GroupStats(ctx, req.ChatID, page, pageSize)
	if err != nil {
		if err == services.ErrGroupNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "group not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, StatsResponse{
		Members: members,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
