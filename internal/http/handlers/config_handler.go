// Reference-table HTTP handlers.
//
// This file exposes the read-only scoring configuration and the
// administrative rank backfill:
//   - GET  /config/ranks          (the rank ladder, ascending)
//   - GET  /config/points         (the message-type point table)
//   - POST /admin/ranks/restore   (recompute every membership's rank)
//
// The reference tables are public reads; the backfill is token-guarded by
// the router.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grouprank/go-rank-backend/internal/domain"
)

// RanksResponse lists the rank ladder ordered by required rating ascending.
type RanksResponse struct {
	Ranks []domain.Rank `json:"ranks"`
}

// PointsResponse lists the message-type point table.
type PointsResponse struct {
	Points []domain.MessageTypePoints `json:"points"`
}

// RestoreRanksResponse reports how many memberships the backfill moved.
type RestoreRanksResponse struct {
	Status  string `json:"status" example:"ok"`
	Updated int    `json:"updated"`
}

// Ranks godoc
// @ID          listRanks
// @Summary     Rank ladder
// @Description Returns all ranks ordered by required rating ascending.
// @Tags        Config
// @Produce     json
// @Success     200  {object}  handlers.RanksResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /config/ranks [get]
func (h *Handlers) Ranks(c *gin.Context) {
	ranks, err := h.rankSvc.Ranks(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, RanksResponse{Ranks: ranks})
}

// Points godoc
// @ID          listPoints
// @Summary     Message-type point table
// @Description Returns the base point value for each configured message type.
// @Tags        Config
// @Produce     json
// @Success     200  {object}  handlers.PointsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /config/points [get]
func (h *Handlers) Points(c *gin.Context) {
	points, err := h.rankSvc.Points(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, PointsResponse{Points: points})
}

// RestoreRanks godoc
// @ID          restoreRanks
// @Summary     Recompute all membership ranks
// @Description Recomputes the rank of every membership from its current
// @Description rating and the current ladder. Intended for use after the
// @Description ladder is edited.
// @Tags        Admin
// @Produce     json
// @Param       X-Ingest-Token  header  string  false "Shared ingest token"
// @Success     200  {object}  handlers.RestoreRanksResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/ranks/restore [post]
func (h *Handlers) RestoreRanks(c *gin.Context) {
	if !h.authorized(c, "") {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid ingest token")
		return
	}
	updated, err := h.rankSvc.RestoreRanks(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRestoreFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, RestoreRanksResponse{Status: "ok", Updated: updated})
}
