// Package handlers implements the read-only HTTP surface over the engine:
// account lookup, account listing, health, and Prometheus metrics. No
// handler ever accepts a deposit/withdraw/dispute request — that would
// reintroduce a network write path the design explicitly keeps out of
// scope (see SPEC_FULL.md component 11).
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ledgerengine/internal/engine"
	"ledgerengine/internal/ledger"
	"ledgerengine/internal/telemetry"
)

type accountResponse struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

func toResponse(acc ledger.Account) (accountResponse, error) {
	total, err := acc.Total()
	if err != nil {
		return accountResponse{}, err
	}
	return accountResponse{
		Client:    acc.ClientID,
		Available: acc.Available.String(),
		Held:      acc.Held.String(),
		Total:     total.String(),
		Locked:    acc.Locked,
	}, nil
}

// GetAccount handles GET /accounts/:id.
func GetAccount(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param("id")
		id, err := strconv.ParseUint(idStr, 10, 16)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
			return
		}

		acc, err := e.GetAccount(c.Request.Context(), uint16(id))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
			return
		}
		if acc == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}

		resp, err := toResponse(*acc)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "numeric error"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ListAccounts handles GET /accounts.
func ListAccounts(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, err := e.Accounts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
			return
		}

		resp := make([]accountResponse, 0)
		for acc := range ch {
			r, err := toResponse(acc)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "numeric error"})
				return
			}
			resp = append(resp, r)
		}
		telemetry.AccountsGauge.Set(float64(len(resp)))
		c.JSON(http.StatusOK, resp)
	}
}
