package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	model2 "github.com/proofdesk/proofdesk/api/model"
	"github.com/proofdesk/proofdesk/internal/apierror"
)

// RunReconciliation matches the loaded batches and rebuilds the result set.
func (a Api) RunReconciliation(c *gin.Context) {
	var req model2.RunReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := a.engine.RunReconciliation(c.Request.Context(), req.UserID)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// GetResults returns the current result set.
func (a Api) GetResults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": a.engine.Results(), "summary": a.engine.Summary()})
}

// GetResultHistory pages through audit rows persisted by earlier runs.
func (a Api) GetResultHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, err := a.engine.ResultHistory(c.Request.Context(), c.Query("sheet"), limit, offset)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": rows})
}

// GetSummary returns the aggregate counts plus the ledger view for one
// sheet or the whole workspace.
func (a Api) GetSummary(c *gin.Context) {
	sheet := c.Query("sheet")

	response := gin.H{
		"summary":         a.engine.Summary(),
		"pending_sum":     a.engine.PendingSum(sheet),
		"matched_summary": a.engine.MatchedSummary(sheet),
	}
	if diff, ok := a.engine.Diff(sheet); ok {
		response["diff"] = diff
		response["balanced"] = diff == 0
	} else {
		response["diff"] = nil
	}

	c.JSON(http.StatusOK, response)
}

// ManualMatch resolves one debit/credit pair chosen by amount and narration
// fragment.
func (a Api) ManualMatch(c *gin.Context) {
	var req model2.ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateManualMatch(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := a.engine.ManualMatch(c.Request.Context(), req.Amount, req.Narration)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pair)
}

// SuggestMatches ranks manual match candidates for an amount and narration
// fragment. Read-only.
func (a Api) SuggestMatches(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount query parameter is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	suggestions := a.engine.SuggestMatches(amount, c.Query("narration"), limit)
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// ResetMatches reverts matched rows to pending.
func (a Api) ResetMatches(c *gin.Context) {
	summary := a.engine.ResetMatches(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// Undo restores the most recent snapshot.
func (a Api) Undo(c *gin.Context) {
	restored := a.engine.Undo()
	if !restored {
		c.JSON(http.StatusOK, gin.H{"restored": false, "message": "nothing to undo"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": true, "summary": a.engine.Summary()})
}
