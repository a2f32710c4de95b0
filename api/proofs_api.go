package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	model2 "github.com/proofdesk/proofdesk/api/model"
	"github.com/proofdesk/proofdesk/internal/apierror"
)

// LockSystemBalance records the operator-entered system balance for a sheet.
// A locked balance is immutable for the life of the workspace.
func (a Api) LockSystemBalance(c *gin.Context) {
	var req model2.LockBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateLockBalance(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := a.engine.LockSystemBalance(req.Sheet, req.Balance)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sheet": req.Sheet, "balance": balance})
}

// SubmitProof marks a sheet's proof as submitted.
func (a Api) SubmitProof(c *gin.Context) {
	var req model2.SubmitProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateSubmitProof(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proof, err := a.engine.SubmitProof(c.Param("sheet"), req.SubmittedBy)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, proof)
}

// GetProof returns the proof record for one sheet.
func (a Api) GetProof(c *gin.Context) {
	proof, err := a.engine.Proof(c.Request.Context(), c.Param("sheet"))
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, proof)
}

// GetProofs returns every proof record, live and previously persisted.
func (a Api) GetProofs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"proofs": a.engine.Proofs(c.Request.Context())})
}
