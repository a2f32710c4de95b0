package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/proofdesk/proofdesk"
	model2 "github.com/proofdesk/proofdesk/api/model"
	"github.com/proofdesk/proofdesk/internal/apierror"
)

// UploadStatement extracts an uploaded statement file into sheet previews.
// The operator confirms which sheets to load in a second step.
func (a Api) UploadStatement(c *gin.Context) {
	target := c.PostForm("target")
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload failed"})
		return
	}
	defer file.Close()

	pending, err := a.engine.ImportStatement(c.Request.Context(), file, header.Filename,
		proofdesk.ImportTarget(target))
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pending)
}

// ConfirmSheets loads the chosen sheets of a parked import into the
// workspace.
func (a Api) ConfirmSheets(c *gin.Context) {
	importID := c.Param("import_id")

	var req model2.ConfirmSheetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateConfirmSheets(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batches, err := a.engine.ConfirmSheets(c.Request.Context(), importID, req.SheetNames)
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

// GetBatches lists the loaded batches for one side.
func (a Api) GetBatches(c *gin.Context) {
	target := c.DefaultQuery("target", string(proofdesk.TargetCurrent))
	c.JSON(http.StatusOK, gin.H{"batches": a.engine.Batches(proofdesk.ImportTarget(target))})
}
