package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/proofdesk/proofdesk"
	"github.com/proofdesk/proofdesk/internal/apierror"
	"github.com/proofdesk/proofdesk/model"
)

// ExportResults streams the current result set as an xlsx workbook.
func (a Api) ExportResults(c *gin.Context) {
	filter := proofdesk.ExportFilter{
		Sheet:  c.Query("sheet"),
		Status: model.Status(c.Query("status")),
	}

	book, err := a.engine.ExportResults(filter, c.Query("user_id"))
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	fileName := fmt.Sprintf("reconciliation_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := book.Write(c.Writer); err != nil {
		logrus.Error(err)
	}
}

// SaveSession snapshots the workspace to disk and cache.
func (a Api) SaveSession(c *gin.Context) {
	snap, err := a.engine.SaveSession(c.Request.Context())
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved_at": snap.SavedAt})
}

// RestoreSession replaces the workspace with the last saved snapshot.
func (a Api) RestoreSession(c *gin.Context) {
	restored, err := a.engine.RestoreSession(c.Request.Context())
	if err != nil {
		logrus.Error(err)
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"restored": restored, "summary": a.engine.Summary()})
}
