package api

import (
	"github.com/gin-gonic/gin"

	"github.com/proofdesk/proofdesk"
	"github.com/proofdesk/proofdesk/config"
)

type Api struct {
	engine *proofdesk.Proofdesk
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.POST("/statements", a.UploadStatement)
	router.POST("/statements/:import_id/confirm", a.ConfirmSheets)
	router.GET("/batches", a.GetBatches)

	router.POST("/reconciliations", a.RunReconciliation)
	router.GET("/results", a.GetResults)
	router.GET("/results/history", a.GetResultHistory)
	router.GET("/summary", a.GetSummary)

	router.POST("/matches/manual", a.ManualMatch)
	router.GET("/matches/suggestions", a.SuggestMatches)
	router.POST("/matches/reset", a.ResetMatches)
	router.POST("/undo", a.Undo)

	router.POST("/proofs/balance", a.LockSystemBalance)
	router.POST("/proofs/:sheet/submit", a.SubmitProof)
	router.GET("/proofs/:sheet", a.GetProof)
	router.GET("/proofs", a.GetProofs)

	router.GET("/export", a.ExportResults)
	router.POST("/session/save", a.SaveSession)
	router.POST("/session/restore", a.RestoreSession)

	return a.router
}

func NewAPI(engine *proofdesk.Proofdesk) *Api {
	gin.SetMode(gin.ReleaseMode)
	_, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{engine: engine, router: r}
}
