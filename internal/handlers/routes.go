package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the health, case and taxonomy endpoints.
func RegisterRoutes(router gin.IRouter, health *HealthHandler, cases *CaseHandler, taxonomy *TaxonomyHandler) {
	router.GET("/health", health.Health)
	router.GET("/health/ready", health.Ready)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", health.Info)

		c := v1.Group("/cases")
		{
			c.POST("", cases.Create)
			c.GET("/:id", cases.Get)
			c.GET("/:id/raw", cases.Raw)
			c.POST("/:id/refresh", cases.Refresh)
			c.PATCH("/:id/parties/:partyId", cases.UpdateParty)
			c.POST("/:id/parties/:partyId/issues", cases.AddIssue)
			c.DELETE("/:id/parties/:partyId/issues", cases.RemoveIssue)
		}

		t := v1.Group("/taxonomy")
		{
			t.GET("", taxonomy.List)
			t.POST("/refresh", taxonomy.Refresh)
		}
	}
}
