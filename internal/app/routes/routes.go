package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/phdtrack/internal/app/controllers"
	"github.com/yigit/phdtrack/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	studentController *controllers.StudentController,
	fileController *controllers.FileController,
	exportController *controllers.ExportController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}

	// --- Authenticated Routes Group ---
	// Admin or the student the record belongs to
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/me", authController.Me)
		authenticated.GET("/files/*path", fileController.ServeFile)

		students := authenticated.Group("/students/:id")
		{
			students.GET("", studentController.GetStudent)
			students.GET("/presentations", studentController.ListPresentations)
			students.GET("/synopsis", studentController.GetSynopsis)
			students.GET("/certificates", studentController.ListCertificates)
		}
	}

	// --- Admin Routes Group ---
	admin := authenticated.Group("")
	admin.Use(authMiddleware.AdminRequired())
	{
		admin.GET("/students", studentController.ListStudents)
		admin.POST("/students", studentController.CreateStudent)
		admin.PUT("/students/:id", studentController.UpdateStudent)
		admin.DELETE("/students/:id", studentController.DeleteStudent)
		admin.POST("/students/:id/extension", studentController.ExtendBatch)
		admin.POST("/students/:id/presentations", studentController.AddPresentation)
		admin.PUT("/students/:id/synopsis", studentController.UpsertSynopsis)
		admin.POST("/students/:id/certificates", studentController.AddCertificate)

		admin.DELETE("/presentations/:presentationId", studentController.DeletePresentation)
		admin.DELETE("/certificates/:certificateId", studentController.DeleteCertificate)

		admin.GET("/export/students.csv", exportController.ExportStudentsCSV)
	}
}
