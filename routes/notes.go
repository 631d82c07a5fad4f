package routes

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"notes-qa-platform/internal/config"
	"notes-qa-platform/internal/logger"
	"notes-qa-platform/models"
	"notes-qa-platform/services"
	"notes-qa-platform/utils"

	"github.com/gin-gonic/gin"
)

// SetupNotesRoutes wires document ingestion and catalog management.
func SetupNotesRoutes(router *gin.Engine, cfg *config.Config, rag *services.RAGService, storage *services.FileStorage) {
	notes := router.Group("/notes")

	// Upload one or more documents. Each file is ingested independently so a
	// bad file in a batch does not fail the rest.
	notes.POST("/upload", func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid multipart form", gin.H{"error": err.Error()})
			return
		}

		files := form.File["files"]
		if len(files) == 0 {
			utils.RespondWithBadRequest(c, "No files provided", nil)
			return
		}

		opts := services.IngestOptions{
			Department: c.PostForm("department"),
			Subject:    c.PostForm("subject"),
		}

		results := make([]models.IngestResult, 0, len(files))
		for _, fileHeader := range files {
			result := models.IngestResult{Filename: fileHeader.Filename}

			if fileHeader.Size > cfg.MaxFileSize {
				result.Reason = "file exceeds maximum allowed size"
				results = append(results, result)
				continue
			}

			file, err := fileHeader.Open()
			if err != nil {
				result.Reason = "failed to open uploaded file"
				results = append(results, result)
				continue
			}
			blob, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize+1))
			file.Close()
			if err != nil || int64(len(blob)) > cfg.MaxFileSize {
				result.Reason = "failed to read uploaded file"
				results = append(results, result)
				continue
			}

			fileOpts := opts
			if storage != nil {
				storedPath, err := storage.Save(blob, fileHeader.Filename)
				if err != nil {
					logger.Warn("failed to store uploaded file", "filename", fileHeader.Filename, "error", err)
				} else {
					fileOpts.StoredPath = storedPath
				}
			}

			kind := strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
			if err := rag.IngestDocument(c.Request.Context(), blob, fileHeader.Filename, kind, fileOpts); err != nil {
				result.Reason = err.Error()
				results = append(results, result)
				continue
			}

			result.Success = true
			results = append(results, result)
		}

		c.JSON(http.StatusOK, gin.H{"results": results})
	})

	notes.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"documents": rag.ListDocuments()})
	})

	notes.DELETE("/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid document id", nil)
			return
		}

		if !rag.RemoveDocument(c.Request.Context(), id) {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": id})
	})
}
