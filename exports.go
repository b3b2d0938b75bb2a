package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/vehicle_sales_backend/config"
	"github.com/mmdatafocus/vehicle_sales_backend/models"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// filtersHandler applies the cascading filter query: records matching every
// dimension, plus per-dimension option lists computed with self-exclusion.
func filtersHandler(store *models.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var selection models.FilterSelection
		if err := c.ShouldBindJSON(&selection); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		c.JSON(http.StatusOK, models.ApplyFilters(store.GetAll(), selection))
	}
}

func dataHandler(store *models.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": store.GetAll()})
	}
}

func mapDataHandler(store *models.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": models.MapPoints(store.GetAll())})
	}
}

func analyticsSummaryHandler(store *models.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary := models.Summarize(store.GetAll(), store.DistinctOptions())
		c.JSON(http.StatusOK, summary)
	}
}

func clearDataHandler(store *models.Store, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		n := store.Clear()
		logger.WithFields(logrus.Fields{
			"records": n,
		}).Info("[data.cleared]")
		c.JSON(http.StatusOK, gin.H{"cleared": n})
	}
}

var exportHeaders = []string{
	"State", "City", "Maker", "RTO", "District",
	"Sales2022", "Sales2023", "Sales2024", "Sales2025",
	"Total", "Latitude", "Longitude",
}

// exportHandler writes the (optionally filtered) record set as an .xlsx
// attachment. The filters query param takes the same JSON body as
// POST /api/filters.
func exportHandler(store *models.Store, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		records := store.GetAll()
		if raw := strings.TrimSpace(c.Query("filters")); raw != "" {
			var selection models.FilterSelection
			if err := json.Unmarshal([]byte(raw), &selection); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filters parameter"})
				return
			}
			records = models.ApplyFilters(records, selection).FilteredData
		}

		f := excelize.NewFile()
		sheet := "Sheet1"
		if _, err := f.NewSheet(sheet); err != nil {
			config.LogError(logger, "exports.go", "exportHandler", "NewSheet", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
			return
		}

		for i, h := range exportHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		for i, r := range records {
			values := []interface{}{
				r.State, r.City, r.Maker, r.RTO, r.District,
				r.Sales2022, r.Sales2023, r.Sales2024, r.Sales2025,
				r.Total, r.Latitude, r.Longitude,
			}
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=vehicle_sales_%d_records.xlsx", len(records)))
		if err := f.Write(c.Writer); err != nil {
			config.LogError(logger, "exports.go", "exportHandler", "Write", nil, err)
		}
	}
}
