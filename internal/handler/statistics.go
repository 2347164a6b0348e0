package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HandleLicenseStatistics reports license totals and validation traffic
// between start_date and end_date (YYYY-MM-DD, default: last 30 days).
func (h *Handler) HandleLicenseStatistics(c *fiber.Ctx) error {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	var start, end time.Time
	var err error

	if startDate != "" {
		start, err = time.ParseInLocation("2006-01-02", startDate, time.Local)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    400,
				"message": "invalid start_date",
				"errors": []fiber.Map{
					{"field": "start_date", "message": "expected YYYY-MM-DD"},
				},
			})
		}
	} else {
		start = time.Now().AddDate(0, 0, -30)
	}

	if endDate != "" {
		end, err = time.ParseInLocation("2006-01-02", endDate, time.Local)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    400,
				"message": "invalid end_date",
				"errors": []fiber.Map{
					{"field": "end_date", "message": "expected YYYY-MM-DD"},
				},
			})
		}
		// include the whole end day
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	} else {
		end = time.Now()
	}

	if end.Before(start) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    400,
			"message": "end_date is before start_date",
		})
	}

	stats, err := h.licenses.Statistics(c.UserContext(), start, end)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"code":         200,
		"message":      "success",
		"data":         stats,
		"success_rate": stats.GetSuccessRate(),
	})
}
